package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/internal/database"
	"github.com/bookclub/api/internal/graph"
	"github.com/bookclub/api/internal/kv"
	"github.com/bookclub/api/internal/middleware"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/logger"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	audit *services.AuditService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Init()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	kvDB, err := kv.Open(kv.Options{InMemory: true})
	if err != nil {
		t.Fatalf("failed opening kv store: %v", err)
	}
	t.Cleanup(func() { _ = kvDB.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{Env: "development", FrontendURL: "http://localhost:3000"},
		Session: config.SessionConfig{CookieName: "qid"},
		Mail:    config.MailConfig{ResetURL: "http://localhost:3000/reset/"},
	}

	store := storage.New(db)
	audit := services.NewAuditService(db)
	t.Cleanup(func() { _ = audit.Close(context.Background()) })

	schema, err := graph.NewSchema(&graph.Resolver{
		Users:      services.NewUserService(store, kv.NewResetTokens(kvDB), services.LogMailer{}, cfg.Mail.ResetURL),
		Readings:   services.NewReadingService(store),
		Ratings:    services.NewRatingService(store, store),
		Meetings:   services.NewMeetingService(store, store),
		Attendance: services.NewAttendanceService(store, store, store),
		Audit:      audit,
	})
	if err != nil {
		t.Fatalf("failed building schema: %v", err)
	}

	app := NewApp(Deps{
		Config:   cfg,
		DB:       db,
		Schema:   schema,
		Sessions: middleware.NewSessionStore(kv.NewSessionStorage(kvDB), *cfg),
		Audit:    audit,
	})

	return &testEnv{app: app, db: db, audit: audit}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var body io.Reader
	headers := map[string]string{}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
		headers["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, headers, cookies...)
}

// gql posts a GraphQL operation and returns the decoded response.
func gql(t *testing.T, app *fiber.App, query string, variables map[string]any, cookies ...*http.Cookie) (*http.Response, map[string]any) {
	t.Helper()
	resp := performJSONRequest(t, app, http.MethodPost, "/graphql", map[string]any{
		"query":     query,
		"variables": variables,
	}, cookies...)
	assertStatus(t, resp, http.StatusOK)
	return resp, decodeJSONMap(t, resp)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "qid" {
			return c
		}
	}
	return nil
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
