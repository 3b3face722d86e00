package handlers

import (
	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/internal/middleware"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps is everything NewApp wires into routes.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Schema   graphql.Schema
	Sessions *session.Store
	Audit    *services.AuditService
}

func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(d.Config.Server))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	app.Use(middleware.Metrics())

	health := NewHealthHandler(d.DB)
	app.Get("/health", health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/version", GetVersion)

	withSession := []fiber.Handler{
		middleware.EncryptCookies(d.Config.Session),
		middleware.Sessions(d.Sessions),
	}

	gql := NewGraphQLHandler(d.Schema)
	app.Post("/graphql", append(withSession, gql.Handle)...)
	app.Get("/graphql", append(withSession, gql.Handle)...)

	audit := NewAuditHandler(d.Audit)
	api.Get("/audit-log", append(withSession, audit.Export)...)

	return app
}
