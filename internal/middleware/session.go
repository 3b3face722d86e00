package middleware

import (
	"strconv"
	"time"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	sessionLocalsKey = "session"
	sessionUserKey   = "userId"

	// SessionMaxAge keeps members signed in for ten years.
	SessionMaxAge = 10 * 365 * 24 * time.Hour
)

func CORS(cfg config.ServerConfig) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowCredentials: true,
	})
}

// EncryptCookies encrypts the session cookie when a secret is configured.
func EncryptCookies(cfg config.SessionConfig) fiber.Handler {
	if cfg.Secret == "" {
		logger.Warn("session_cookie_unencrypted", map[string]interface{}{"cookie": cfg.CookieName})
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return encryptcookie.New(encryptcookie.Config{Key: cfg.Secret})
}

// NewSessionStore builds the cookie session store over storage.
func NewSessionStore(storage fiber.Storage, cfg config.Config) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     SessionMaxAge,
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Server.IsProduction(),
	})
}

// fiberSession adapts a fiber session to auth.Session. Changes are
// persisted once the handler chain returns.
type fiberSession struct {
	sess      *session.Session
	dirty     bool
	destroyed bool
}

func (f *fiberSession) UserID() (uint, bool) {
	if f.destroyed {
		return 0, false
	}
	id, ok := f.sess.Get(sessionUserKey).(uint)
	return id, ok
}

func (f *fiberSession) Login(userID uint) error {
	if err := f.sess.Regenerate(); err != nil {
		return err
	}
	f.sess.Set(sessionUserKey, userID)
	f.dirty = true
	f.destroyed = false
	return nil
}

func (f *fiberSession) Logout() error {
	f.destroyed = true
	f.dirty = false
	return f.sess.Destroy()
}

func setUserLocal(c *fiber.Ctx, s auth.Session) {
	if id, ok := s.UserID(); ok {
		c.Locals("userID", strconv.FormatUint(uint64(id), 10))
	}
}

// Sessions loads the cookie session and exposes it through SessionFrom.
func Sessions(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			logger.Error("session_load_failed", err, map[string]interface{}{"ip": c.IP()})
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		s := &fiberSession{sess: sess}
		c.Locals(sessionLocalsKey, s)
		setUserLocal(c, s)

		err = c.Next()

		setUserLocal(c, s)
		if s.dirty {
			if saveErr := sess.Save(); saveErr != nil {
				logger.Error("session_save_failed", saveErr, map[string]interface{}{"ip": c.IP()})
			}
		}
		return err
	}
}

// SessionFrom returns the request's session; ok is false outside Sessions.
func SessionFrom(c *fiber.Ctx) (auth.Session, bool) {
	s, ok := c.Locals(sessionLocalsKey).(*fiberSession)
	return s, ok
}
