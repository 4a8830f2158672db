package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fastadmin/internal/admin"
	"fastadmin/internal/engine"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service   *Service
	sessions  *SessionStore
	jwtSecret string
}

func NewHandler(svc *Service, sessions *SessionStore, jwtSecret string) *Handler {
	return &Handler{service: svc, sessions: sessions, jwtSecret: jwtSecret}
}

type loginRequest struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
	Next       string `json:"-" form:"next"`
}

// Login handles POST /admin/login. The username field accepts an email
// address too. On success a session cookie is set; with remember_me the
// cookie persists for the session TTL, otherwise it expires with the
// browser.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, engine.InvalidPayloadError("Invalid request body"))
	}
	if body.Username == "" || body.Password == "" {
		return respondError(c, engine.InvalidPayloadError("Username and password are required"))
	}

	p, err := h.service.Authenticate(c.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return respondError(c, engine.InvalidCredentialsError())
		}
		return err
	}

	sess, err := h.sessions.Create(c.Context(), p.ID, c.IP())
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   c.Protocol() == "https",
	}
	if body.RememberMe {
		cookie.Expires = sess.ExpiresAt
	}
	c.Cookie(cookie)

	if body.Next != "" && strings.HasPrefix(body.Next, "/") {
		return c.Redirect(body.Next, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"data": p})
}

// Token handles POST /auth/token, issuing a bearer token for API clients
// that cannot hold cookies.
func (h *Handler) Token(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, engine.InvalidPayloadError("Invalid request body"))
	}
	if body.Username == "" || body.Password == "" {
		return respondError(c, engine.InvalidPayloadError("Username and password are required"))
	}

	p, err := h.service.Authenticate(c.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return respondError(c, engine.InvalidCredentialsError())
		}
		return err
	}

	token, err := GenerateToken(p, h.jwtSecret)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(TokenTTL.Seconds()),
	}})
}

// LoginForm handles GET /admin/login, describing the login form so clients
// can render it without hardcoding field names.
func (h *Handler) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"fields": []fiber.Map{
			{"name": "username", "widget": "text", "label": "Username", "required": true,
				"help": "Username or email address"},
			{"name": "password", "widget": "password", "label": "Password", "required": true},
			{"name": "remember_me", "widget": "checkbox", "label": "Remember Me", "required": false},
		},
	}})
}

// Logout handles GET and POST /admin/logout. Destroys the session and
// clears the cookie; logging out without a session succeeds quietly.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(CookieName); token != "" {
		if err := h.sessions.Destroy(c.Context(), token); err != nil {
			return err
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if next := c.FormValue("next"); next != "" && strings.HasPrefix(next, "/") {
		return c.Redirect(next, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *fiber.Ctx) error {
	p := principal(c)
	if p == nil {
		return respondError(c, engine.UnauthenticatedError())
	}
	return c.JSON(fiber.Map{"data": p})
}

// Permissions handles GET /auth/permissions, returning the caller's
// effective permission strings.
func (h *Handler) Permissions(c *fiber.Ctx) error {
	p := principal(c)
	if p == nil {
		return respondError(c, engine.UnauthenticatedError())
	}
	perms, err := h.service.EffectivePermissions(c.Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": perms})
}

// RegisterRoutes mounts the auth endpoints. The /admin/login and
// /admin/logout paths must register before the admin table wildcard routes
// so they are never interpreted as table names.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/admin/login", h.LoginForm)
	app.Post("/admin/login", h.Login)
	app.Get("/admin/logout", h.Logout)
	app.Post("/admin/logout", h.Logout)

	grp := app.Group("/auth")
	grp.Post("/token", h.Token)
	grp.Get("/me", h.Me)
	grp.Get("/permissions", h.Permissions)
}

func principal(c *fiber.Ctx) *admin.Principal {
	p, _ := c.Locals("principal").(*admin.Principal)
	return p
}

func respondError(c *fiber.Ctx, appErr *engine.AppError) error {
	return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
}
