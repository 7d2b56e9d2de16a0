package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

// AuthHandler serves the landing, login and logout pages.
type AuthHandler struct {
	auth         service.AuthService
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs the handler. secureCookie marks the access token
// cookie as HTTPS only.
func NewAuthHandler(auth service.AuthService, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		secureCookie: secureCookie,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public pages. loginLimiter guards credential checks.
func (h *AuthHandler) Register(router fiber.Router, loginLimiter fiber.Handler) {
	if loginLimiter == nil {
		loginLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("/", h.index)
	router.Get("/login", h.loginPage)
	router.Post("/login", loginLimiter, h.login)
	router.Get("/logout", h.logout)
	router.Post("/logout", h.logout)
	router.Get("/error", h.errorPage)
	router.Get("/403", h.forbiddenPage)
}

func (h *AuthHandler) index(c *fiber.Ctx) error {
	model := fiber.Map{}
	if identity, ok := middleware.IdentityFromContext(c); ok {
		model["email"] = identity.Username
		model["role"] = identity.Role
	}
	return renderPage(c, fiber.StatusOK, viewIndex, model)
}

func (h *AuthHandler) loginPage(c *fiber.Ctx) error {
	model := fiber.Map{}
	if c.Context().QueryArgs().Has("error") {
		model["error"] = "Invalid username or password."
	}
	if c.Context().QueryArgs().Has("logout") {
		model["logout"] = "You have been logged out."
	}
	return renderPage(c, fiber.StatusOK, viewLogin, model)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		observability.LoginAttempts().WithLabelValues("invalid").Inc()
		return c.Redirect("/login?error", fiber.StatusFound)
	}

	result, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.LoginAttempts().WithLabelValues("rejected").Inc()
			requestLogger(h.logger, c).Info().Str("username", strings.TrimSpace(req.Username)).Msg("login rejected")
			return c.Redirect("/login?error", fiber.StatusFound)
		}
		observability.LoginAttempts().WithLabelValues("error").Inc()
		requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
		return err
	}

	observability.LoginAttempts().WithLabelValues("success").Inc()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(result.RedirectTo, fiber.StatusFound)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if token := middleware.AccessToken(c); token != "" {
		if err := h.auth.Logout(c.UserContext(), token); err != nil {
			requestLogger(h.logger, c).Warn().Err(err).Msg("failed to revoke token")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) errorPage(c *fiber.Ctx) error {
	return renderPage(c, fiber.StatusOK, viewError, nil)
}

func (h *AuthHandler) forbiddenPage(c *fiber.Ctx) error {
	return renderPage(c, fiber.StatusForbidden, middleware.ForbiddenView, nil)
}
