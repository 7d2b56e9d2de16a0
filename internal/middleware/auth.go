package middleware

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// AccessTokenCookie carries the access token issued at login.
const AccessTokenCookie = "access_token"

const identityLocal = "identity"

// Authenticator resolves request credentials into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (dto.Identity, error)
	VerifyCredentials(ctx context.Context, username, password string) (dto.Identity, error)
}

// Authenticate resolves Bearer, Basic or cookie credentials and stores the
// identity on the request. Requests without valid credentials continue
// anonymously; access rules decide what they may reach.
func Authenticate(auth Authenticator, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := resolveIdentity(c, auth, logger)
		if ok {
			c.Locals(identityLocal, identity)
			c.Locals("user_id", identity.Username)
			c.Locals("user_role", strings.ToLower(string(identity.Role)))
		}
		return c.Next()
	}
}

func resolveIdentity(c *fiber.Ctx, auth Authenticator, logger zerolog.Logger) (dto.Identity, bool) {
	ctx := c.UserContext()
	log := RequestLogger(logger, c)
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))

	switch {
	case hasScheme(authorization, "Bearer"):
		token := strings.TrimSpace(authorization[len("Bearer"):])
		identity, err := auth.Authenticate(ctx, token)
		if err != nil {
			log.Debug().Err(err).Msg("bearer token rejected")
			return dto.Identity{}, false
		}
		return identity, true
	case hasScheme(authorization, "Basic"):
		username, password, ok := parseBasic(strings.TrimSpace(authorization[len("Basic"):]))
		if !ok {
			return dto.Identity{}, false
		}
		identity, err := auth.VerifyCredentials(ctx, username, password)
		if err != nil {
			log.Debug().Err(err).Str("username", username).Msg("basic credentials rejected")
			return dto.Identity{}, false
		}
		return identity, true
	}

	token := strings.TrimSpace(c.Cookies(AccessTokenCookie))
	if token == "" {
		return dto.Identity{}, false
	}
	identity, err := auth.Authenticate(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("cookie token rejected")
		return dto.Identity{}, false
	}
	return identity, true
}

func hasScheme(authorization, scheme string) bool {
	return len(authorization) > len(scheme) && strings.EqualFold(authorization[:len(scheme)+1], scheme+" ")
}

func parseBasic(encoded string) (string, string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || username == "" {
		return "", "", false
	}
	return username, password, true
}

// IdentityFromContext returns the identity resolved for the request.
func IdentityFromContext(c *fiber.Ctx) (dto.Identity, bool) {
	identity, ok := c.Locals(identityLocal).(dto.Identity)
	return identity, ok
}

// AccessToken returns the raw token the request authenticated with, if any.
func AccessToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if hasScheme(authorization, "Bearer") {
		return strings.TrimSpace(authorization[len("Bearer"):])
	}
	return strings.TrimSpace(c.Cookies(AccessTokenCookie))
}

var publicPaths = map[string]struct{}{
	"/":        {},
	"/login":   {},
	"/logout":  {},
	"/healthz": {},
	"/metrics": {},
}

const publicAssetPrefix = "/img/"

// IsPublicPath reports whether path is reachable without credentials.
func IsPublicPath(path string) bool {
	if _, ok := publicPaths[path]; ok {
		return true
	}
	return strings.HasPrefix(path, publicAssetPrefix)
}

// RequireAuthentication rejects anonymous requests outside the public paths.
// API callers get 401; page requests are redirected to the login page.
func RequireAuthentication() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsPublicPath(c.Path()) {
			return c.Next()
		}
		if _, ok := IdentityFromContext(c); ok {
			return c.Next()
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		return c.Redirect("/login", fiber.StatusFound)
	}
}

func usernameFromLocals(c *fiber.Ctx) string {
	if username, ok := c.Locals("user_id").(string); ok {
		return username
	}
	return ""
}
