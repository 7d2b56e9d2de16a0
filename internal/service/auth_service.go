package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the username or password did not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken indicates the access token could not be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked indicates the access token was logged out.
	ErrTokenRevoked = errors.New("token revoked")
)

const revokedTokenPrefix = "auth:revoked:"

// SeedUser describes a default account created at startup.
type SeedUser struct {
	Username string
	Password string
	Role     models.Role
	// Email creates the matching student record for student accounts.
	Email string
}

// AuthOptions configures token issuance.
type AuthOptions struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// AuthService verifies credentials and manages access tokens.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error)
	VerifyCredentials(ctx context.Context, username, password string) (dto.Identity, error)
	Authenticate(ctx context.Context, token string) (dto.Identity, error)
	Logout(ctx context.Context, token string) error
	SeedUsers(ctx context.Context, users []SeedUser) error
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	users      repository.UserRepository
	transactor repository.Transactor
	redis      redis.Cmdable
	validator  *validator.Validate
	options    AuthOptions
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAuthService constructs the authentication service. A nil redis client
// disables logout revocation.
func NewAuthService(users repository.UserRepository, transactor repository.Transactor, redisClient redis.Cmdable, validate *validator.Validate, options AuthOptions, logger zerolog.Logger) AuthService {
	if options.TTL <= 0 {
		options.TTL = 24 * time.Hour
	}
	if options.BcryptCost == 0 {
		options.BcryptCost = bcrypt.DefaultCost
	}

	return &authService{
		users:      users,
		transactor: transactor,
		redis:      redisClient,
		validator:  validate,
		options:    options,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/auth"),
		now:        time.Now,
	}
}

// LandingPath returns where a freshly logged-in user is sent.
func LandingPath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleStudent:
		return "/student"
	default:
		return "/"
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.LoginResult{}, ErrInvalidCredentials
	}

	identity, err := s.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login_failed")
		return dto.LoginResult{}, err
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.options.TTL)
	claims := tokenClaims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.options.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token_sign_failed")
		return dto.LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	span.SetAttributes(attribute.String("auth.role", string(identity.Role)))
	s.logger.Info().Str("username", identity.Username).Str("role", string(identity.Role)).Msg("user logged in")

	return dto.LoginResult{
		Token:      token,
		ExpiresAt:  expiresAt,
		Identity:   identity,
		RedirectTo: LandingPath(identity.Role),
	}, nil
}

func (s *authService) VerifyCredentials(ctx context.Context, username, password string) (dto.Identity, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.Identity{}, ErrInvalidCredentials
		}
		return dto.Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return dto.Identity{}, ErrInvalidCredentials
	}

	return dto.Identity{Username: user.Username, Role: user.Role}, nil
}

// Authenticate parses an access token and rejects expired or revoked ones.
func (s *authService) Authenticate(ctx context.Context, token string) (dto.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return dto.Identity{}, err
	}

	if s.redis != nil && claims.ID != "" {
		revoked, err := s.redis.Exists(ctx, revokedTokenPrefix+claims.ID).Result()
		if err != nil {
			return dto.Identity{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked > 0 {
			return dto.Identity{}, ErrTokenRevoked
		}
	}

	return dto.Identity{Username: claims.Subject, Role: models.Role(strings.ToUpper(claims.Role))}, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, token string) error {
	if s.redis == nil || strings.TrimSpace(token) == "" {
		return nil
	}

	claims, err := s.parse(token)
	if err != nil {
		// Nothing to revoke for a token that no longer verifies.
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, revokedTokenPrefix+claims.ID, claims.Subject, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.logger.Info().Str("username", claims.Subject).Msg("token revoked")
	return nil
}

// SeedUsers creates the default accounts that are missing. Student accounts
// also get a student record keyed by the username.
func (s *authService) SeedUsers(ctx context.Context, users []SeedUser) error {
	hashes := make([][]byte, len(users))
	for i, user := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.options.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", user.Username, err)
		}
		hashes[i] = hash
	}

	return s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		for i, seed := range users {
			exists, err := repos.Users.ExistsByUsername(ctx, seed.Username)
			if err != nil {
				return err
			}
			if !exists {
				user := models.User{Username: seed.Username, PasswordHash: string(hashes[i]), Role: seed.Role}
				if err := repos.Users.Create(ctx, &user); err != nil {
					return fmt.Errorf("create user %s: %w", seed.Username, err)
				}
				s.logger.Info().Str("username", seed.Username).Str("role", string(seed.Role)).Msg("seeded user")
			}

			if seed.Role != models.RoleStudent || seed.Email == "" {
				continue
			}

			exists, err = repos.Students.ExistsByStudentID(ctx, seed.Username)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			student := models.Student{StudentID: seed.Username, StudentEmail: seed.Email}
			if err := repos.Students.Create(ctx, &student); err != nil {
				return fmt.Errorf("create student %s: %w", seed.Username, err)
			}
		}
		return nil
	})
}

func (s *authService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.options.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
