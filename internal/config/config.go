package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the LMS service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	AllowOrigins string
	StaticDir    string

	DatabaseURL string
	RedisURL    string
	NATSURL     string
	EventPrefix string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	CompactCourseIDs  bool
	PurgeLegacyCourse bool

	Seed SeedConfig
}

// SeedConfig lists the default accounts created at startup.
type SeedConfig struct {
	AdminUsername   string
	AdminPassword   string
	StudentUsername string
	StudentPassword string
	StudentEmail    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("static.dir", "./static")
	v.SetDefault("events.prefix", "lms")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("courses.compact_ids", true)
	v.SetDefault("seed.purge_legacy_course", true)
	v.SetDefault("seed.admin_username", "123456788")
	v.SetDefault("seed.admin_password", "Jessica123")
	v.SetDefault("seed.student_username", "123456789")
	v.SetDefault("seed.student_password", "password123")
	v.SetDefault("seed.student_email", "student1@university.edu")

	ttl, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		AllowOrigins:      v.GetString("app.allow_origins"),
		StaticDir:         v.GetString("static.dir"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventPrefix:       v.GetString("events.prefix"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTTTL:            ttl,
		BcryptCost:        v.GetInt("auth.bcrypt_cost"),
		LoginRateLimit:    v.GetInt("login.rate_limit"),
		LoginRateWindow:   window,
		CompactCourseIDs:  v.GetBool("courses.compact_ids"),
		PurgeLegacyCourse: v.GetBool("seed.purge_legacy_course"),
		Seed: SeedConfig{
			AdminUsername:   v.GetString("seed.admin_username"),
			AdminPassword:   v.GetString("seed.admin_password"),
			StudentUsername: v.GetString("seed.student_username"),
			StudentPassword: v.GetString("seed.student_password"),
			StudentEmail:    v.GetString("seed.student_email"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("jwt ttl must be positive")
	}

	return cfg, nil
}
