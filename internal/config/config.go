// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config is the whole service configuration
type Config struct {
	Env  string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	AllowOrigins []string
	FrontendURL  string

	SecretKey      string
	AccessTokenTTL time.Duration
	Cookie         CookieConfig

	Database DatabaseConfig
	RedisURL string

	Google GoogleConfig
	Mail   MailConfig
	Admin  AdminConfig

	StorageBucket string

	RateLimitPerSecond int
	BypassVerification bool

	EmailOTPTTL time.Duration
	ResetOTPTTL time.Duration

	ArchiveInterval time.Duration
	ArchiveLockFile string

	LogLevel    string
	LogJSON     bool
	AuthLogging bool
}

// CookieConfig describes the access token cookie
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   int
}

// DatabaseConfig holds the parameters for connecting to Postgres
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	UseConnString bool
	ConnString    string
}

// GoogleConfig holds the Google OAuth client
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// MailConfig selects and configures the outgoing mail transport
type MailConfig struct {
	BrevoAPIKey  string
	FromEmail    string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	PerSecond    float64
	Burst        int
}

// AdminConfig is the bootstrap admin account
type AdminConfig struct {
	Email    string
	Password string
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("READ_TIMEOUT", 10*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("IDLE_TIMEOUT", time.Minute)
	v.SetDefault("ALLOW_ORIGIN", "http://localhost:5173")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("ACCESS_TOKEN_TTL", 7*24*time.Hour)

	v.SetDefault("COOKIE_NAME", "access_token")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_HTTPONLY", true)
	v.SetDefault("COOKIE_SAMESITE", "lax")
	v.SetDefault("COOKIE_MAX_AGE", 604800)

	v.SetDefault("USE_CONNECTION_STR", false)
	v.SetDefault("DB_PORT", "5432")

	v.SetDefault("MAIL_FROM_NAME", "I-Intern")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_PER_SECOND", 5.0)
	v.SetDefault("MAIL_BURST", 10)

	v.SetDefault("RATE_LIMIT", 10)
	v.SetDefault("BYPASS_VERIFICATION", false)
	v.SetDefault("EMAIL_OTP_TTL", 10*time.Minute)
	v.SetDefault("RESET_OTP_TTL", 15*time.Minute)
	v.SetDefault("ARCHIVE_INTERVAL", 24*time.Hour)
	v.SetDefault("ARCHIVE_LOCK_FILE", "/tmp/i-intern-archive.lock")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOGGING", false)
}

// Load reads the configuration from the environment and the .env file
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	sameSite, err := parseSameSite(v.GetString("COOKIE_SAMESITE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:          v.GetString("APP_ENV"),
		Port:         v.GetInt("PORT"),
		ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("IDLE_TIMEOUT"),
		AllowOrigins: splitList(v.GetString("ALLOW_ORIGIN")),
		FrontendURL:  strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),

		SecretKey:      v.GetString("SECRET_KEY"),
		AccessTokenTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
		Cookie: CookieConfig{
			Name:     v.GetString("COOKIE_NAME"),
			Domain:   v.GetString("COOKIE_DOMAIN"),
			Secure:   v.GetBool("COOKIE_SECURE"),
			HTTPOnly: v.GetBool("COOKIE_HTTPONLY"),
			SameSite: sameSite,
			MaxAge:   v.GetInt("COOKIE_MAX_AGE"),
		},

		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USERNAME"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_DATABASE"),
			UseConnString: v.GetBool("USE_CONNECTION_STR"),
			ConnString:    v.GetString("DB_CONNECTION_STR"),
		},
		RedisURL: v.GetString("REDIS_URL"),

		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("OAUTH_REDIRECT_URL"),
		},
		Mail: MailConfig{
			BrevoAPIKey:  v.GetString("BREVO_API_KEY"),
			FromEmail:    v.GetString("MAIL_FROM"),
			FromName:     v.GetString("MAIL_FROM_NAME"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
			PerSecond:    v.GetFloat64("MAIL_PER_SECOND"),
			Burst:        v.GetInt("MAIL_BURST"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},

		StorageBucket:      v.GetString("GCS_BUCKET"),
		RateLimitPerSecond: v.GetInt("RATE_LIMIT"),
		BypassVerification: v.GetBool("BYPASS_VERIFICATION"),
		EmailOTPTTL:        v.GetDuration("EMAIL_OTP_TTL"),
		ResetOTPTTL:        v.GetDuration("RESET_OTP_TTL"),
		ArchiveInterval:    v.GetDuration("ARCHIVE_INTERVAL"),
		ArchiveLockFile:    v.GetString("ARCHIVE_LOCK_FILE"),

		LogLevel:    v.GetString("LOG_LEVEL"),
		LogJSON:     v.GetBool("LOG_JSON"),
		AuthLogging: v.GetBool("LOGGING"),
	}

	if cfg.Mail.FromEmail == "" {
		cfg.Mail.FromEmail = cfg.Mail.SMTPUsername
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.Port <= 0 {
		errs = append(errs, fmt.Errorf("PORT must be positive, got %d", c.Port))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}
	return errors.Join(errs...)
}

func parseSameSite(raw string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAMESITE must be lax, strict or none, got %q", raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
