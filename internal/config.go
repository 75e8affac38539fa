package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/localstore"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	API       APIConfig         `yaml:"api"`
	Session   SessionConfig     `yaml:"session"`
	DevServer DevServerConfig   `yaml:"devserver"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.DevServer.Validate(); err != nil {
		return fmt.Errorf("devserver: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// MetricsAddr serves /metrics for client-side commands when set.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MetricsAddr, is.DialString),
	)
}

// APIConfig describes the portfolio backend the client talks to.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`
	UserAgent string        `yaml:"user_agent"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.RateBurst, validation.Min(0)),
	)
}

// SessionConfig selects where the admin token is persisted.
type SessionConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Watch tears the session down when another process logs out.
	Watch bool `yaml:"watch"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = localstore.DriverFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(localstore.DriverFile, localstore.DriverSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// DevServerConfig configures the local REST implementation.
type DevServerConfig struct {
	HTTP        HTTPConfig    `yaml:"http"`
	Admin       AdminConfig   `yaml:"admin"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
}

// Validate validates the devserver configuration.
func (c *DevServerConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TokenTTL, validation.Min(time.Minute)),
		validation.Field(&c.MaxUploadMB, validation.Min(int64(1)), validation.Max(int64(512))),
	)
}

// Ready reports an error when the devserver cannot start with c.
func (c *DevServerConfig) Ready() error {
	return validation.Errors{
		"admin.username": validation.Validate(c.Admin.Username, validation.Required),
		"admin.password": validation.Validate(c.Admin.Password, validation.Required),
		"jwt_secret":     validation.Validate(c.JWTSecret, validation.Required, validation.Length(16, 0)),
	}.Filter()
}

// AdminConfig holds the single admin account.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   15 * time.Second,
			RateLimit: 10,
			RateBurst: 5,
			UserAgent: "folio",
		},
		Session: SessionConfig{
			Driver: localstore.DriverFile,
			Path:   "./.folio",
			Watch:  true,
		},
		DevServer: DevServerConfig{
			HTTP:        HTTPConfig{Port: 8000},
			TokenTTL:    24 * time.Hour,
			MaxUploadMB: 10,
		},
	}
}
