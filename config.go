package osdesc

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures a Provider's outbound requests.
type Config struct {
	// Timeout bounds each HTTP request. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxBytes caps response body reads. Default: 1 MiB.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// UserAgent sent with requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// URLValidator validates URLs before any request and on every
	// redirect (SSRF prevention). Default: ValidateURL.
	// Override in tests with httptest servers on loopback addresses.
	URLValidator func(string) error `json:"-" yaml:"-"`

	// HTTPClient overrides the built-in client. When set, Timeout is not
	// applied and redirect validation is the caller's responsibility.
	HTTPClient *http.Client `json:"-" yaml:"-"`

	// Logger for debug/warn messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 1 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "osdesc/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = ValidateURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &cfg, nil
}
