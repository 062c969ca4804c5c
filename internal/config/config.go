// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort               = 8080
	defaultShutdownSeconds    = 30
	defaultMaxUploadBytes     = 10 << 20
	defaultAPITimeout         = 10
	defaultFetchTimeout       = 20
	defaultRequestDelayMs     = 1000
	defaultBreakerFailures    = 5
	defaultBreakerOpenSecs    = 30
	defaultUploadsPerHour     = 60
	defaultRenderWaitMs       = 4000
	defaultRefreshCron        = "0 */6 * * *"
	defaultPriceSelector      = ".price"
	defaultCurrency           = "BWP"
	defaultSearchURL          = "https://www.booking.com/searchresults.html?ss=%s&dest_id=-1390980&dest_type=city"
	defaultHotelName          = "Phakalane Golf Estate Hotel"
	defaultHotelInitials      = "PH"
	defaultPricingDescription = "Current rates for hotels in Gaborone"
)

// DefaultCompetitors is the competitor set tracked when the config lists none.
var DefaultCompetitors = []string{
	"Grand Palm Hotel",
	"Avani Gaborone Resort & Casino",
	"Cresta Lodge Gaborone",
	"Masa Square Hotel",
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// APIConfig configures the REST client the dashboard view uses to reach the backend.
type APIConfig struct {
	BaseURL               string `yaml:"base_url"`
	TimeoutSeconds        int    `yaml:"timeout_seconds"`
	BreakerFailures       uint32 `yaml:"breaker_failures"`
	BreakerOpenSeconds    int    `yaml:"breaker_open_seconds"`
	BreakerHalfOpenProbes uint32 `yaml:"breaker_half_open_probes"`
}

// Pricing page renderers.
const (
	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

type PricingConfig struct {
	Competitors         []string `yaml:"competitors"`
	SearchURL           string   `yaml:"search_url"`
	PriceSelector       string   `yaml:"price_selector"`
	DefaultCurrency     string   `yaml:"default_currency"`
	RefreshCron         string   `yaml:"refresh_cron"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
	RequestDelayMillis  int      `yaml:"request_delay_ms"`
	UserAgent           string   `yaml:"user_agent"`
	Renderer            string   `yaml:"renderer"`
	RenderWaitMillis    int      `yaml:"render_wait_ms"`
	Description         string   `yaml:"description"`
	Disabled            bool     `yaml:"disabled"`
}

type OccupancyConfig struct {
	SeedFile string `yaml:"seed_file"`
}

// RateLimitConfig caps dashboard uploads per client IP. A negative
// uploads_per_hour disables the limit.
type RateLimitConfig struct {
	UploadsPerHour int  `yaml:"uploads_per_hour"`
	TrustProxy     bool `yaml:"trust_proxy"`
}

type ThemeConfig struct {
	PrimaryColor string `yaml:"primary_color"`
	AccentColor  string `yaml:"accent_color"`
	ChartColor   string `yaml:"chart_color"`
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		BaseURL                string `yaml:"base_url"`
		HotelName              string `yaml:"hotel_name"`
		HotelInitials          string `yaml:"hotel_initials"`
		StaticDir              string `yaml:"static_dir"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
		MaxUploadBytes         int64  `yaml:"max_upload_bytes"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Occupancy OccupancyConfig `yaml:"occupancy"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Theme     ThemeConfig     `yaml:"theme"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML config and fills in defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	if c.App.HotelName == "" {
		c.App.HotelName = defaultHotelName
	}
	if c.App.HotelInitials == "" {
		c.App.HotelInitials = defaultHotelInitials
	}
	if c.App.StaticDir == "" {
		c.App.StaticDir = "build/bin/static"
	}
	if c.App.ShutdownTimeoutSeconds == 0 {
		c.App.ShutdownTimeoutSeconds = defaultShutdownSeconds
	}
	if c.App.MaxUploadBytes == 0 {
		c.App.MaxUploadBytes = defaultMaxUploadBytes
	}

	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = defaultAPITimeout
	}
	if c.API.BreakerFailures == 0 {
		c.API.BreakerFailures = defaultBreakerFailures
	}
	if c.API.BreakerOpenSeconds == 0 {
		c.API.BreakerOpenSeconds = defaultBreakerOpenSecs
	}
	if c.API.BreakerHalfOpenProbes == 0 {
		c.API.BreakerHalfOpenProbes = 1
	}

	if c.RateLimit.UploadsPerHour == 0 {
		c.RateLimit.UploadsPerHour = defaultUploadsPerHour
	}

	if len(c.Pricing.Competitors) == 0 {
		c.Pricing.Competitors = append([]string(nil), DefaultCompetitors...)
	}
	if c.Pricing.SearchURL == "" {
		c.Pricing.SearchURL = defaultSearchURL
	}
	if c.Pricing.PriceSelector == "" {
		c.Pricing.PriceSelector = defaultPriceSelector
	}
	if c.Pricing.DefaultCurrency == "" {
		c.Pricing.DefaultCurrency = defaultCurrency
	}
	if c.Pricing.RefreshCron == "" {
		c.Pricing.RefreshCron = defaultRefreshCron
	}
	if c.Pricing.FetchTimeoutSeconds == 0 {
		c.Pricing.FetchTimeoutSeconds = defaultFetchTimeout
	}
	if c.Pricing.RequestDelayMillis == 0 {
		c.Pricing.RequestDelayMillis = defaultRequestDelayMs
	}
	if c.Pricing.Renderer == "" {
		c.Pricing.Renderer = RendererHTTP
	}
	if c.Pricing.RenderWaitMillis == 0 {
		c.Pricing.RenderWaitMillis = defaultRenderWaitMs
	}
	if c.Pricing.Description == "" {
		c.Pricing.Description = defaultPricingDescription
	}
}

// applyEnv lets the environment override values that differ per deployment.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.App.Port = p
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		c.App.Environment = env
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		c.App.StaticDir = dir
	}
	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535")
	}
	if c.App.MaxUploadBytes < 0 {
		return fmt.Errorf("app max_upload_bytes must not be negative")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api timeout_seconds must not be negative")
	}

	if !c.Pricing.Disabled {
		if _, err := cron.ParseStandard(c.Pricing.RefreshCron); err != nil {
			return fmt.Errorf("pricing refresh_cron is invalid: %w", err)
		}
		if !strings.Contains(c.Pricing.SearchURL, "%s") {
			return fmt.Errorf("pricing search_url must contain a %%s placeholder for the hotel name")
		}
		switch c.Pricing.Renderer {
		case RendererHTTP, RendererBrowser:
		default:
			return fmt.Errorf("pricing renderer must be %q or %q, got %q", RendererHTTP, RendererBrowser, c.Pricing.Renderer)
		}
	}

	return nil
}

// PricingFetchTimeout bounds a single competitor page request.
func (c *Config) PricingFetchTimeout() time.Duration {
	return time.Duration(c.Pricing.FetchTimeoutSeconds) * time.Second
}

// PricingRequestDelay is the pause between competitor page requests. A
// negative value disables it.
func (c *Config) PricingRequestDelay() time.Duration {
	if c.Pricing.RequestDelayMillis < 0 {
		return 0
	}
	return time.Duration(c.Pricing.RequestDelayMillis) * time.Millisecond
}

// PricingRenderWait is how long the browser renderer lets a page run its
// scripts before reading it.
func (c *Config) PricingRenderWait() time.Duration {
	return time.Duration(c.Pricing.RenderWaitMillis) * time.Millisecond
}

// PricingRefreshTimeout bounds one full refresh: every competitor request
// plus the pauses between them.
func (c *Config) PricingRefreshTimeout() time.Duration {
	n := time.Duration(len(c.Pricing.Competitors))
	perHotel := c.PricingFetchTimeout() + c.PricingRequestDelay()
	if c.Pricing.Renderer == RendererBrowser {
		perHotel += c.PricingRenderWait()
	}
	return n*perHotel + time.Minute
}

// APITimeout bounds a single REST client request.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// BreakerOpenFor is how long the REST client's circuit breaker stays open.
func (c *Config) BreakerOpenFor() time.Duration {
	return time.Duration(c.API.BreakerOpenSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
}

// APIBaseURL returns the base URL of the REST backend, defaulting to this server.
func (c *Config) APIBaseURL() string {
	if c.API.BaseURL != "" {
		return strings.TrimRight(c.API.BaseURL, "/")
	}
	return fmt.Sprintf("http://127.0.0.1:%d", c.App.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
