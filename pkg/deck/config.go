package deck

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/benjaminschreck/go-deck/pkg/deck/fetch"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

// Config contains all configuration options for the deck engine.
// Every field can be set from a DECK_* environment variable.
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `env:"DECK_LOG_LEVEL" env-default:"info"`
	// Style is the default style preset when a request names none.
	Style string `env:"DECK_STYLE" env-default:"classic"`
	// FileName is the default attachment name, without extension.
	FileName string `env:"DECK_FILE_NAME" env-default:"presentation"`
	// Creator is written to the core properties.
	Creator string `env:"DECK_CREATOR" env-default:"go-deck"`
	// Thumbnail embeds docProps/thumbnail.jpeg.
	Thumbnail bool `env:"DECK_THUMBNAIL" env-default:"true"`
	// MaxUnits caps the number of content units in one request.
	MaxUnits int `env:"DECK_MAX_UNITS" env-default:"500"`

	// FetchTimeout bounds each image fetch.
	FetchTimeout time.Duration `env:"DECK_FETCH_TIMEOUT" env-default:"10s"`
	// FetchConcurrency is the number of images fetched in parallel.
	FetchConcurrency int `env:"DECK_FETCH_CONCURRENCY" env-default:"4"`
	// MaxImageBytes caps a single fetched image.
	MaxImageBytes int64 `env:"DECK_MAX_IMAGE_BYTES" env-default:"10485760"`
	// CacheMaxSize is the maximum number of fetched images to cache. 0 disables caching.
	CacheMaxSize int `env:"DECK_CACHE_MAX_SIZE" env-default:"0"`
	// CacheTTL is the time-to-live for cached images. 0 means no expiration.
	CacheTTL time.Duration `env:"DECK_CACHE_TTL" env-default:"0s"`
	// MediaRoot enables file:// and bare-path locators below this directory.
	MediaRoot string `env:"DECK_MEDIA_ROOT"`

	S3 S3Config
}

// S3Config enables s3://bucket/key locators.
type S3Config struct {
	Enabled         bool   `env:"DECK_S3_ENABLED" env-default:"false"`
	Region          string `env:"DECK_S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"DECK_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"DECK_S3_PATH_STYLE" env-default:"false"`
	AccessKeyID     string `env:"DECK_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"DECK_S3_SECRET_ACCESS_KEY"`
}

func (c S3Config) fetchConfig() fetch.S3Config {
	return fetch.S3Config{
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		UsePathStyle:    c.UsePathStyle,
	}
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func loadGlobalConfig() {
	configOnce.Do(func() {
		config, err := ConfigFromEnvironment()
		if err != nil {
			config = DefaultConfig()
		}
		globalConfigMutex.Lock()
		if globalConfig == nil {
			globalConfig = config
		}
		globalConfigMutex.Unlock()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		Style:            "classic",
		FileName:         "presentation",
		Creator:          pml.Application,
		Thumbnail:        true,
		MaxUnits:         500,
		FetchTimeout:     10 * time.Second,
		FetchConcurrency: 4,
		MaxImageBytes:    fetch.DefaultMaxBytes,
		CacheMaxSize:     0,
		CacheTTL:         0,
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// ConfigFromEnvironment creates a configuration from DECK_* environment
// variables, with defaults for every unset one.
func ConfigFromEnvironment() (*Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.Style == "" {
		config.Style = defaults.Style
	}
	if config.FileName == "" {
		config.FileName = defaults.FileName
	}
	if config.Creator == "" {
		config.Creator = defaults.Creator
	}
	if config.MaxUnits == 0 {
		config.MaxUnits = defaults.MaxUnits
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = defaults.FetchTimeout
	}
	if config.FetchConcurrency == 0 {
		config.FetchConcurrency = defaults.FetchConcurrency
	}
	if config.MaxImageBytes == 0 {
		config.MaxImageBytes = defaults.MaxImageBytes
	}
	if config.S3.Region == "" {
		config.S3.Region = defaults.S3.Region
	}

	return &config
}

// Validate checks if the configuration is valid. All problems are reported
// together as a *ValidationError.
func (c *Config) Validate() error {
	verr := &ValidationError{}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		verr.add("LogLevel", "invalid log level: %s", c.LogLevel)
	}

	if _, ok := pml.StyleByName(c.Style); !ok {
		verr.add("Style", "unknown style %q (available: %v)", c.Style, pml.StyleNames())
	}

	if msg := checkFileName(c.FileName); msg != "" {
		verr.add("FileName", "%s", msg)
	}

	if c.MaxUnits <= 0 {
		verr.add("MaxUnits", "max units must be positive")
	}
	if c.FetchTimeout <= 0 {
		verr.add("FetchTimeout", "fetch timeout must be positive")
	}
	if c.FetchConcurrency <= 0 {
		verr.add("FetchConcurrency", "fetch concurrency must be positive")
	}
	if c.MaxImageBytes <= 0 {
		verr.add("MaxImageBytes", "max image bytes must be positive")
	}
	if c.CacheMaxSize < 0 {
		verr.add("CacheMaxSize", "cache max size cannot be negative")
	}
	if c.CacheTTL < 0 {
		verr.add("CacheTTL", "cache TTL cannot be negative")
	}
	if c.S3.Enabled && c.S3.Region == "" {
		verr.add("S3.Region", "region is required when S3 is enabled")
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		verr.add("S3.AccessKeyID", "access key id and secret must be set together")
	}

	return verr.err()
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	loadGlobalConfig()

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	loadGlobalConfig()

	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}
