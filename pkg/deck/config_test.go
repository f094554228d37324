package deck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "classic", config.Style)
	assert.Equal(t, "presentation", config.FileName)
	assert.True(t, config.Thumbnail)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 4, config.FetchConcurrency)
	assert.Equal(t, int64(10<<20), config.MaxImageBytes)
	assert.Equal(t, 0, config.CacheMaxSize)
	assert.False(t, config.S3.Enabled)
	assert.NoError(t, config.Validate())
}

func TestConfigFromEnvironment_Defaults(t *testing.T) {
	config, err := ConfigFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config, "struct tags and DefaultConfig must agree")
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name:    "log level",
			envVars: map[string]string{"DECK_LOG_LEVEL": "debug"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "debug", config.LogLevel)
			},
		},
		{
			name: "fetch settings",
			envVars: map[string]string{
				"DECK_FETCH_TIMEOUT":     "2500ms",
				"DECK_FETCH_CONCURRENCY": "16",
				"DECK_MAX_IMAGE_BYTES":   "2048",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 2500*time.Millisecond, config.FetchTimeout)
				assert.Equal(t, 16, config.FetchConcurrency)
				assert.Equal(t, int64(2048), config.MaxImageBytes)
			},
		},
		{
			name: "cache",
			envVars: map[string]string{
				"DECK_CACHE_MAX_SIZE": "50",
				"DECK_CACHE_TTL":      "5m",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 50, config.CacheMaxSize)
				assert.Equal(t, 5*time.Minute, config.CacheTTL)
			},
		},
		{
			name: "presentation defaults",
			envVars: map[string]string{
				"DECK_STYLE":     "widescreen",
				"DECK_FILE_NAME": "report",
				"DECK_THUMBNAIL": "false",
				"DECK_CREATOR":   "reports-service",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "widescreen", config.Style)
				assert.Equal(t, "report", config.FileName)
				assert.False(t, config.Thumbnail)
				assert.Equal(t, "reports-service", config.Creator)
			},
		},
		{
			name: "s3",
			envVars: map[string]string{
				"DECK_S3_ENABLED":    "true",
				"DECK_S3_REGION":     "eu-central-1",
				"DECK_S3_ENDPOINT":   "http://localhost:9000",
				"DECK_S3_PATH_STYLE": "true",
			},
			check: func(t *testing.T, config *Config) {
				assert.True(t, config.S3.Enabled)
				assert.Equal(t, "eu-central-1", config.S3.Region)
				assert.Equal(t, "http://localhost:9000", config.S3.Endpoint)
				assert.True(t, config.S3.UsePathStyle)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			config, err := ConfigFromEnvironment()
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestConfigFromEnvironment_Invalid(t *testing.T) {
	t.Setenv("DECK_FETCH_CONCURRENCY", "many")
	_, err := ConfigFromEnvironment()
	assert.Error(t, err)
}

func TestNewConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), NewConfigWithDefaults(nil))

	config := NewConfigWithDefaults(&Config{Style: "dark", CacheMaxSize: 10})
	assert.Equal(t, "dark", config.Style)
	assert.Equal(t, 10, config.CacheMaxSize)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 4, config.FetchConcurrency)
	assert.Equal(t, "presentation", config.FileName)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{"valid", func(*Config) {}, nil},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, []string{"LogLevel"}},
		{"style", func(c *Config) { c.Style = "sepia" }, []string{"Style"}},
		{"file name", func(c *Config) { c.FileName = "a/b" }, []string{"FileName"}},
		{"fetch", func(c *Config) {
			c.FetchTimeout = 0
			c.FetchConcurrency = -1
		}, []string{"FetchTimeout", "FetchConcurrency"}},
		{"cache", func(c *Config) {
			c.CacheMaxSize = -1
			c.CacheTTL = -time.Second
		}, []string{"CacheMaxSize", "CacheTTL"}},
		{"s3 credentials", func(c *Config) { c.S3.AccessKeyID = "key" }, []string{"S3.AccessKeyID"}},
		{"s3 region", func(c *Config) {
			c.S3.Enabled = true
			c.S3.Region = ""
		}, []string{"S3.Region"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var fields []string
			for _, issue := range verr.Issues {
				fields = append(fields, issue.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	t.Cleanup(func() { SetGlobalConfig(original) })

	config := DefaultConfig()
	config.LogLevel = "debug"
	config.Style = "dark"
	SetGlobalConfig(config)

	got := GetGlobalConfig()
	assert.Equal(t, "dark", got.Style)
	assert.True(t, GetLogger().IsDebugMode())

	got.Style = "classic"
	assert.Equal(t, "dark", GetGlobalConfig().Style, "GetGlobalConfig returns a copy")
}
