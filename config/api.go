package config

import (
	"strings"
	"time"
)

// DefaultAPIBaseURL is the production job-listing backend.
const DefaultAPIBaseURL = "https://uxqjo9vhoa.execute-api.ap-southeast-1.amazonaws.com"

// APIConfig describes the job-listing backend.
type APIConfig struct {
	BaseURL string `env:"API_BASE_URL" envDefault:"https://uxqjo9vhoa.execute-api.ap-southeast-1.amazonaws.com"`

	// CacheTTL is how long listing, job and tag reads are memoized.
	CacheTTL time.Duration `env:"API_CACHE_TTL" envDefault:"2m"`

	// Timeout bounds each backend request. Zero means no client-side timeout.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"0"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultAPIBaseURL
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 2 * time.Minute
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
}
