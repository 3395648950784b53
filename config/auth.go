package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL" envDefault:"https://accounts.google.com/.well-known/openid-configuration"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID          string        `env:"USER_ID"          envDefault:"dev-user"`
	Email           string        `env:"EMAIL"            envDefault:"dev@example.com"`
	FullName        string        `env:"FULL_NAME"        envDefault:"Dev User"`
	Nickname        string        `env:"NICKNAME"         envDefault:"dev"`
	Phone           string        `env:"PHONE"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// ClaimsConfig maps ID-token claims onto user fields with JMESPath expressions.
// Empty values keep the built-in mapping.
type ClaimsConfig struct {
	ID        string `env:"ID"`
	Email     string `env:"EMAIL"`
	Phone     string `env:"PHONE"`
	FullName  string `env:"FULL_NAME"`
	Name      string `env:"NAME"`
	AvatarURL string `env:"AVATAR_URL"`
	CreatedAt string `env:"CREATED_AT"`
	UpdatedAt string `env:"UPDATED_AT"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Claims overrides the claim mapping (used when Mode=oauth).
	Claims ClaimsConfig `envPrefix:"AUTH_CLAIM_"`

	// SessionKey is the storage key holding the signed-in provider session.
	SessionKey string `env:"AUTH_SESSION_KEY" envDefault:"auth_session"`
}

// Sanitize applies guardrails to authentication configuration values.
func (c *AuthConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = AuthModeOAuth
	}
	c.OAuth.Scope = strings.Join(strings.Fields(c.OAuth.Scope), " ")
	if c.DevAuth.SessionDuration <= 0 {
		c.DevAuth.SessionDuration = 8 * time.Hour
	}
	if c.SessionKey = strings.TrimSpace(c.SessionKey); c.SessionKey == "" {
		c.SessionKey = "auth_session"
	}
}
