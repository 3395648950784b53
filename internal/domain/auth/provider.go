package auth

import (
	"time"

	"github.com/idnremote/idnremote-go/internal/domain/model"
)

// UserMetadata is the free-form profile data the provider collected from the social login.
type UserMetadata struct {
	FullName  string `json:"full_name"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ProviderUser is the identity provider's own user record. Timestamps are ISO-8601.
type ProviderUser struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at,omitempty"`
	Metadata  UserMetadata `json:"user_metadata"`
}

// ProviderSession is what the identity provider hands back after sign-in.
type ProviderSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    *int64       `json:"expires_at,omitempty"`
	TokenType    string       `json:"token_type"`
	User         ProviderUser `json:"user"`
}

// ToSession maps the provider shape into the local Session with its embedded User.
// The embedded user has no preference tags or current job; UpdatedAt falls back to CreatedAt.
func (ps ProviderSession) ToSession() model.Session {
	created := isoToUnix(ps.User.CreatedAt)
	updated := created
	if ps.User.UpdatedAt != "" {
		updated = isoToUnix(ps.User.UpdatedAt)
	}

	var expiresAt *int64
	if ps.ExpiresAt != nil {
		v := *ps.ExpiresAt
		expiresAt = &v
	}

	return model.Session{
		AccessToken:  ps.AccessToken,
		RefreshToken: ps.RefreshToken,
		ExpiresIn:    ps.ExpiresIn,
		ExpiresAt:    expiresAt,
		TokenType:    ps.TokenType,
		User: model.User{
			ID:              ps.User.ID,
			Email:           ps.User.Email,
			Fullname:        ps.User.Metadata.FullName,
			Nickname:        ps.User.Metadata.Name,
			WhatsappNumber:  ps.User.Phone,
			ProfilePicture:  ps.User.Metadata.AvatarURL,
			PreferencesTags: []string{},
			CurrentJob:      "",
			CreatedAt:       created,
			UpdatedAt:       updated,
		},
	}
}

// isoToUnix converts an ISO-8601 timestamp to Unix seconds; unparsable input yields 0.
func isoToUnix(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
