package model

import (
	"strings"

	apperrors "github.com/idnremote/idnremote-go/internal/errors"
)

// User is a profile record. Timestamps are Unix seconds.
type User struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	Fullname        string   `json:"fullname"`
	Nickname        string   `json:"nickname"`
	WhatsappNumber  string   `json:"whatsapp_number"`
	CurrentJob      string   `json:"current_job"`
	ProfilePicture  string   `json:"profile_picture"`
	PreferencesTags []string `json:"preferences_tags"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

// IsProfileComplete reports whether id, fullname, nickname and whatsapp number are all set.
// CurrentJob is collected but intentionally not required.
func (u *User) IsProfileComplete() bool {
	if u == nil {
		return false
	}
	return u.ID != "" && u.Fullname != "" && u.Nickname != "" && u.WhatsappNumber != ""
}

// Session is the identity provider's token bundle plus its embedded user record.
// It is replaced wholesale, never partially updated.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

// SaveProfileInput is the body of POST /profile.
type SaveProfileInput struct {
	Fullname        string   `json:"fullname"`
	Nickname        string   `json:"nickname"`
	ProfilePicture  string   `json:"profile_picture"`
	CurrentJob      string   `json:"current_job"`
	WhatsappNumber  string   `json:"whatsapp_number"`
	PreferencesTags []string `json:"preferences_tags"`
}

// Normalize trims whitespace and guarantees a non-nil tag slice.
func (in *SaveProfileInput) Normalize() {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.ProfilePicture = strings.TrimSpace(in.ProfilePicture)
	in.CurrentJob = strings.TrimSpace(in.CurrentJob)
	in.WhatsappNumber = strings.TrimSpace(in.WhatsappNumber)
	if in.PreferencesTags == nil {
		in.PreferencesTags = []string{}
	}
}

// Validate checks the fields the completion form requires.
func (in *SaveProfileInput) Validate() error {
	switch {
	case in.Fullname == "":
		return apperrors.ValidationField("fullname", "full name is required")
	case in.Nickname == "":
		return apperrors.ValidationField("nickname", "nickname is required")
	case in.WhatsappNumber == "":
		return apperrors.ValidationField("whatsapp_number", "whatsapp number is required")
	}
	return nil
}

// ApplyTo returns a copy of base with the input's fields written over it.
func (in *SaveProfileInput) ApplyTo(base User) User {
	base.Fullname = in.Fullname
	base.Nickname = in.Nickname
	base.ProfilePicture = in.ProfilePicture
	base.CurrentJob = in.CurrentJob
	base.WhatsappNumber = in.WhatsappNumber
	base.PreferencesTags = append([]string(nil), in.PreferencesTags...)
	if base.PreferencesTags == nil {
		base.PreferencesTags = []string{}
	}
	return base
}
