package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSession_ToSession(t *testing.T) {
	exp := int64(1_700_003_600)
	ps := ProviderSession{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		ExpiresAt:    &exp,
		TokenType:    "bearer",
		User: ProviderUser{
			ID:        "sub-1",
			Email:     "ani@example.com",
			CreatedAt: "2023-11-14T22:13:20Z",
			UpdatedAt: "2023-11-14T23:13:20.123456Z",
			Metadata:  UserMetadata{FullName: "Ani Wijaya", Name: "ani", AvatarURL: "https://img/ani.png"},
		},
	}

	s := ps.ToSession()

	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, "bearer", s.TokenType)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, exp, *s.ExpiresAt)
	assert.NotSame(t, ps.ExpiresAt, s.ExpiresAt)

	u := s.User
	assert.Equal(t, "sub-1", u.ID)
	assert.Equal(t, "Ani Wijaya", u.Fullname)
	assert.Equal(t, "ani", u.Nickname)
	assert.Equal(t, "https://img/ani.png", u.ProfilePicture)
	assert.Empty(t, u.WhatsappNumber)
	assert.Empty(t, u.CurrentJob)
	assert.NotNil(t, u.PreferencesTags)
	assert.Empty(t, u.PreferencesTags)
	assert.Equal(t, int64(1_700_000_000), u.CreatedAt)
	assert.Equal(t, int64(1_700_003_600), u.UpdatedAt)
}

func TestProviderSession_ToSession_UpdatedFallsBackToCreated(t *testing.T) {
	ps := ProviderSession{User: ProviderUser{ID: "x", CreatedAt: "2023-11-14T22:13:20+07:00"}}

	u := ps.ToSession().User

	assert.Equal(t, int64(1_699_974_800), u.CreatedAt)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestIsoToUnix_Invalid(t *testing.T) {
	assert.Zero(t, isoToUnix("yesterday"))
	assert.Zero(t, isoToUnix(""))
}
