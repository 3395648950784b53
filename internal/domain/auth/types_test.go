package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idnremote/idnremote-go/internal/domain/model"
)

func TestProcessState_Phase(t *testing.T) {
	sess := &model.Session{AccessToken: "tok"}
	user := &model.User{ID: "u1"}

	tests := []struct {
		name  string
		state ProcessState
		want  Phase
	}{
		{name: "boot", state: ProcessState{}, want: PhaseUninitialized},
		{name: "loading", state: ProcessState{Loading: true, Session: sess}, want: PhaseLoading},
		{name: "authenticated", state: ProcessState{Initialized: true, Session: sess, User: user}, want: PhaseAuthenticated},
		{name: "degraded", state: ProcessState{Initialized: true, Session: sess}, want: PhaseDegraded},
		{name: "anonymous", state: ProcessState{Initialized: true}, want: PhaseAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Phase())
		})
	}
}

func TestCurrentUser_FallsBackToSessionUser(t *testing.T) {
	sess := &model.Session{AccessToken: "tok", User: model.User{ID: "sub-1", Fullname: "From Provider"}}

	s := ProcessState{Session: sess}
	got := CurrentUser(s)
	require.NotNil(t, got)
	assert.Equal(t, "From Provider", got.Fullname)
	assert.True(t, IsLoggedIn(s))

	got.Fullname = "mutated"
	assert.Equal(t, "From Provider", sess.User.Fullname, "fallback must not alias session user")

	profile := &model.User{ID: "sub-1", Fullname: "From Backend"}
	s.User = profile
	assert.Same(t, profile, CurrentUser(s))
}

func TestCurrentUser_Anonymous(t *testing.T) {
	s := ProcessState{Initialized: true}
	assert.Nil(t, CurrentUser(s))
	assert.False(t, IsLoggedIn(s))
	assert.True(t, NeedsProfileCompletion(s))
	assert.Empty(t, AccessToken(s))
}

func TestNeedsProfileCompletion(t *testing.T) {
	incomplete := ProcessState{User: &model.User{ID: "1", Fullname: "", Nickname: "x", WhatsappNumber: "x"}}
	complete := ProcessState{User: &model.User{ID: "1", Fullname: "A", Nickname: "B", WhatsappNumber: "+62811"}}

	assert.True(t, NeedsProfileCompletion(incomplete))
	assert.False(t, NeedsProfileCompletion(complete))
}

func TestNeedsProfileCompletion_DegradedUsesFallback(t *testing.T) {
	s := ProcessState{
		Initialized: true,
		Session: &model.Session{
			AccessToken: "tok",
			User:        model.User{ID: "sub", Fullname: "Ani", Nickname: "ani"},
		},
	}
	assert.Equal(t, PhaseDegraded, s.Phase())
	assert.True(t, IsLoggedIn(s))
	assert.True(t, NeedsProfileCompletion(s), "provider user has no whatsapp number")
	assert.Equal(t, "tok", AccessToken(s))
}

func TestDerive(t *testing.T) {
	s := ProcessState{Loading: true}
	assert.Equal(t, Facts{Loading: true, IsLoggedIn: false, NeedsProfileCompletion: true}, Derive(s))
}
