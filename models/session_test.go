package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail  = "powerxdeveloper@gmail.com"
	testAdminHandle = "powerxtream"
)

func TestResolveSession(t *testing.T) {
	cases := []struct {
		name   string
		manual bool
		id     *ProviderIdentity
		want   Session
	}{
		{
			name: "anonymous",
			want: Session{},
		},
		{
			name:   "manual only",
			manual: true,
			want:   Session{Authenticated: true, Username: testAdminHandle, Role: RoleAdmin},
		},
		{
			name: "regular provider user",
			id:   &ProviderIdentity{Email: "someone@example.com", DisplayName: "Someone"},
			want: Session{Authenticated: true, Username: "Someone", Role: RoleUser},
		},
		{
			name: "provider user with admin email",
			id:   &ProviderIdentity{Email: testAdminEmail, DisplayName: "Dev"},
			want: Session{Authenticated: true, Username: "Dev", Role: RoleAdmin},
		},
		{
			name:   "manual flag upgrades provider user",
			manual: true,
			id:     &ProviderIdentity{Email: "someone@example.com", DisplayName: "Someone"},
			want:   Session{Authenticated: true, Username: "Someone", Role: RoleAdmin},
		},
		{
			name: "username falls back to email",
			id:   &ProviderIdentity{Email: "someone@example.com"},
			want: Session{Authenticated: true, Username: "someone@example.com", Role: RoleUser},
		},
		{
			name: "username falls back to placeholder",
			id:   &ProviderIdentity{},
			want: Session{Authenticated: true, Username: "User", Role: RoleUser},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSession(tc.manual, tc.id, testAdminEmail, testAdminHandle)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveSessionIdempotent(t *testing.T) {
	id := &ProviderIdentity{Email: "a@b.c", DisplayName: "A"}
	first := ResolveSession(true, id, testAdminEmail, testAdminHandle)
	second := ResolveSession(true, id, testAdminEmail, testAdminHandle)
	assert.Equal(t, first, second)
}

func TestSessionTrackerLoading(t *testing.T) {
	tr := NewSessionTracker(testAdminEmail, testAdminHandle)
	assert.True(t, tr.Loading())
	assert.Equal(t, Session{}, tr.Current())

	tr.ObserveProvider(nil)
	assert.False(t, tr.Loading())
	assert.Equal(t, Session{}, tr.Current())
}

func TestSessionTrackerManualSurvivesNilProvider(t *testing.T) {
	tr := NewSessionTracker(testAdminEmail, testAdminHandle)
	tr.SetManual(true)
	tr.ObserveProvider(nil)

	got := tr.Current()
	assert.True(t, got.Authenticated)
	assert.Equal(t, testAdminHandle, got.Username)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestSessionTrackerLastWriterWins(t *testing.T) {
	tr := NewSessionTracker(testAdminEmail, testAdminHandle)
	tr.ObserveProvider(&ProviderIdentity{Email: "a@b.c", DisplayName: "First"})
	tr.ObserveProvider(&ProviderIdentity{Email: "a@b.c", DisplayName: "Second"})
	assert.Equal(t, "Second", tr.Current().Username)
}

func TestSessionTrackerLogoutClearsBothSources(t *testing.T) {
	tr := NewSessionTracker(testAdminEmail, testAdminHandle)
	tr.SetManual(true)
	tr.ObserveProvider(&ProviderIdentity{Email: "a@b.c", DisplayName: "A"})
	require.True(t, tr.Current().Authenticated)

	tr.Logout()
	assert.Equal(t, Session{}, tr.Current())
}

func TestSessionTrackerSubscribe(t *testing.T) {
	tr := NewSessionTracker(testAdminEmail, testAdminHandle)

	var events []Session
	cancel := tr.Subscribe(func(s Session) { events = append(events, s) })

	tr.ObserveProvider(&ProviderIdentity{Email: "a@b.c", DisplayName: "A"})
	require.Len(t, events, 1)

	// Identical observation resolves to the same state and must not re-fire.
	tr.ObserveProvider(&ProviderIdentity{Email: "a@b.c", DisplayName: "A"})
	assert.Len(t, events, 1)

	tr.Logout()
	require.Len(t, events, 2)
	assert.Equal(t, Session{}, events[1])

	cancel()
	tr.SetManual(true)
	assert.Len(t, events, 2)
}
