package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_LoginVerify(t *testing.T) {
	svc := New("test-secret", time.Hour, testLogger())

	t.Run("Should round-trip a session token", func(t *testing.T) {
		user, token, err := svc.Login("Someone@Example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.Equal(t, "someone@example.com", user.Email)

		verified, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, user, verified)
	})

	t.Run("Should derive the same owner id for the same email", func(t *testing.T) {
		first, _, err := svc.Login("someone@example.com")
		require.NoError(t, err)
		second, _, err := svc.Login("SOMEONE@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("Should reject an address without an at sign", func(t *testing.T) {
		_, _, err := svc.Login("not-an-email")
		require.Error(t, err)
	})

	t.Run("Should reject a tampered token", func(t *testing.T) {
		_, token, err := svc.Login("someone@example.com")
		require.NoError(t, err)

		_, err = svc.Verify(token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		other := New("other-secret", time.Hour, testLogger())
		_, token, err := other.Login("someone@example.com")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestService_Subscribe(t *testing.T) {
	t.Run("Should deliver sign-in and sign-out events until unsubscribed", func(t *testing.T) {
		svc := New("test-secret", time.Hour, testLogger())

		var events []Event
		unsubscribe := svc.Subscribe(func(ev Event) {
			events = append(events, ev)
		})

		user, _, err := svc.Login("someone@example.com")
		require.NoError(t, err)
		svc.Logout(user)

		require.Len(t, events, 2)
		assert.True(t, events[0].SignedIn)
		assert.Equal(t, user, events[0].User)
		assert.False(t, events[1].SignedIn)

		unsubscribe()
		_, _, err = svc.Login("someone@example.com")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}
