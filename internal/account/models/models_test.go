package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newPending(t *testing.T) *Account {
	t.Helper()
	a, err := NewAccount(id.NewAccountID(), "ana@example.com", "Ana Gómez", "12345678", id.RoleMember, now)
	require.NoError(t, err)
	return a
}

func TestNewAccount(t *testing.T) {
	a := newPending(t)
	assert.Equal(t, AccountStatusPending, a.Status)
	assert.Empty(t, a.PasswordHash)
	assert.True(t, a.IsMember())

	cases := map[string]struct {
		email, name, dni string
		role             id.Role
	}{
		"bad email":    {"ana", "Ana", "12345678", id.RoleMember},
		"empty name":   {"ana@example.com", "  ", "12345678", id.RoleMember},
		"short dni":    {"ana@example.com", "Ana", "123456", id.RoleMember},
		"unknown role": {"ana@example.com", "Ana", "12345678", id.Role("ADMIN")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewAccount(id.NewAccountID(), tc.email, tc.name, tc.dni, tc.role, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestAccountTransitions(t *testing.T) {
	t.Run("approve then activate", func(t *testing.T) {
		a := newPending(t)
		require.NoError(t, a.CanApprove())
		a.ApplyApproved(now)
		assert.Equal(t, AccountStatusProvisional, a.Status)
		assert.True(t, dErrors.HasCode(a.CanApprove(), dErrors.CodeConflict))
		assert.True(t, dErrors.HasCode(a.CanReject(), dErrors.CodeConflict))

		require.NoError(t, a.CanActivate())
		a.Activate("hash", now)
		assert.Equal(t, AccountStatusActive, a.Status)
		assert.True(t, a.CanLogin())
		require.NotNil(t, a.LastPasswordChangeAt)
		assert.True(t, dErrors.HasCode(a.CanActivate(), dErrors.CodeConflict))
	})

	t.Run("rejected accounts cannot activate", func(t *testing.T) {
		a := newPending(t)
		require.NoError(t, a.CanReject())
		a.ApplyRejected(now)
		assert.Equal(t, AccountStatusRejected, a.Status)
		assert.False(t, a.CanLogin())
		assert.True(t, dErrors.HasCode(a.CanActivate(), dErrors.CodeConflict))
	})
}

func TestPasswordChangeWait(t *testing.T) {
	a := newPending(t)
	assert.Zero(t, a.PasswordChangeWait(5*time.Minute, now))

	a.Activate("hash", now)
	assert.Equal(t, 3*time.Minute, a.PasswordChangeWait(5*time.Minute, now.Add(2*time.Minute)))
	assert.Zero(t, a.PasswordChangeWait(5*time.Minute, now.Add(5*time.Minute)))
	assert.Zero(t, a.PasswordChangeWait(5*time.Minute, now.Add(time.Hour)))
}

func TestParseAccountStatus(t *testing.T) {
	s, err := ParseAccountStatus(" provisional ")
	require.NoError(t, err)
	assert.Equal(t, AccountStatusProvisional, s)

	_, err = ParseAccountStatus("DONE")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRegistrationTokenExpiry(t *testing.T) {
	tok := NewRegistrationToken("abc", id.NewAccountID(), 24*time.Hour, now)
	assert.False(t, tok.IsExpiredAt(now.Add(23*time.Hour)))
	assert.True(t, tok.IsExpiredAt(now.Add(24*time.Hour)))
}
