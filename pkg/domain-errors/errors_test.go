package domainerrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "book not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeUnavailable, "book is loaned"))
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("matches inner code of nested domain errors", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "bad transition")
		outer := Wrap(inner, CodeInternal, "failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeInvariantViolation))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, GetCode(errors.New("boom")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, CodeInternal, "failed to load loan")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}

func TestCooldown(t *testing.T) {
	err := Cooldown("wait before changing password again", 90*time.Second)
	assert.Equal(t, CodeCooldown, err.Code)
	assert.Equal(t, 90*time.Second, err.RetryAfter)

	clamped := Cooldown("clamped", -time.Second)
	assert.Zero(t, clamped.RetryAfter)
}
