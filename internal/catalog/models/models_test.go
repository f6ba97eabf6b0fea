package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestNewBook(t *testing.T) {
	t.Run("valid book starts available", func(t *testing.T) {
		b, err := NewBook(id.NewBookID(), "Rayuela", "Cortázar", "9788437604572", now)
		require.NoError(t, err)
		assert.Equal(t, BookStatusAvailable, b.Status)
		assert.Equal(t, now, b.CreatedAt)
	})

	cases := map[string]struct{ title, author, isbn string }{
		"missing title":  {"", "a", "9788437604572"},
		"missing author": {"t", "", "9788437604572"},
		"short isbn":     {"t", "a", "978843760457"},
		"isbn letters":   {"t", "a", "978843760457X"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewBook(id.NewBookID(), tc.title, tc.author, tc.isbn, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestBook_LendAndReturn(t *testing.T) {
	b, err := NewBook(id.NewBookID(), "Ficciones", "Borges", "9789875666511", now)
	require.NoError(t, err)

	require.NoError(t, b.CanLend())
	b.ApplyLoaned(now.Add(time.Hour))
	assert.Equal(t, BookStatusLoaned, b.Status)
	assert.True(t, dErrors.HasCode(b.CanLend(), dErrors.CodeUnavailable))

	b.ApplyReturned(now.Add(2 * time.Hour))
	assert.True(t, b.IsAvailable())
}

func TestBook_ApplyDetailsKeepsStatus(t *testing.T) {
	b, err := NewBook(id.NewBookID(), "Ficciones", "Borges", "9789875666511", now)
	require.NoError(t, err)
	b.ApplyLoaned(now)

	require.NoError(t, b.ApplyDetails("Ficciones (2da ed.)", "Borges", "9789875666512", now))
	assert.Equal(t, BookStatusLoaned, b.Status)
	assert.Equal(t, "9789875666512", b.ISBN)
}

func TestMember_Fines(t *testing.T) {
	m, err := NewMember(id.NewMemberID(), "Ana Pérez", "30123456", "SOC001", "ana@example.com", now)
	require.NoError(t, err)
	require.NoError(t, m.CanBorrow())

	m.ApplyFine(130, now)
	assert.Equal(t, int64(130), m.PendingFines)
	assert.True(t, dErrors.HasCode(m.CanBorrow(), dErrors.CodeIneligibleMember))

	assert.True(t, dErrors.HasCode(m.CanPay(0), dErrors.CodeInvalidAmount))
	assert.True(t, dErrors.HasCode(m.CanPay(131), dErrors.CodeInvalidAmount))

	require.NoError(t, m.CanPay(130))
	m.ApplyPayment(130, now)
	assert.Zero(t, m.PendingFines)
	require.NoError(t, m.CanBorrow())
}

func TestNewMember_Validation(t *testing.T) {
	cases := map[string]struct{ name, dni, number, email string }{
		"missing name":    {"", "30123456", "SOC001", "a@b.co"},
		"short dni":       {"Ana", "123456", "SOC001", "a@b.co"},
		"long dni":        {"Ana", "123456789", "SOC001", "a@b.co"},
		"bad number":      {"Ana", "30123456", "SOC1", "a@b.co"},
		"email no domain": {"Ana", "30123456", "SOC001", "ana@"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMember(id.NewMemberID(), tc.name, tc.dni, tc.number, tc.email, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}
