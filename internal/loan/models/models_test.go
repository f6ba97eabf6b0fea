package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

var start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newLoan(t *testing.T, status LoanStatus) *Loan {
	t.Helper()
	l, err := NewLoan(id.NewLoanID(), id.NewBookID(), id.NewMemberID(), "Rayuela", "9788437604572", status, 14, start)
	require.NoError(t, err)
	return l
}

func TestNewLoan(t *testing.T) {
	l := newLoan(t, LoanStatusActive)
	assert.Equal(t, start.AddDate(0, 0, 14), l.DueDate)
	assert.Nil(t, l.ReturnDate)
	assert.Zero(t, l.FineAmount)

	_, err := NewLoan(id.NewLoanID(), id.NewBookID(), id.NewMemberID(), "t", "i", LoanStatusFinished, 14, start)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewLoan(id.NewLoanID(), id.NewBookID(), id.NewMemberID(), "t", "i", LoanStatusPending, 0, start)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestLoanTransitions(t *testing.T) {
	t.Run("pending can be approved or rejected but not returned", func(t *testing.T) {
		l := newLoan(t, LoanStatusPending)
		assert.NoError(t, l.CanApprove())
		assert.NoError(t, l.CanReject())
		assert.True(t, dErrors.HasCode(l.CanReturn(), dErrors.CodeConflict))
	})

	t.Run("active can be returned but not approved", func(t *testing.T) {
		l := newLoan(t, LoanStatusActive)
		assert.True(t, dErrors.HasCode(l.CanApprove(), dErrors.CodeConflict))
		assert.True(t, dErrors.HasCode(l.CanReject(), dErrors.CodeConflict))
		require.NoError(t, l.CanReturn())

		returned := start.AddDate(0, 0, 3)
		l.ApplyReturned(30, returned)
		assert.Equal(t, LoanStatusFinished, l.Status)
		require.NotNil(t, l.ReturnDate)
		assert.Equal(t, returned, *l.ReturnDate)
		assert.Equal(t, int64(30), l.FineAmount)
		assert.True(t, dErrors.HasCode(l.CanReturn(), dErrors.CodeConflict))
	})

	t.Run("overdue marking only applies to past due active loans", func(t *testing.T) {
		l := newLoan(t, LoanStatusActive)
		assert.False(t, l.IsOverdueAt(l.DueDate))
		assert.True(t, l.IsOverdueAt(l.DueDate.Add(time.Second)))

		l.ApplyOverdue()
		assert.False(t, l.IsOverdueAt(l.DueDate.AddDate(0, 0, 5)))
		assert.NoError(t, l.CanReturn())
	})
}

func TestComputeFine(t *testing.T) {
	policy := DefaultFinePolicy()
	due := start.AddDate(0, 0, 14)

	tests := []struct {
		name     string
		returned time.Time
		damaged  bool
		want     int64
	}{
		{"on time", due, false, 0},
		{"early and damaged", due.AddDate(0, 0, -2), true, 100},
		{"three days late", due.AddDate(0, 0, 3), false, 30},
		{"three days late and damaged", due.AddDate(0, 0, 3), true, 130},
		{"partial day does not count", due.Add(23 * time.Hour), false, 0},
		{"one day and a bit", due.Add(25 * time.Hour), false, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.ComputeFine(due, tt.returned, tt.damaged))
		})
	}

	custom := FinePolicy{PerLateDay: 25, Damage: 500}
	assert.Equal(t, int64(550), custom.ComputeFine(due, due.AddDate(0, 0, 2), true))
}

func TestParseLoanStatus(t *testing.T) {
	s, err := ParseLoanStatus("OVERDUE")
	require.NoError(t, err)
	assert.True(t, s.IsOutstanding())
	assert.False(t, LoanStatusFinished.IsOutstanding())

	_, err = ParseLoanStatus("overdue")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
