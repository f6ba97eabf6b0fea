//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/loan/models"
	"biblio/internal/loan/store"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/testutil/containers"
)

type PostgresLoanStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.SQLStore
	tx       *database.TxRunner
}

func TestPostgresLoanStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLoanStoreSuite))
}

func (s *PostgresLoanStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewSQL(s.postgres.DB)
	s.tx = database.NewTxRunner(s.postgres.DB)
}

func (s *PostgresLoanStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "loans"))
}

// TestConcurrentOverdueMarking verifies only one transaction moves a loan to OVERDUE.
func (s *PostgresLoanStoreSuite) TestConcurrentOverdueMarking() {
	ctx := context.Background()
	start := time.Now().UTC().AddDate(0, 0, -20)
	l, err := models.NewLoan(id.NewLoanID(), id.NewBookID(), id.NewMemberID(), "Rayuela", "9788437604572", models.LoanStatusActive, 14, start)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, l))

	now := time.Now().UTC()
	var wg sync.WaitGroup
	var marked atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
				_, err := s.store.Execute(txCtx, l.ID,
					func(l *models.Loan) error { return l.CanMarkOverdue(now) },
					func(l *models.Loan) { l.ApplyOverdue() },
				)
				return err
			})
			if err == nil {
				marked.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), marked.Load())
	due, err := s.store.ListPastDue(ctx, now)
	s.Require().NoError(err)
	s.Empty(due)
}
