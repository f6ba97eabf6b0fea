//go:build integration

package book_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/catalog/models"
	"biblio/internal/catalog/store/book"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
	"biblio/pkg/testutil/containers"
)

type PostgresBookStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *book.SQLStore
	tx       *database.TxRunner
}

func TestPostgresBookStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBookStoreSuite))
}

func (s *PostgresBookStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = book.NewSQL(s.postgres.DB)
	s.tx = database.NewTxRunner(s.postgres.DB)
}

func (s *PostgresBookStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "loans", "books"))
}

// TestConcurrentLendSingleWinner verifies FOR UPDATE lets exactly one transaction
// move an available book to LOANED.
func (s *PostgresBookStoreSuite) TestConcurrentLendSingleWinner() {
	ctx := context.Background()
	b, err := models.NewBook(id.NewBookID(), "Rayuela", "Cortázar", "9788437604572", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, b))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
				_, err := s.store.Execute(txCtx, b.ID,
					func(book *models.Book) error { return book.CanLend() },
					func(book *models.Book) { book.ApplyLoaned(time.Now()) },
				)
				return err
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

// TestUniqueISBN verifies the unique constraint maps to ErrAlreadyUsed.
func (s *PostgresBookStoreSuite) TestUniqueISBN() {
	ctx := context.Background()
	first, err := models.NewBook(id.NewBookID(), "Uno", "A", "1111111111111", time.Now())
	s.Require().NoError(err)
	second, err := models.NewBook(id.NewBookID(), "Dos", "B", "1111111111111", time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().ErrorIs(s.store.Create(ctx, second), sentinel.ErrAlreadyUsed)
}
