package tx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "biblio/pkg/domain-errors"
)

func TestMemoryRunner_SerializesAndReenters(t *testing.T) {
	runner := NewMemoryRunner()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.RunInTx(ctx, func(txCtx context.Context) error {
				return runner.RunInTx(txCtx, func(context.Context) error {
					counter++
					return nil
				})
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestMemoryRunner_CancelledContext(t *testing.T) {
	runner := NewMemoryRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.RunInTx(ctx, func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
