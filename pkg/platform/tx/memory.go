package tx

import (
	"context"
	"sync"
	"time"

	dErrors "biblio/pkg/domain-errors"
)

const defaultMemoryTxTimeout = 5 * time.Second

type memoryTxKey struct{}

// MemoryRunner serializes units of work over in-memory stores with one lock.
// Stores apply writes immediately, so a failed unit of work is not rolled back;
// services validate before they mutate and undo their own partial writes. Nested calls
// on the same ctx re-enter.
type MemoryRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: defaultMemoryTxTimeout}
}

func (t *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(memoryTxKey{}).(*MemoryRunner); ok && owner == t {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(context.WithValue(ctx, memoryTxKey{}, t))
}
