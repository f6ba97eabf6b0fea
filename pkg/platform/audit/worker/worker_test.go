package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "biblio/pkg/platform/audit"
	"biblio/pkg/platform/audit/store/memory"
)

type flakyStore struct {
	mu    sync.Mutex
	calls int
	inner *memory.InMemoryStore
}

func (f *flakyStore) Append(ctx context.Context, e audit.Event) error {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return errors.New("broker down")
	}
	return f.inner.Append(ctx, e)
}

func TestWorker_DrainsUntilInboxClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	inbox <- audit.Event{Action: "a", Subject: "s"}
	inbox <- audit.Event{Action: "b", Subject: "s"}
	close(inbox)

	err := NewWorker(store, inbox, nil).Run(context.Background())
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWorker_ContinuesAfterAppendFailure(t *testing.T) {
	store := &flakyStore{inner: memory.NewInMemoryStore()}
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{Action: "lost", Subject: "s"}
	inbox <- audit.Event{Action: "kept", Subject: "s"}
	close(inbox)

	require.NoError(t, NewWorker(store, inbox, nil).Run(context.Background()))

	events, _ := store.inner.ListBySubject(context.Background(), "s")
	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].Action)
}

func TestWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inbox := make(chan audit.Event)
	done := make(chan error, 1)
	go func() { done <- NewWorker(memory.NewInMemoryStore(), inbox, nil).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
