package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "biblio/pkg/domain"
	audit "biblio/pkg/platform/audit"
	"biblio/pkg/platform/audit/store/memory"
	"biblio/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	actor := id.NewAccountID()
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithPrincipal(ctx, actor, "lib@x.co", id.RoleLibrarian)

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventFinePaid), Subject: "member-1", Amount: 30})
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), "member-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, audit.CategoryLedger, got.Category)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, actor.String(), got.ActorID)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventLoanCreated), Subject: "loan-1"})
	require.NoError(t, err)

	// Close drains the buffer before returning.
	pub.Close()

	events, err := store.ListBySubject(context.Background(), "loan-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventLoanCreated), events[0].Action)
}

func TestPublisher_EmitAfterCloseIsNoop(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "x", Subject: "s"}))
	events, _ := store.ListBySubject(context.Background(), "s")
	assert.Empty(t, events)
}
