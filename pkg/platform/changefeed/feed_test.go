package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source struct {
	mu    sync.Mutex
	items []int
}

func (s *source) set(items ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *source) load(context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.items...), nil
}

func receive(t *testing.T, ch <-chan []int) []int {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

func TestFeed_DeliversInitialAndChangedSnapshots(t *testing.T) {
	src := &source{}
	src.set(1, 2, 3)
	feed := New[int]("numbers", src.load, nil)

	got := make(chan []int, 10)
	unsubscribe := feed.Subscribe(func(v int) bool { return v%2 == 1 }, func(items []int) {
		got <- items
	})
	defer unsubscribe()

	assert.Equal(t, []int{1, 3}, receive(t, got))

	src.set(1, 2, 3, 5)
	feed.Notify()
	assert.Equal(t, []int{1, 3, 5}, receive(t, got))
}

func TestFeed_UnsubscribeStopsDelivery(t *testing.T) {
	src := &source{}
	feed := New[int]("numbers", src.load, nil)

	got := make(chan []int, 10)
	unsubscribe := feed.Subscribe(nil, func(items []int) { got <- items })
	receive(t, got)

	unsubscribe()
	unsubscribe()
	require.Equal(t, 0, feed.Subscribers())

	feed.Notify()
	select {
	case <-got:
		t.Fatal("delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoutesByCollection(t *testing.T) {
	src := &source{}
	loans := New[int](CollectionLoans, src.load, nil)
	books := New[int](CollectionBooks, src.load, nil)
	hub := NewHub()
	hub.Register(loans)
	hub.Register(books)

	loanCh := make(chan []int, 10)
	bookCh := make(chan []int, 10)
	defer loans.Subscribe(nil, func(items []int) { loanCh <- items })()
	defer books.Subscribe(nil, func(items []int) { bookCh <- items })()
	receive(t, loanCh)
	receive(t, bookCh)

	src.set(7)
	hub.Changed(context.Background(), CollectionLoans)
	assert.Equal(t, []int{7}, receive(t, loanCh))

	select {
	case <-bookCh:
		t.Fatal("books feed should not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}
