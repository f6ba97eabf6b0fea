// Package changefeed delivers "latest known state" snapshots of a collection to
// subscribers whenever the collection changes.
//
// A subscriber's callback always receives the full current matching set, never a
// diff. Notifications are coalesced: several changes in quick succession may produce
// a single callback. Ordering across subscribers is not guaranteed.
package changefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Collection names shared by stores, services and the Postgres relay.
const (
	CollectionBooks    = "books"
	CollectionMembers  = "members"
	CollectionLoans    = "loans"
	CollectionAccounts = "accounts"
)

const loadTimeout = 5 * time.Second

// Feed fans out snapshots of one collection of T.
type Feed[T any] struct {
	name   string
	load   func(ctx context.Context) ([]T, error)
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	filter   func(T) bool
	callback func([]T)
	wake     chan struct{}
	stop     chan struct{}
}

// New creates a feed. load must return the full current collection.
func New[T any](name string, load func(ctx context.Context) ([]T, error), logger *slog.Logger) *Feed[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed[T]{
		name:   name,
		load:   load,
		logger: logger,
		subs:   make(map[uint64]*subscriber[T]),
	}
}

func (f *Feed[T]) Name() string { return f.name }

// Subscribe registers callback for records matching filter (nil matches all).
// The current set is delivered once right away. The returned func unsubscribes and
// is safe to call more than once.
func (f *Feed[T]) Subscribe(filter func(T) bool, callback func([]T)) (unsubscribe func()) {
	sub := &subscriber[T]{
		filter:   filter,
		callback: callback,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}

	f.mu.Lock()
	f.nextID++
	subID := f.nextID
	f.subs[subID] = sub
	f.mu.Unlock()

	sub.wake <- struct{}{}
	go f.run(sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, subID)
			f.mu.Unlock()
			close(sub.stop)
		})
	}
}

// Notify marks the collection as changed.
func (f *Feed[T]) Notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case sub.wake <- struct{}{}:
		default:
			// a delivery is already pending and will load the latest state
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed[T]) run(sub *subscriber[T]) {
	for {
		select {
		case <-sub.stop:
			return
		case <-sub.wake:
			records, err := f.snapshot(sub.filter)
			if err != nil {
				f.logger.Warn("changefeed load failed", "collection", f.name, "error", err)
				continue
			}
			select {
			case <-sub.stop:
				return
			default:
			}
			sub.callback(records)
		}
	}
}

func (f *Feed[T]) snapshot(filter func(T) bool) ([]T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	all, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return all, nil
	}
	out := make([]T, 0, len(all))
	for _, r := range all {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
