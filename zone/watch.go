package zone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// NotifyChannel is the Postgres channel the zones table trigger fires on.
const NotifyChannel = "zone_events"

// Scope selects which zones a subscription observes: the public feed of
// not-yet-ended zones, or everything one user has published.
type Scope struct {
	OwnerID string
}

// Subscription is a live view over a zone collection. Snapshots and errors
// arrive on distinct channels so consumers can tell an empty result from a
// failed query. Close must be called when the consumer loses interest.
type Subscription struct {
	snapshots chan []Zone
	errs      chan error

	once   sync.Once
	closed chan struct{}
	detach func()
}

// Snapshots delivers the full current matching set after every change and on
// each periodic re-emit.
func (s *Subscription) Snapshots() <-chan []Zone { return s.snapshots }

// Errs delivers query failures without tearing the subscription down.
func (s *Subscription) Errs() <-chan error { return s.errs }

// Close detaches the subscription from the watcher.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.closed)
		s.detach()
	})
}

// ListenFunc blocks pumping change pings until the context ends. The
// production implementation holds a LISTEN connection; tests substitute
// their own.
type ListenFunc func(ctx context.Context, pings chan<- struct{}) error

// Watcher fans database change notifications out to subscriptions. It also
// re-emits on a timer so zones migrate between upcoming, active and expired
// even when nothing was written.
type Watcher struct {
	repo     Repository
	listen   ListenFunc
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	subs  map[*Subscription]Scope
	pings chan struct{}
}

// NewWatcher builds a watcher over the given pool and repository.
func NewWatcher(pool *pgxpool.Pool, repo Repository) *Watcher {
	return &Watcher{
		repo:     repo,
		listen:   pgListen(pool),
		interval: time.Minute,
		now:      time.Now,
		subs:     make(map[*Subscription]Scope),
		pings:    make(chan struct{}, 1),
	}
}

// WithListener replaces the notification source, for tests.
func (w *Watcher) WithListener(listen ListenFunc) *Watcher {
	w.listen = listen
	return w
}

// WithInterval replaces the periodic re-emit interval.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// WithClock replaces the wall clock, for tests.
func (w *Watcher) WithClock(now func() time.Time) *Watcher {
	w.now = now
	return w
}

// Run drives the watcher until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.listen(ctx, w.pings)
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.pings:
			case <-ticker.C:
			}
			w.broadcast(ctx)
		}
	})

	return g.Wait()
}

// Subscribe registers a live view and pushes the initial snapshot before
// returning.
func (w *Watcher) Subscribe(ctx context.Context, scope Scope) *Subscription {
	sub := &Subscription{
		snapshots: make(chan []Zone, 1),
		errs:      make(chan error, 1),
		closed:    make(chan struct{}),
	}
	sub.detach = func() {
		w.mu.Lock()
		delete(w.subs, sub)
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.subs[sub] = scope
	w.mu.Unlock()

	w.push(ctx, sub, scope)
	return sub
}

func (w *Watcher) broadcast(ctx context.Context) {
	w.mu.Lock()
	targets := make(map[*Subscription]Scope, len(w.subs))
	for sub, scope := range w.subs {
		targets[sub] = scope
	}
	w.mu.Unlock()

	for sub, scope := range targets {
		w.push(ctx, sub, scope)
	}
}

func (w *Watcher) push(ctx context.Context, sub *Subscription, scope Scope) {
	select {
	case <-sub.closed:
		return
	default:
	}

	var (
		zones []Zone
		err   error
	)
	if scope.OwnerID != "" {
		zones, err = w.repo.ListByOwner(ctx, scope.OwnerID)
	} else {
		zones, err = w.repo.ListCurrent(ctx, w.now())
	}

	if err != nil {
		offer(sub.errs, fmt.Errorf("zone: refresh subscription: %w", err))
		return
	}
	offer(sub.snapshots, zones)
}

// offer replaces a stale buffered value so a slow consumer always reads the
// latest state instead of blocking the watcher.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// pgListen holds a dedicated pooled connection on LISTEN and converts every
// notification into a ping.
func pgListen(pool *pgxpool.Pool) ListenFunc {
	return func(ctx context.Context, pings chan<- struct{}) error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("zone: acquire listen conn: %w", err)
		}
		defer conn.Release()

		if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			return fmt.Errorf("zone: listen %s: %w", NotifyChannel, err)
		}

		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("zone: wait for notification: %w", err)
			}
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
