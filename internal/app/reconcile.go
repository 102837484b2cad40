package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/realtime"
)

// Tables whose changes trigger a reload
var watchedTables = []string{"projects", "tasks", "project_members", "notifications", "profiles"}

// Reconciler funnels the poll timer and realtime change events into
// Store.Reload. Triggers that arrive while a reload is queued are merged, and
// reloads are rate limited.
type Reconciler struct {
	store   *Store
	feed    Feed
	poll    string
	limiter *rate.Limiter
	log     zerolog.Logger

	trigger chan struct{}

	mu      sync.Mutex
	cron    *cron.Cron
	cancels []func()
	userID  string
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReconciler creates a reconciler; feed may be nil to rely on polling
func NewReconciler(store *Store, feed Feed, cfg config.SyncConfig) *Reconciler {
	limit := rate.Inf
	if cfg.ReloadsPerSecond > 0 {
		limit = rate.Limit(cfg.ReloadsPerSecond)
	}
	return &Reconciler{
		store:   store,
		feed:    feed,
		poll:    cfg.Poll,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.With("reconcile"),
		trigger: make(chan struct{}, 1),
	}
}

// Start schedules polling and begins processing triggers until Stop
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return errors.New("reconciler already started")
	}

	c := cron.New()
	if r.poll != "" {
		if _, err := c.AddFunc(r.poll, r.Trigger); err != nil {
			return fmt.Errorf("poll schedule %q: %w", r.poll, err)
		}
	}
	c.Start()
	r.cron = c

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.log.Info().Str("poll", r.poll).Msg("reconciler started")
	return nil
}

// Watch subscribes to change events for userID, replacing any previous
// subscriptions. An empty userID only unsubscribes.
func (r *Reconciler) Watch(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
	r.userID = userID
	if userID == "" || r.feed == nil {
		return
	}

	for _, table := range watchedTables {
		var filter realtime.Filter
		switch table {
		case "project_members", "notifications":
			filter = realtime.Eq("user_id", userID)
		}
		r.cancels = append(r.cancels, r.feed.Subscribe(table, filter, func(e realtime.Event) {
			r.log.Debug().Str("table", e.Table).Str("op", string(e.Op)).Str("id", e.ID).Msg("change event")
			r.Trigger()
		}))
	}
}

// Trigger requests a reload. It never blocks.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop ends polling, drops subscriptions and waits for the loop to exit
func (r *Reconciler) Stop() {
	r.Watch("")

	r.mu.Lock()
	c, cancel, done := r.cron, r.cancel, r.done
	r.cron, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

func (r *Reconciler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		if err := r.store.Reload(ctx); err != nil && !errors.Is(err, ErrNotSignedIn) {
			r.log.Warn().Err(err).Msg("reload failed")
		}
	}
}
