// Package realtime is an in-process change feed: writers publish row changes
// per table and subscribers receive the ones that match their filter.
package realtime

import (
	"sync"
	"time"

	"github.com/tgienger/apolo/internal/logger"
)

// Op is the kind of row change
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is a single row change. Columns carries the values subscribers can
// filter on, such as user_id or project_id.
type Event struct {
	Table   string
	Op      Op
	ID      string
	Columns map[string]string
	At      time.Time
}

// Filter narrows a subscription to rows whose Column equals Value. The zero
// filter matches every row.
type Filter struct {
	Column string
	Value  string
}

// Eq builds an equality filter
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// Match reports whether e passes the filter
func (f Filter) Match(e Event) bool {
	if f.Column == "" {
		return true
	}
	return e.Columns[f.Column] == f.Value
}

type subscriber struct {
	filter Filter
	ch     chan Event
	done   chan struct{}
}

// Hub fans events out to table subscribers. Each subscriber has its own
// buffered channel and goroutine; a full buffer drops the event for that
// subscriber rather than blocking the writer.
type Hub struct {
	mu      sync.RWMutex
	tables  map[string]map[*subscriber]struct{}
	bufSize int
	closed  bool
}

// New creates a hub whose subscribers buffer bufSize events
func New(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Hub{
		tables:  make(map[string]map[*subscriber]struct{}),
		bufSize: bufSize,
	}
}

// Subscribe calls fn for every event on table that matches filter, in
// publish order. The returned function cancels the subscription.
func (h *Hub) Subscribe(table string, filter Filter, fn func(Event)) func() {
	sub := &subscriber{
		filter: filter,
		ch:     make(chan Event, h.bufSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	if h.tables[table] == nil {
		h.tables[table] = make(map[*subscriber]struct{})
	}
	h.tables[table][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		for {
			select {
			case e := <-sub.ch:
				fn(e)
			case <-sub.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs := h.tables[table]
			if _, ok := subs[sub]; !ok {
				// already stopped by Close
				return
			}
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.tables, table)
			}
			close(sub.done)
		})
	}
}

// Publish delivers e to the matching subscribers of e.Table
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.tables[e.Table] {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			logger.Warn().Str("table", e.Table).Str("id", e.ID).Msg("realtime subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount returns the number of subscribers on table
func (h *Hub) SubscriberCount(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tables[table])
}

// Close stops every subscriber; later publishes are ignored
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.tables {
		for sub := range subs {
			close(sub.done)
		}
	}
	h.tables = nil
}
