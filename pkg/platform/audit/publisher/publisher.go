// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered worker when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"docket/pkg/platform/audit"
)

// Publisher writes events to an audit store. In async mode events are
// queued on a channel and flushed by a single worker goroutine; a full
// buffer falls back to a synchronous write rather than dropping the event.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	events chan audit.Event
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with the given queue size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Timestamps are stamped here so callers cannot
// forget them.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.events == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.events <- event:
		return nil
	default:
		// Buffer full; degrade to synchronous delivery.
		return p.store.Append(ctx, event)
	}
}

// List exposes the underlying store's events for a record.
func (p *Publisher) List(ctx context.Context, recordID string) ([]audit.Event, error) {
	return p.store.List(ctx, recordID)
}

// Close stops the async worker after flushing queued events. Idempotent.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if p.events != nil {
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.events:
			p.append(event)
		case <-p.done:
			for {
				select {
				case event := <-p.events:
					p.append(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(event audit.Event) {
	if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
		p.logger.Warn("failed to append audit event", "action", event.Action, "error", err)
	}
}
