package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/audit/worker"
)

// ErrBufferFull is returned by Emit in async mode when the queue is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// ErrNotQueryable is returned by List and Recent when the store cannot be
// read back.
var ErrNotQueryable = errors.New("audit store is write-only")

// FailureRecorder counts events that could not be persisted.
type FailureRecorder interface {
	IncrementAuditFailure()
}

// Publisher emits audit events to a store, either synchronously or through
// a buffered queue drained by a worker.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics FailureRecorder
	now     func() time.Time

	bufferSize int
	mu         sync.RWMutex
	closed     bool
	queue      chan audit.Event
	done       chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m FailureRecorder) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.queue = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.queue, p.logger, p.recordFailure)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records event. A zero Timestamp is set to now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if p.queue == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.recordFailure()
			return err
		}
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrBufferFull
	}
	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.recordFailure()
		return ErrBufferFull
	}
}

// List returns events recorded for an entity.
func (p *Publisher) List(ctx context.Context, entityID string) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotQueryable
	}
	return reader.ListByEntity(ctx, entityID)
}

// Recent returns up to limit events across all entities, newest first.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotQueryable
	}
	return reader.ListRecent(ctx, limit)
}

// Close stops accepting events and drains the queue.
func (p *Publisher) Close() {
	if p.queue == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) recordFailure() {
	if p.metrics != nil {
		p.metrics.IncrementAuditFailure()
	}
}
