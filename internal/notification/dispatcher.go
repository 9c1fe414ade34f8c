package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "estatecore/pkg/domain"
)

// Dispatcher runs notification fan-outs on a background worker so workflow
// transitions never block on, or fail because of, notification delivery. Jobs
// are dropped (and counted) when the queue is full; at-least-once delivery is
// deliberately out of scope.
type Dispatcher struct {
	svc        *Service
	jobs       chan func(ctx context.Context)
	jobTimeout time.Duration
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets the pending-job buffer.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.jobs = make(chan func(ctx context.Context), n)
	}
}

// WithJobTimeout bounds each fan-out.
func WithJobTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.jobTimeout = timeout
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher wraps a notification service with an async queue.
func NewDispatcher(svc *Service, opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		svc:        svc,
		jobs:       make(chan func(ctx context.Context), 256),
		jobTimeout: 3 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins the worker loop in a background goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.drain()
			return
		case job := <-d.jobs:
			d.execute(job)
		}
	}
}

// drain processes whatever is already queued before shutdown.
func (d *Dispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.execute(job)
		default:
			return
		}
	}
}

func (d *Dispatcher) execute(job func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()
	job(ctx)
}

// Close stops the worker after draining queued jobs.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(job func(ctx context.Context)) {
	select {
	case d.jobs <- job:
	default:
		if d.svc.metrics != nil {
			d.svc.metrics.IncrementDropped()
		}
		if d.logger != nil {
			d.logger.Warn("notification queue full, dropping job")
		}
	}
}

// RequestApproval queues the reviewer fan-out. Always succeeds from the
// caller's perspective.
func (d *Dispatcher) RequestApproval(_ context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string) error {
	d.enqueue(func(ctx context.Context) {
		_ = d.svc.RequestApproval(ctx, tenantID, propertyID, title) //nolint:errcheck // logged inside the service
	})
	return nil
}

// AnnounceOutcome queues the assigned-agent notice. Always succeeds from the
// caller's perspective.
func (d *Dispatcher) AnnounceOutcome(_ context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string, agent *id.PrincipalID, approved bool, reason string) error {
	d.enqueue(func(ctx context.Context) {
		_ = d.svc.AnnounceOutcome(ctx, tenantID, propertyID, title, agent, approved, reason) //nolint:errcheck // logged inside the service
	})
	return nil
}
