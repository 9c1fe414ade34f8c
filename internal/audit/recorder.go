// Package audit appends an immutable record of every state-changing action.
// Recording is best-effort from the caller's perspective: failures are logged
// and swallowed, never rolled back into the mutation that triggered them.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store appends entries to the audit sink of record.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
}

// Publisher mirrors committed entries to an outbound sink (Kafka).
// Optional; fire-and-forget.
type Publisher interface {
	Publish(entry *Entry) error
}

// Recorder writes audit entries with a bounded timeout per append.
type Recorder struct {
	store       Store
	publisher   Publisher
	logger      *slog.Logger
	sinkTimeout time.Duration
	now         func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithPublisher(p Publisher) Option {
	return func(r *Recorder) {
		r.publisher = p
	}
}

func WithSinkTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.sinkTimeout = d
	}
}

// WithClock overrides the timestamp source in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:       store,
		sinkTimeout: 3 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry. Failures are logged and swallowed; the caller's
// mutation has already committed and must not depend on audit durability.
func (r *Recorder) Record(ctx context.Context, rec Record) {
	entry := &Entry{
		ID:          uuid.NewString(),
		PrincipalID: rec.PrincipalID,
		TenantID:    rec.TenantID,
		Action:      rec.Action,
		Target:      rec.Target,
		Details:     rec.Details,
		CreatedAt:   r.now().UTC(),
	}

	// Detach from the request context so a cancelled request cannot drop the
	// entry, but keep the write bounded.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.sinkTimeout)
	defer cancel()

	if err := r.store.Append(writeCtx, entry); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "failed to append audit entry",
				"error", err,
				"action", entry.Action,
				"target_kind", entry.Target.Kind,
				"target_id", entry.Target.ID,
			)
		}
		return
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, string(entry.Action),
			"log_type", "audit",
			"principal_id", entry.PrincipalID,
			"tenant_id", entry.TenantID,
			"target_kind", entry.Target.Kind,
			"target_id", entry.Target.ID,
		)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(entry); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "failed to publish audit entry", "error", err)
		}
	}
}
