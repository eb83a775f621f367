package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

// Store is the ledger persistence dependency.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, filters Filters) ([]Entry, int, error)
}

// Sink observes recorded entries (notification dispatch, downstream
// analytics). Best-effort: a failing sink never fails the decision.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
	Close()
}

// Ledger records decisions. The store write is synchronous with the
// transition it records; sink fan-out is asynchronous and drains on close.
type Ledger struct {
	store  Store
	sink   Sink
	logger *slog.Logger

	inbox chan Entry
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithSink attaches an asynchronous observer with the given buffer size.
// When the buffer is full the entry is dropped from the sink (never from
// the store) and a warning is logged.
func WithSink(sink Sink, buffer int) Option {
	return func(l *Ledger) {
		l.sink = sink
		if buffer < 1 {
			buffer = 64
		}
		l.inbox = make(chan Entry, buffer)
	}
}

func New(store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit store is required")
	}

	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}

	if l.sink != nil {
		l.wg.Add(1)
		go l.drain()
	}
	return l, nil
}

// Record appends one entry to the ledger. Fails only on storage
// unavailability; business validation happened in the decision engine.
func (l *Ledger) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	if err := l.store.Append(ctx, entry); err != nil {
		return Entry{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit ledger unavailable")
	}

	if l.inbox != nil {
		select {
		case l.inbox <- entry:
		default:
			if l.logger != nil {
				l.logger.WarnContext(ctx, "audit sink buffer full, dropping fan-out",
					"reference", entry.Reference,
					"decision", entry.Kind,
				)
			}
		}
	}
	return entry, nil
}

// Query returns ledger entries matching the filters, newest first, with
// the total match count for pagination.
func (l *Ledger) Query(ctx context.Context, filters Filters) ([]Entry, int, error) {
	entries, total, err := l.store.Query(ctx, filters)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit ledger unavailable")
	}
	return entries, total, nil
}

func (l *Ledger) drain() {
	defer l.wg.Done()
	for entry := range l.inbox {
		if err := l.sink.Publish(context.Background(), entry); err != nil && l.logger != nil {
			l.logger.Warn("audit sink publish failed",
				"reference", entry.Reference,
				"error", err,
			)
		}
	}
}

// Close drains pending sink deliveries and releases the sink.
func (l *Ledger) Close() {
	l.once.Do(func() {
		if l.inbox != nil {
			close(l.inbox)
			l.wg.Wait()
		}
		if l.sink != nil {
			l.sink.Close()
		}
	})
}
