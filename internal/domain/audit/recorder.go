// Package audit records every inbound request as an append-only trail,
// decoupled from the request's own transaction and outcome.
package audit

import (
	"context"
	"sync"
	"time"

	"shopledger/pkg/logger"
)

// Entry is one immutable audit record. Never updated or deleted by
// application logic.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	Method     string    `db:"method" json:"method"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
	Payload    string    `db:"payload" json:"payload"`
}

// Store is the persistence contract for audit entries.
type Store interface {
	// Append inserts one entry. Storage-assigned id, no ordering
	// guarantee beyond it.
	Append(ctx context.Context, e Entry) error

	// ListRecent returns the newest entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder is a fire-and-forget audit writer. Record never blocks the
// calling request: entries go through a buffered channel to a background
// writer, and store failures are logged and suppressed. Entries may be
// dropped when the buffer is full; duplicates are acceptable and not
// deduplicated.
type Recorder struct {
	store Store
	queue chan Entry

	// mu guards closed so Record stays safe concurrently with Close.
	mu     sync.RWMutex
	closed bool

	wg        sync.WaitGroup
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewRecorder creates a Recorder and starts its background writer.
// bufferSize bounds the number of in-flight entries.
func NewRecorder(store Store, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Recorder{
		store:        store,
		queue:        make(chan Entry, bufferSize),
		writeTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record enqueues one audit entry with the current timestamp.
// It never blocks and never returns an error; after Close it drops the
// entry instead of panicking.
func (r *Recorder) Record(method, endpoint string, payload string) {
	entry := Entry{
		Method:     method,
		Endpoint:   endpoint,
		RecordedAt: time.Now(),
		Payload:    payload,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logger.Warn(context.Background(), "audit recorder closed, dropping entry",
			"method", method,
			"endpoint", endpoint,
		)
		return
	}

	select {
	case r.queue <- entry:
	default:
		logger.Warn(context.Background(), "audit queue full, dropping entry",
			"method", method,
			"endpoint", endpoint,
		)
	}
}

// run consumes the queue until Close. Uses its own context: audit writes
// must not share a transaction or deadline with business operations.
func (r *Recorder) run() {
	defer r.wg.Done()

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.store.Append(ctx, entry); err != nil {
			logger.Error(ctx, "audit append failed",
				"method", entry.Method,
				"endpoint", entry.Endpoint,
				"error", err,
			)
		}
		cancel()
	}
}

// Close stops accepting entries and drains the queue.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.queue)
	})
	r.wg.Wait()
}
