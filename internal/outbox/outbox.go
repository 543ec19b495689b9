// Package outbox holds the retry queue that makes the local-first write path
// an explicit property of the system: when a remote write fails after the
// local commit succeeded, a reconciliation entry is queued here and replayed
// until it lands or runs out of attempts.
package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names the remote operation an entry replays.
type Kind string

const (
	// KindPlanUpsert re-pushes the user's current local plan to the remote store.
	KindPlanUpsert Kind = "plan_upsert"
	// KindArchiveExport re-uploads an archived plan snapshot to object storage.
	KindArchiveExport Kind = "archive_export"
)

// Entry is one pending reconciliation task.
type Entry struct {
	ID       string
	Kind     Kind
	UserID   string
	PlanID   string
	Attempts int
}

// Handler replays one entry against the remote side.
type Handler func(ctx context.Context, entry Entry) error

// Outbox runs a single background worker draining the queue. Entries that
// fail are re-queued with a delay until MaxAttempts is reached, then dropped
// with a warning; durability beyond process lifetime is not a goal here (the
// local copy stays authoritative until the next successful sync).
type Outbox struct {
	queue       chan Entry
	handlers    map[Kind]Handler
	maxAttempts int
	retryDelay  time.Duration

	startOnce sync.Once
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates an outbox with the given queue size, per-entry attempt budget
// and delay between attempts.
func New(queueSize, maxAttempts int, retryDelay time.Duration) *Outbox {
	if queueSize < 1 {
		queueSize = 64
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Outbox{
		queue:       make(chan Entry, queueSize),
		handlers:    make(map[Kind]Handler),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register installs the handler for a kind. Must be called before Start.
func (o *Outbox) Register(kind Kind, handler Handler) {
	o.handlers[kind] = handler
}

// Start launches the worker goroutine.
func (o *Outbox) Start() {
	o.startOnce.Do(func() {
		o.wg.Add(1)
		go o.run()
	})
}

// Enqueue queues a reconciliation task. It never blocks the caller: when the
// queue is full the entry is dropped with a warning, which is acceptable for
// a best-effort sync (the next successful operation rewrites the document).
func (o *Outbox) Enqueue(kind Kind, userID, planID string) {
	entry := Entry{
		ID:     uuid.NewString(),
		Kind:   kind,
		UserID: userID,
		PlanID: planID,
	}
	select {
	case o.queue <- entry:
		slog.Info("outbox entry queued", "entry_id", entry.ID, "kind", kind, "user_id", userID)
	default:
		slog.Warn("outbox queue full, dropping entry", "kind", kind, "user_id", userID)
	}
}

// Close stops the worker and waits for the in-flight entry to finish.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		o.cancel()
		o.wg.Wait()
	})
}

func (o *Outbox) run() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case entry := <-o.queue:
			o.process(entry)
		}
	}
}

func (o *Outbox) process(entry Entry) {
	handler, ok := o.handlers[entry.Kind]
	if !ok {
		slog.Error("no outbox handler registered", "kind", entry.Kind)
		return
	}

	entry.Attempts++
	if err := handler(o.ctx, entry); err != nil {
		if entry.Attempts >= o.maxAttempts {
			slog.Warn("outbox entry exhausted its attempts, dropping",
				"entry_id", entry.ID, "kind", entry.Kind, "user_id", entry.UserID, "error", err.Error())
			return
		}
		slog.Info("outbox entry failed, re-queueing",
			"entry_id", entry.ID, "kind", entry.Kind, "attempts", entry.Attempts, "error", err.Error())
		o.requeue(entry)
		return
	}

	slog.Info("outbox entry synced", "entry_id", entry.ID, "kind", entry.Kind, "user_id", entry.UserID)
}

func (o *Outbox) requeue(entry Entry) {
	timer := time.NewTimer(o.retryDelay)
	defer timer.Stop()
	select {
	case <-o.ctx.Done():
	case <-timer.C:
		select {
		case o.queue <- entry:
		default:
			slog.Warn("outbox queue full on re-queue, dropping entry", "entry_id", entry.ID)
		}
	}
}
