// Package autosave writes an editor's graph back to its module record.
//
// Any graph mutation schedules a save after a quiet period; further edits inside
// that window push it back, so a burst of edits becomes one write. An explicit
// Save skips the wait. Failures never touch the in-memory graph: they show up as
// StatusError and the next edit or Save retries.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/ports"
)

// Defaults match the editor's save indicator.
const (
	DefaultDebounce   = time.Second
	DefaultSavedReset = 2 * time.Second
	DefaultErrorReset = 3 * time.Second
	DefaultLockTTL    = 10 * time.Second
)

// Status is the state of the save indicator.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Snapshot describes the indicator at a point in time. Err is set only in StatusError.
type Snapshot struct {
	Status    Status
	Err       error
	LastSaved time.Time
	Pending   bool
}

// Saver debounces graph changes into ContentStore writes for one module.
type Saver struct {
	moduleID string
	graph    *graph.Store
	content  ports.ContentStore

	debounce   time.Duration
	savedReset time.Duration
	errorReset time.Duration
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	onSave     func(error)
	onStatus   func(Snapshot)
	logger     *slog.Logger

	saveMu sync.Mutex // one write in flight per Saver

	mu        sync.Mutex
	ctx       context.Context
	timer     *time.Timer
	reset     *time.Timer
	status    Status
	lastErr   error
	lastSaved time.Time
	pending   bool
}

// Option configures a Saver.
type Option func(*Saver)

// WithDebounce sets the quiet period before an automatic save.
func WithDebounce(d time.Duration) Option {
	return func(s *Saver) { s.debounce = d }
}

// WithResetDelays sets how long the saved and error states linger before returning to idle.
func WithResetDelays(saved, failed time.Duration) Option {
	return func(s *Saver) {
		s.savedReset = saved
		s.errorReset = failed
	}
}

// WithLocker serializes writes to the same module across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Saver) { s.locker = locker }
}

// WithSaveObserver is called after every write attempt with its outcome.
func WithSaveObserver(fn func(error)) Option {
	return func(s *Saver) { s.onSave = fn }
}

// WithStatusListener is called on every indicator change.
func WithStatusListener(fn func(Snapshot)) Option {
	return func(s *Saver) { s.onStatus = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Saver) { s.logger = logger }
}

// New creates a Saver for moduleID. It does nothing until Watch is called or Save is used.
func New(moduleID string, g *graph.Store, content ports.ContentStore, opts ...Option) *Saver {
	s := &Saver{
		moduleID:   moduleID,
		graph:      g,
		content:    content,
		debounce:   DefaultDebounce,
		savedReset: DefaultSavedReset,
		errorReset: DefaultErrorReset,
		lockTTL:    DefaultLockTTL,
		logger:     logging.NewNop(),
		status:     StatusIdle,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch subscribes to graph changes until ctx is done. Cancelling ctx drops any
// pending save and abandons one in flight.
func (s *Saver) Watch(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	unsubscribe := s.graph.Subscribe(func(graph.Change) {
		s.schedule()
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		s.mu.Lock()
		s.stopTimers()
		s.pending = false
		s.mu.Unlock()
		s.logger.Debug("autosave stopped", "module_id", s.moduleID)
	}()
}

func (s *Saver) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	ctx := s.ctx
	s.timer = time.AfterFunc(s.debounce, func() {
		_ = s.Save(ctx)
	})
}

// Save writes the current graph immediately, cancelling any pending debounced save.
func (s *Saver) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.setStatus(StatusSaving, nil, 0)
	err := s.write(ctx)
	if s.onSave != nil {
		s.onSave(err)
	}

	if err != nil {
		if ctx.Err() != nil {
			// Abandoned: the view is gone, leave the indicator alone.
			return err
		}
		s.logger.Error("Autosave failed", "module_id", s.moduleID, "err", err)
		s.setStatus(StatusError, err, s.errorReset)
		return err
	}
	s.logger.Debug("Module saved", "module_id", s.moduleID)
	s.setStatus(StatusSaved, nil, s.savedReset)
	return nil
}

func (s *Saver) write(ctx context.Context) error {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "module:"+s.moduleID, s.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release module lock (will expire via TTL)",
					"module_id", s.moduleID,
					"err", err,
				)
			}
		}()
	}
	return s.content.SaveContent(ctx, s.moduleID, domain.Content{Nodes: s.graph.Nodes()})
}

// setStatus updates the indicator and, when after > 0, arranges the return to idle.
func (s *Saver) setStatus(st Status, err error, after time.Duration) {
	s.mu.Lock()
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	s.status = st
	s.lastErr = err
	if st == StatusSaved {
		s.lastSaved = time.Now()
	}
	if after > 0 {
		var reset *time.Timer
		reset = time.AfterFunc(after, func() {
			s.mu.Lock()
			if s.reset != reset {
				s.mu.Unlock()
				return
			}
			s.status = StatusIdle
			s.lastErr = nil
			s.reset = nil
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.notify(snap)
		})
		s.reset = reset
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Saver) notify(snap Snapshot) {
	if s.onStatus != nil {
		s.onStatus(snap)
	}
}

// Status returns the current indicator.
func (s *Saver) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Dismiss clears an error indicator.
func (s *Saver) Dismiss() {
	s.mu.Lock()
	if s.status != StatusError {
		s.mu.Unlock()
		return
	}
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	s.status = StatusIdle
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Saver) snapshotLocked() Snapshot {
	return Snapshot{
		Status:    s.status,
		Err:       s.lastErr,
		LastSaved: s.lastSaved,
		Pending:   s.pending,
	}
}

func (s *Saver) stopTimers() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
}

// Load fills g from the stored module graph. The store's listeners are not notified,
// so loading never schedules a save.
func Load(ctx context.Context, content ports.ContentStore, moduleID string, g *graph.Store) error {
	c, err := content.LoadContent(ctx, moduleID)
	if err != nil {
		return err
	}
	g.Load(c.Nodes)
	return nil
}
