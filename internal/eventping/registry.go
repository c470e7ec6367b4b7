package eventping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"valier/internal/logging"
)

// Handle is the cancellable monitor bound to one room.
type Handle struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Session returns the monitored session.
func (h *Handle) Session() *Session { return h.session }

// Cancel stops the monitor; it ends Abandoned unless already terminal.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the monitor goroutine exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// RegistryDeps wires a Registry.
type RegistryDeps struct {
	Resources ResourceProvider
	Members   MemberDirectory
	Annotator *Annotator
	Observer  Observer
	Config    MonitorConfig
	Logger    *slog.Logger
	Now       func() time.Time
}

// Registry supervises every running monitor. Monitors derive from the
// registry's own context, never from the command that started them.
type Registry struct {
	deps   RegistryDeps
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
	wg      sync.WaitGroup
}

// NewRegistry creates a registry whose monitors stop when parent is cancelled
// or Shutdown is called.
func NewRegistry(parent context.Context, deps RegistryDeps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Annotator == nil {
		deps.Annotator = NewAnnotator(deps.Members, deps.Logger)
	}
	deps.Config = deps.Config.withDefaults()
	ctx, cancel := context.WithCancel(parent)
	return &Registry{
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "monitor"),
		ctx:     ctx,
		cancel:  cancel,
		handles: make(map[string]*Handle),
	}
}

// Start launches the monitor for session. The session must be Active.
func (r *Registry) Start(session *Session) (*Handle, error) {
	if session == nil || session.ID == "" {
		return nil, fmt.Errorf("start monitor: session without resource id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, exists := r.handles[session.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyMonitored, session.ID)
	}
	if status := session.Status(); status != StatusActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrSessionNotActive, session.ID, status)
	}

	ctx, cancel := context.WithCancel(r.ctx)
	handle := &Handle{session: session, cancel: cancel, done: make(chan struct{})}
	r.handles[session.ID] = handle

	monitor := &Monitor{
		session:   session,
		resources: r.deps.Resources,
		members:   r.deps.Members,
		annotator: r.deps.Annotator,
		observer:  r.deps.Observer,
		cfg:       r.deps.Config,
		logger:    r.logger,
		now:       r.deps.Now,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(handle.done)
		defer r.remove(session.ID, handle)
		defer cancel()
		monitor.run(ctx)
	}()
	return handle, nil
}

func (r *Registry) remove(id string, handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[id] == handle {
		delete(r.handles, id)
	}
}

// Lookup returns the running handle for a room.
func (r *Registry) Lookup(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Len returns the number of running monitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Active returns snapshots of running sessions, oldest first.
func (r *Registry) Active() []SessionSnapshot {
	r.mu.Lock()
	snapshots := make([]SessionSnapshot, 0, len(r.handles))
	for _, h := range r.handles {
		snapshots = append(snapshots, h.session.Snapshot())
	}
	r.mu.Unlock()
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return snapshots
}

// Shutdown cancels every monitor and waits for them to exit or ctx to end.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for monitors: %w", ctx.Err())
	}
}
