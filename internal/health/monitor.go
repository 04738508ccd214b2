// Package health tracks the liveness of the router's backends.
//
// Each backend moves through Unknown -> Alive -> Dead -> Alive -> ... driven
// by real traffic. Background polling only happens if the owner runs Watch,
// which long-running operator processes do. A failed operation
// marks a backend Dead; the next operation that needs it calls EnsureAlive,
// which probes exactly once and either revives the backend or reports it
// offline. No retry loop or backoff runs inside a single call.
package health

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// State is the liveness state of a backend.
type State int32

const (
	Unknown State = iota
	Alive
	Dead
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// DefaultProbeTimeout bounds a single probe when no timeout is configured.
const DefaultProbeTimeout = 5 * time.Second

type handle struct {
	prober    backend.Prober
	state     atomic.Int32
	checkedAt atomic.Int64
	lastErr   atomic.Pointer[string]
}

// Monitor holds one handle per backend. Handles are created in NewMonitor and
// never removed; only their state changes.
type Monitor struct {
	handles      map[backend.ID]*handle
	probeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbeTimeout sets the bound on each probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for last-checked timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMonitor creates a monitor over the given probers. Every backend starts Unknown.
func NewMonitor(probers map[backend.ID]backend.Prober, opts ...Option) *Monitor {
	m := &Monitor{
		handles:      make(map[backend.ID]*handle, len(probers)),
		probeTimeout: DefaultProbeTimeout,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	for id, p := range probers {
		m.handles[id] = &handle{prober: p}
	}
	return m
}

// State returns the cached state of id. Unregistered backends are Unknown.
func (m *Monitor) State(id backend.ID) State {
	h, ok := m.handles[id]
	if !ok {
		return Unknown
	}
	return State(h.state.Load())
}

// IsAlive returns the cached liveness of id without any I/O.
func (m *Monitor) IsAlive(id backend.ID) bool {
	return m.State(id) == Alive
}

// EnsureAlive returns true immediately if id is Alive. Otherwise it probes
// once, records the outcome and returns it.
func (m *Monitor) EnsureAlive(ctx context.Context, id backend.ID) bool {
	h, ok := m.handles[id]
	if !ok {
		return false
	}
	if State(h.state.Load()) == Alive {
		return true
	}
	return m.probe(ctx, id, h)
}

// ProbeAll probes every backend once regardless of its current state and
// returns the resulting liveness. It is used for the initial Unknown
// transition and for operator health checks.
func (m *Monitor) ProbeAll(ctx context.Context) map[backend.ID]bool {
	out := make(map[backend.ID]bool, len(m.handles))
	for id, h := range m.handles {
		out[id] = m.probe(ctx, id, h)
	}
	return out
}

func (m *Monitor) probe(ctx context.Context, id backend.ID, h *handle) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	if err := h.prober.Probe(probeCtx); err != nil {
		// The caller giving up says nothing about the backend.
		if ctx.Err() != nil {
			return false
		}
		m.transition(id, h, Dead, err)
		return false
	}
	m.transition(id, h, Alive, nil)
	return true
}

// Watch probes every backend once immediately and then every interval until
// ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	m.ProbeAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.ProbeAll(ctx)
		}
	}
}

// MarkDead records that an operation against id failed.
func (m *Monitor) MarkDead(id backend.ID, cause error) {
	if h, ok := m.handles[id]; ok {
		m.transition(id, h, Dead, cause)
	}
}

// MarkAlive records that an operation against id succeeded.
func (m *Monitor) MarkAlive(id backend.ID) {
	if h, ok := m.handles[id]; ok {
		m.transition(id, h, Alive, nil)
	}
}

func (m *Monitor) transition(id backend.ID, h *handle, to State, cause error) {
	h.checkedAt.Store(m.now().UnixNano())
	if cause != nil {
		msg := cause.Error()
		h.lastErr.Store(&msg)
	} else {
		h.lastErr.Store(nil)
	}

	from := State(h.state.Swap(int32(to)))
	if from == to {
		return
	}

	if to == Dead {
		m.logger.Warn("backend marked dead",
			"backend", id.String(),
			"from", from.String(),
			"error", cause,
		)
		return
	}
	m.logger.Info("backend marked alive",
		"backend", id.String(),
		"from", from.String(),
	)
}

// Status is a point-in-time view of one backend's liveness.
type Status struct {
	Backend   backend.ID `json:"backend"`
	State     string     `json:"state"`
	CheckedAt time.Time  `json:"checked_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Snapshot returns the cached status of every backend.
func (m *Monitor) Snapshot() map[backend.ID]Status {
	out := make(map[backend.ID]Status, len(m.handles))
	for id, h := range m.handles {
		st := Status{
			Backend: id,
			State:   State(h.state.Load()).String(),
		}
		if ns := h.checkedAt.Load(); ns != 0 {
			st.CheckedAt = time.Unix(0, ns)
		}
		if msg := h.lastErr.Load(); msg != nil {
			st.LastError = *msg
		}
		out[id] = st
	}
	return out
}

// Health converts the cached state of id into a types.HealthStatus.
func (m *Monitor) Health(id backend.ID) types.HealthStatus {
	st, ok := m.Snapshot()[id]
	if !ok {
		return types.UnknownHealth("backend not registered")
	}

	var hs types.HealthStatus
	switch m.State(id) {
	case Alive:
		hs = types.Healthy(id.String() + " reachable")
	case Dead:
		hs = types.Unhealthy(st.LastError)
	default:
		hs = types.UnknownHealth("not probed yet")
	}
	if !st.CheckedAt.IsZero() {
		hs.CheckedAt = st.CheckedAt
	}
	return hs
}
