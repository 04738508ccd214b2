package health

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/backend/backendtest"
	"github.com/zero-day-ai/memrouter/internal/types"
)

func newTestMonitor(t *testing.T) (*Monitor, *backendtest.Fake, *backendtest.Fake) {
	t.Helper()
	primary := backendtest.NewFake(backend.Primary, nil)
	secondary := backendtest.NewFake(backend.Secondary, nil)
	m := NewMonitor(map[backend.ID]backend.Prober{
		backend.Primary:   primary,
		backend.Secondary: secondary,
	}, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	return m, primary, secondary
}

func TestMonitor_StartsUnknown(t *testing.T) {
	m, primary, _ := newTestMonitor(t)

	assert.Equal(t, Unknown, m.State(backend.Primary))
	assert.False(t, m.IsAlive(backend.Primary))
	assert.Equal(t, 0, primary.ProbeCount(), "IsAlive must not probe")
	assert.Equal(t, types.HealthStateUnknown, m.Health(backend.Primary).State)
}

func TestMonitor_ProbeAll(t *testing.T) {
	m, _, secondary := newTestMonitor(t)
	secondary.SetProbeError(errors.New("connection refused"))

	got := m.ProbeAll(context.Background())
	assert.Equal(t, map[backend.ID]bool{backend.Primary: true, backend.Secondary: false}, got)
	assert.Equal(t, Alive, m.State(backend.Primary))
	assert.Equal(t, Dead, m.State(backend.Secondary))

	snap := m.Snapshot()
	assert.Equal(t, "dead", snap[backend.Secondary].State)
	assert.Equal(t, "connection refused", snap[backend.Secondary].LastError)
	assert.False(t, snap[backend.Secondary].CheckedAt.IsZero())
}

func TestMonitor_EnsureAliveSkipsProbeWhenAlive(t *testing.T) {
	m, primary, _ := newTestMonitor(t)
	m.MarkAlive(backend.Primary)

	assert.True(t, m.EnsureAlive(context.Background(), backend.Primary))
	assert.Equal(t, 0, primary.ProbeCount())
}

func TestMonitor_DeadBackendProbesExactlyOncePerCall(t *testing.T) {
	m, primary, _ := newTestMonitor(t)
	m.MarkDead(backend.Primary, errors.New("write failed"))

	primary.SetProbeError(errors.New("still down"))
	assert.False(t, m.EnsureAlive(context.Background(), backend.Primary))
	assert.Equal(t, 1, primary.ProbeCount())
	assert.Equal(t, Dead, m.State(backend.Primary))

	primary.SetProbeError(nil)
	assert.True(t, m.EnsureAlive(context.Background(), backend.Primary))
	assert.Equal(t, 2, primary.ProbeCount())
	assert.Equal(t, Alive, m.State(backend.Primary))

	// Alive again: no further probes.
	assert.True(t, m.EnsureAlive(context.Background(), backend.Primary))
	assert.Equal(t, 2, primary.ProbeCount())
}

type blockingProber struct{}

func (blockingProber) Probe(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestMonitor_ProbeTimeoutMarksDead(t *testing.T) {
	m := NewMonitor(map[backend.ID]backend.Prober{backend.Secondary: blockingProber{}},
		WithProbeTimeout(10*time.Millisecond))

	start := time.Now()
	assert.False(t, m.EnsureAlive(context.Background(), backend.Secondary))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Dead, m.State(backend.Secondary))
}

func TestMonitor_CallerCancellationKeepsState(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m *Monitor)
		wantState State
		wantError string
	}{
		{"unknown stays unknown", func(*Monitor) {}, Unknown, ""},
		{"dead keeps its error", func(m *Monitor) { m.MarkDead(backend.Secondary, errors.New("write failed")) }, Dead, "write failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(map[backend.ID]backend.Prober{backend.Secondary: blockingProber{}},
				WithProbeTimeout(time.Minute))
			tt.setup(m)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			assert.False(t, m.EnsureAlive(ctx, backend.Secondary))
			assert.Equal(t, tt.wantState, m.State(backend.Secondary))
			assert.Equal(t, tt.wantError, m.Snapshot()[backend.Secondary].LastError)
		})
	}

	t.Run("probe error after cancellation", func(t *testing.T) {
		m, primary, _ := newTestMonitor(t)
		primary.SetProbeError(context.Canceled)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		got := m.ProbeAll(ctx)
		assert.False(t, got[backend.Primary])
		assert.Equal(t, Unknown, m.State(backend.Primary))
		assert.Empty(t, m.Snapshot()[backend.Primary].LastError)
	})
}

func TestMonitor_UnregisteredBackend(t *testing.T) {
	m := NewMonitor(nil)
	assert.False(t, m.EnsureAlive(context.Background(), backend.Primary))
	m.MarkDead(backend.Primary, errors.New("x"))
	assert.Equal(t, Unknown, m.State(backend.Primary))
	assert.Equal(t, types.HealthStateUnknown, m.Health(backend.Primary).State)
}

func TestMonitor_HealthStatus(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	primary := backendtest.NewFake(backend.Primary, nil)
	m := NewMonitor(map[backend.ID]backend.Prober{backend.Primary: primary},
		WithClock(func() time.Time { return fixed }))

	m.MarkDead(backend.Primary, errors.New("disk full"))
	h := m.Health(backend.Primary)
	assert.True(t, h.IsUnhealthy())
	assert.Equal(t, "disk full", h.Message)
	assert.True(t, fixed.Equal(h.CheckedAt))

	m.MarkAlive(backend.Primary)
	assert.True(t, m.Health(backend.Primary).IsHealthy())
	assert.Empty(t, m.Snapshot()[backend.Primary].LastError)
}

func TestMonitor_LogsTransitionsOnce(t *testing.T) {
	var buf bytes.Buffer
	primary := backendtest.NewFake(backend.Primary, nil)
	m := NewMonitor(map[backend.ID]backend.Prober{backend.Primary: primary},
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	m.MarkDead(backend.Primary, errors.New("boom"))
	m.MarkDead(backend.Primary, errors.New("boom again"))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("backend marked dead")))
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.MarkDead(backend.Primary, errors.New("x"))
			} else {
				m.EnsureAlive(ctx, backend.Primary)
			}
			_ = m.IsAlive(backend.Secondary)
			_ = m.Snapshot()
		}(i)
	}
	wg.Wait()

	require.Contains(t, []State{Alive, Dead}, m.State(backend.Primary))
}

func TestMonitor_Watch(t *testing.T) {
	m, primary, secondary := newTestMonitor(t)
	secondary.SetProbeError(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Watch(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return primary.ProbeCount() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.True(t, m.IsAlive(backend.Primary))
	assert.Equal(t, Dead, m.State(backend.Secondary))
	assert.GreaterOrEqual(t, secondary.ProbeCount(), 2)
}
