// Package backendtest provides an in-memory, call-recording backend for tests
// of code built on the backend contract.
package backendtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zero-day-ai/memrouter/internal/backend"
)

// Call is a recorded method call on a Fake.
type Call struct {
	Backend   backend.ID
	Method    string
	Resource  string
	Record    map[string]any
	Timestamp time.Time
}

// CallLog collects calls from one or more fakes in the order they happened.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

// NewCallLog creates an empty log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

func (l *CallLog) add(c Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Fake is an in-memory backend.Backend. Every method records a Call before
// doing anything else, so the log reflects attempts as well as successes.
type Fake struct {
	id  backend.ID
	log *CallLog

	mu          sync.Mutex
	records     map[string][]map[string]any
	probeErr    error
	insertErr   error
	queryErr    error
	insertDelay time.Duration
	insertHook  func(ctx context.Context, resource string, record map[string]any)
	probes      int
	inserts     int
	queries     int
}

// NewFake creates a healthy fake. log may be shared between fakes to observe
// cross-backend ordering; nil gives the fake a private log.
func NewFake(id backend.ID, log *CallLog) *Fake {
	if log == nil {
		log = NewCallLog()
	}
	return &Fake{
		id:      id,
		log:     log,
		records: make(map[string][]map[string]any),
	}
}

// Log returns the log the fake records into.
func (f *Fake) Log() *CallLog {
	return f.log
}

// SetProbeError configures the error returned by Probe (nil for healthy).
func (f *Fake) SetProbeError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeErr = err
}

// SetInsertError configures the error returned by Insert.
func (f *Fake) SetInsertError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErr = err
}

// SetQueryError configures the error returned by Query.
func (f *Fake) SetQueryError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr = err
}

// SetInsertDelay makes Insert wait d, or until ctx is done, before completing.
func (f *Fake) SetInsertDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertDelay = d
}

// SetInsertHook installs a function run inside Insert after the call is
// recorded. It is called without the fake's mutex held.
func (f *Fake) SetInsertHook(hook func(ctx context.Context, resource string, record map[string]any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertHook = hook
}

// Probe implements backend.Backend.
func (f *Fake) Probe(ctx context.Context) error {
	f.log.add(Call{Backend: f.id, Method: "Probe", Timestamp: time.Now()})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeErr
}

// Insert implements backend.Backend.
func (f *Fake) Insert(ctx context.Context, resource string, record map[string]any) error {
	f.log.add(Call{Backend: f.id, Method: "Insert", Resource: resource, Record: record, Timestamp: time.Now()})

	f.mu.Lock()
	f.inserts++
	delay, hook, insertErr := f.insertDelay, f.insertHook, f.insertErr
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, resource, record)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if insertErr != nil {
		return insertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[resource] = append(f.records[resource], record)
	return nil
}

// Query implements backend.Backend using equality on top-level fields.
func (f *Fake) Query(ctx context.Context, resource string, filter map[string]any) ([]map[string]any, error) {
	f.log.add(Call{Backend: f.id, Method: "Query", Resource: resource, Timestamp: time.Now()})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var out []map[string]any
	for _, rec := range f.records[resource] {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matches(rec, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := rec[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Records returns the records stored under resource.
func (f *Fake) Records(resource string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, len(f.records[resource]))
	copy(out, f.records[resource])
	return out
}

// ProbeCount returns how many times Probe was called.
func (f *Fake) ProbeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

// InsertCount returns how many times Insert was called.
func (f *Fake) InsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

// QueryCount returns how many times Query was called.
func (f *Fake) QueryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

var _ backend.Backend = (*Fake)(nil)
