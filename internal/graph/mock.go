package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []any
	Timestamp time.Time
}

// MockNode is a node stored by the mock.
type MockNode struct {
	ID     string
	Labels []string
	Props  map[string]any
}

// MockGraphClient is a mock implementation of GraphClient for testing.
// It provides configurable responses and tracks all method calls for verification.
type MockGraphClient struct {
	mu sync.RWMutex

	connected  bool
	nodes      []MockNode
	calls      []MockCall
	nextNodeID int

	queryResults    []QueryResult
	queryFunc       func(cypher string, params map[string]any, nodes []MockNode) (QueryResult, error)
	queryError      error
	probeError      error
	createNodeError error
}

// NewMockGraphClient creates a new, disconnected mock graph client.
func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{
		nextNodeID: 1,
	}
}

func (m *MockGraphClient) record(method string, args ...any) {
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// Connect records the call and behaves like Probe.
func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Connect")
	return m.connectLocked()
}

// Probe records the call. It succeeds and marks the mock connected unless a
// probe error is configured.
func (m *MockGraphClient) Probe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Probe")
	return m.connectLocked()
}

func (m *MockGraphClient) connectLocked() error {
	if m.probeError != nil {
		m.connected = false
		return m.probeError
	}
	m.connected = true
	return nil
}

// Close records the call and simulates disconnection.
func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")
	m.connected = false
	return nil
}

// Query records the call. A configured query func takes precedence, then
// queued results in FIFO order, then an empty result.
func (m *MockGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Query", cypher, params)

	if !m.connected {
		return QueryResult{}, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if m.queryError != nil {
		return QueryResult{}, m.queryError
	}
	if m.queryFunc != nil {
		return m.queryFunc(cypher, params, m.copyNodes())
	}
	if len(m.queryResults) > 0 {
		result := m.queryResults[0]
		m.queryResults = m.queryResults[1:]
		return result, nil
	}

	return QueryResult{
		Records: []map[string]any{},
		Columns: []string{},
	}, nil
}

// CreateNode records the call and stores the node.
func (m *MockGraphClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("CreateNode", labels, props)

	if !m.connected {
		return "", types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if m.createNodeError != nil {
		return "", m.createNodeError
	}

	id := fmt.Sprintf("mock-node-%d", m.nextNodeID)
	m.nextNodeID++

	stored := make(map[string]any, len(props))
	for k, v := range props {
		stored[k] = v
	}
	m.nodes = append(m.nodes, MockNode{ID: id, Labels: labels, Props: stored})
	return id, nil
}

// AddQueryResult queues a result for a future Query call.
func (m *MockGraphClient) AddQueryResult(result QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, result)
}

// SetQueryFunc installs a function that answers Query from the stored nodes.
func (m *MockGraphClient) SetQueryFunc(fn func(cypher string, params map[string]any, nodes []MockNode) (QueryResult, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryFunc = fn
}

// SetQueryError configures Query() to return an error.
func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// SetProbeError configures Probe() and Connect() to fail.
func (m *MockGraphClient) SetProbeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeError = err
}

// SetCreateNodeError configures CreateNode() to return an error.
func (m *MockGraphClient) SetCreateNodeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createNodeError = err
}

// GetCallsByMethod returns all calls to a specific method.
func (m *MockGraphClient) GetCallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// GetNodes returns a copy of the stored nodes in creation order.
func (m *MockGraphClient) GetNodes() []MockNode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyNodes()
}

func (m *MockGraphClient) copyNodes() []MockNode {
	nodes := make([]MockNode, len(m.nodes))
	copy(nodes, m.nodes)
	return nodes
}

// IsConnected returns whether the mock is in connected state.
func (m *MockGraphClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

var _ GraphClient = (*MockGraphClient)(nil)
