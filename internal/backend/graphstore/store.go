// Package graphstore implements the secondary backend on a graph database.
//
// Each record becomes one (:MemoryRecord) node. The full record is kept as a
// JSON string in _payload and its top-level scalar fields are copied onto the
// node as properties so queries can match on them.
package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/graph"
)

// Label is the node label used for memory records.
const Label = "MemoryRecord"

// Node properties owned by the store. They are written after the record's
// own fields and therefore always win.
const (
	PropID       = "_id"
	PropResource = "_resource"
	PropPayload  = "_payload"
)

// Store is a backend.Backend over a graph.GraphClient.
type Store struct {
	client graph.GraphClient
	logger *slog.Logger
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store over client. The client does not need to be connected.
func New(client graph.GraphClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying graph client.
func (s *Store) Client() graph.GraphClient {
	return s.client
}

// Close closes the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// Probe implements backend.Prober.
func (s *Store) Probe(ctx context.Context) error {
	if err := s.client.Probe(ctx); err != nil {
		return backend.NewProbeError("graph connectivity check failed", err)
	}
	return nil
}

// Insert implements backend.Backend.
func (s *Store) Insert(ctx context.Context, resource string, record map[string]any) error {
	props, err := nodeProps(s.newID(), resource, record)
	if err != nil {
		return backend.NewInsertError("failed to encode record", err)
	}

	nodeID, err := s.client.CreateNode(ctx, []string{Label}, props)
	if err != nil {
		return backend.NewInsertError(fmt.Sprintf("failed to insert into %s", resource), err)
	}

	s.logger.DebugContext(ctx, "record inserted",
		"backend", backend.Secondary.String(),
		"resource", resource,
		"id", props[PropID],
		"node", nodeID,
	)
	return nil
}

// Query implements backend.Backend.
func (s *Store) Query(ctx context.Context, resource string, filter map[string]any) ([]map[string]any, error) {
	if err := backend.ValidateFilter(filter); err != nil {
		return nil, err
	}

	cypher, params := buildQuery(resource, filter)
	result, err := s.client.Query(ctx, cypher, params)
	if err != nil {
		return nil, backend.NewQueryError(fmt.Sprintf("failed to query %s", resource), err)
	}

	out := make([]map[string]any, 0, len(result.Records))
	for _, row := range result.Records {
		raw, ok := row["payload"].(string)
		if !ok {
			return nil, backend.NewQueryError("record has no payload", nil)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, backend.NewQueryError("failed to decode record", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// nodeProps builds the property map for a new node.
func nodeProps(id, resource string, record map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	props := make(map[string]any, len(record)+3)
	for k, v := range record {
		if backend.IsScalar(v) {
			props[k] = v
		}
	}
	props[PropID] = id
	props[PropResource] = resource
	props[PropPayload] = string(payload)
	return props, nil
}

// buildQuery renders the MATCH for resource and filter. Property names are
// passed as parameters and looked up dynamically.
func buildQuery(resource string, filter map[string]any) (string, map[string]any) {
	params := map[string]any{"resource": resource}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH (n:%s {%s: $resource})", Label, PropResource)
	for i, k := range slices.Sorted(maps.Keys(filter)) {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "n[$k%d] = $v%d", i, i)
		params[fmt.Sprintf("k%d", i)] = k
		params[fmt.Sprintf("v%d", i)] = filter[k]
	}
	fmt.Fprintf(&b, " RETURN n.%s AS payload ORDER BY n.%s, n.%s", PropPayload, governance.FieldIngestedAt, PropID)
	return b.String(), params
}

var _ backend.Backend = (*Store)(nil)
