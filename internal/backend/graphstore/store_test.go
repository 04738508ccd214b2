package graphstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/graph"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// evaluate answers the store's MATCH queries from the mock's stored nodes. When
// the query orders by ingestion time the nodes are compared as strings, the
// way Neo4j compares string properties.
func evaluate(cypher string, params map[string]any, nodes []graph.MockNode) (graph.QueryResult, error) {
	res := graph.QueryResult{Records: []map[string]any{}, Columns: []string{"payload"}}
	nodes = append([]graph.MockNode(nil), nodes...)
	if strings.Contains(cypher, "ORDER BY n."+governance.FieldIngestedAt) {
		sort.SliceStable(nodes, func(i, j int) bool {
			a, _ := nodes[i].Props[governance.FieldIngestedAt].(string)
			b, _ := nodes[j].Props[governance.FieldIngestedAt].(string)
			return a < b
		})
	}
	for _, n := range nodes {
		if n.Props[PropResource] != params["resource"] {
			continue
		}
		match := true
		for i := 0; ; i++ {
			k, ok := params[fmt.Sprintf("k%d", i)]
			if !ok {
				break
			}
			got, present := n.Props[k.(string)]
			if !present || fmt.Sprint(got) != fmt.Sprint(params[fmt.Sprintf("v%d", i)]) {
				match = false
				break
			}
		}
		if match {
			res.Records = append(res.Records, map[string]any{"payload": n.Props[PropPayload]})
		}
	}
	return res, nil
}

func newStore(t *testing.T) (*Store, *graph.MockGraphClient) {
	t.Helper()
	mock := graph.NewMockGraphClient()
	mock.SetQueryFunc(evaluate)
	s := New(mock)
	require.NoError(t, s.Probe(context.Background()))
	return s, mock
}

var ingestBase = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func enriched(t *testing.T, p governance.Payload) map[string]any {
	t.Helper()
	return enrichedAt(t, p, ingestBase)
}

func enrichedAt(t *testing.T, p governance.Payload, at time.Time) map[string]any {
	t.Helper()
	rec, _, err := governance.Enrich(p, tier.Coordination, at)
	require.NoError(t, err)
	return rec
}

func TestStore_Probe(t *testing.T) {
	mock := graph.NewMockGraphClient()
	s := New(mock)

	mock.SetProbeError(errors.New("connection refused"))
	err := s.Probe(context.Background())
	assert.Equal(t, backend.ErrCodeProbeFailed, types.CodeOf(err))

	mock.SetProbeError(nil)
	assert.NoError(t, s.Probe(context.Background()))
}

func TestStore_InsertCreatesNode(t *testing.T) {
	s, mock := newStore(t)
	s.newID = func() string { return "fixed-id" }

	rec := enriched(t, governance.Payload{
		"sender": "agent-1",
		"hops":   2,
		"nested": map[string]any{"a": 1},
		"list":   []any{"x"},
	})
	require.NoError(t, s.Insert(context.Background(), "agent_messages", rec))

	nodes := mock.GetNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, []string{Label}, nodes[0].Labels)

	props := nodes[0].Props
	assert.Equal(t, "fixed-id", props[PropID])
	assert.Equal(t, "agent_messages", props[PropResource])
	assert.Equal(t, "agent-1", props["sender"])
	assert.Equal(t, 2, props["hops"])
	assert.Equal(t, "coordination", props[governance.FieldTier])
	assert.NotContains(t, props, "nested")
	assert.NotContains(t, props, "list")
	assert.JSONEq(t, `{"sender":"agent-1","hops":2,"nested":{"a":1},"list":["x"],`+
		`"_checksum":"`+rec[governance.FieldChecksum].(string)+`","_tier":"coordination",`+
		`"_ingested_at":"2026-05-01T00:00:00.000000000Z"}`, props[PropPayload].(string))
}

func TestStore_InsertErrors(t *testing.T) {
	t.Run("create fails", func(t *testing.T) {
		s, mock := newStore(t)
		mock.SetCreateNodeError(errors.New("constraint"))

		err := s.Insert(context.Background(), "agent_messages", map[string]any{"k": "v"})
		assert.Equal(t, backend.ErrCodeInsertFailed, types.CodeOf(err))
	})

	t.Run("unencodable record", func(t *testing.T) {
		s, mock := newStore(t)

		err := s.Insert(context.Background(), "agent_messages", map[string]any{"f": func() {}})
		assert.Equal(t, backend.ErrCodeInsertFailed, types.CodeOf(err))
		assert.Empty(t, mock.GetCallsByMethod("CreateNode"))
	})
}

func TestStore_Query(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "agent_messages", enriched(t, governance.Payload{"sender": "a", "hops": 1})))
	require.NoError(t, s.Insert(ctx, "agent_messages", enriched(t, governance.Payload{"sender": "b", "hops": 1})))
	require.NoError(t, s.Insert(ctx, "task_assignments", enriched(t, governance.Payload{"sender": "a"})))

	rows, err := s.Query(ctx, "agent_messages", map[string]any{"sender": "b"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["sender"])
	assert.Equal(t, float64(1), rows[0]["hops"])

	rows, err = s.Query(ctx, "agent_messages", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Query(ctx, "shared_context", nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStore_ProjectedFieldsAreFilterable(t *testing.T) {
	s, mock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "agent_messages", enriched(t, governance.Payload{"sender": "a", "prio": int8(2), "hops": int16(7)})))

	props := mock.GetNodes()[0].Props
	for k, v := range props {
		if k == PropPayload {
			continue
		}
		assert.NoError(t, backend.ValidateFilter(map[string]any{k: v}), "projected property %s", k)
	}

	rows, err := s.Query(ctx, "agent_messages", map[string]any{"prio": int8(2), "hops": int16(7)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["sender"])
}

func TestStore_QueryOrdersByIngestionTime(t *testing.T) {
	s, mock := newStore(t)
	ctx := context.Background()

	inserts := []struct {
		seq string
		at  time.Duration
	}{
		{"c", time.Second},
		{"b", 500 * time.Millisecond},
		{"a", 0},
		{"d", time.Second + time.Nanosecond},
	}
	for _, in := range inserts {
		require.NoError(t, s.Insert(ctx, "agent_messages", enrichedAt(t, governance.Payload{"seq": in.seq}, ingestBase.Add(in.at))))
	}

	for _, n := range mock.GetNodes() {
		assert.Len(t, n.Props[governance.FieldIngestedAt], len("2026-05-01T00:00:00.000000000Z"))
	}

	rows, err := s.Query(ctx, "agent_messages", nil)
	require.NoError(t, err)

	var got []string
	for _, r := range rows {
		got = append(got, r["seq"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestStore_QueryErrors(t *testing.T) {
	t.Run("invalid filter", func(t *testing.T) {
		s, mock := newStore(t)

		_, err := s.Query(context.Background(), "agent_messages", map[string]any{"a.b": "x"})
		assert.Equal(t, backend.ErrCodeInvalidFilter, types.CodeOf(err))
		assert.Empty(t, mock.GetCallsByMethod("Query"))
	})

	t.Run("client failure", func(t *testing.T) {
		s, mock := newStore(t)
		mock.SetQueryError(errors.New("timeout"))

		_, err := s.Query(context.Background(), "agent_messages", nil)
		assert.Equal(t, backend.ErrCodeQueryFailed, types.CodeOf(err))
	})

	t.Run("corrupt payload", func(t *testing.T) {
		mock := graph.NewMockGraphClient()
		require.NoError(t, mock.Connect(context.Background()))
		mock.AddQueryResult(graph.QueryResult{Records: []map[string]any{{"payload": "{broken"}}})

		_, err := New(mock).Query(context.Background(), "agent_messages", nil)
		assert.Equal(t, backend.ErrCodeQueryFailed, types.CodeOf(err))
	})
}

func TestBuildQuery(t *testing.T) {
	cypher, params := buildQuery("agent_messages", map[string]any{"sender": "a", "hops": 2})

	assert.Equal(t,
		"MATCH (n:MemoryRecord {_resource: $resource}) WHERE n[$k0] = $v0 AND n[$k1] = $v1 "+
			"RETURN n._payload AS payload ORDER BY n._ingested_at, n._id",
		cypher)
	assert.Equal(t, map[string]any{
		"resource": "agent_messages",
		"k0":       "hops",
		"v0":       2,
		"k1":       "sender",
		"v1":       "a",
	}, params)

	cypher, _ = buildQuery("agent_messages", nil)
	assert.NotContains(t, cypher, "WHERE")
}
