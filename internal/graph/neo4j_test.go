package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/memrouter/internal/types"
)

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "empty URI", mutate: func(c *Config) { c.URI = "" }, wantErr: true},
		{name: "empty username", mutate: func(c *Config) { c.Username = "" }, wantErr: true},
		{name: "empty password", mutate: func(c *Config) { c.Password = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.ConnectionTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, ErrCodeGraphInvalidConfig, types.CodeOf(err))
		})
	}
}

func TestNewNeo4jClient(t *testing.T) {
	t.Run("valid config does not connect", func(t *testing.T) {
		config := DefaultConfig()
		client, err := NewNeo4jClient(config)

		require.NoError(t, err)
		assert.Equal(t, config, client.config)
		assert.Nil(t, client.driver)
	})

	t.Run("invalid config", func(t *testing.T) {
		client, err := NewNeo4jClient(Config{Username: "neo4j", Password: "password"})

		assert.Nil(t, client)
		assert.Equal(t, ErrCodeGraphInvalidConfig, types.CodeOf(err))
	})
}

func TestNeo4jClient_UnreachableServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URI = "bolt://127.0.0.1:1"
	cfg.ConnectionTimeout = 500 * time.Millisecond
	client, err := NewNeo4jClient(cfg)
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "RETURN 1", nil)
	assert.Equal(t, ErrCodeGraphConnectionClosed, types.CodeOf(err), "queries need a driver")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = client.Probe(ctx)
	assert.Equal(t, ErrCodeGraphConnectionFailed, types.CodeOf(err))

	require.NoError(t, client.Close(context.Background()))
	assert.Nil(t, client.driver)
	require.NoError(t, client.Close(context.Background()), "closing twice is a no-op")
}

func TestConvertNeo4jResult(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"name", "age"}, Values: []any{"Alice", int64(30)}},
		{Keys: []string{"name", "age"}, Values: []any{"Bob", int64(25)}},
	}

	result := convertNeo4jResult(records, nil)

	assert.Equal(t, []string{"name", "age"}, result.Columns)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Alice", result.Records[0]["name"])
	assert.Equal(t, int64(25), result.Records[1]["age"])

	empty := convertNeo4jResult(nil, nil)
	assert.Empty(t, empty.Records)
	assert.NotNil(t, empty.Columns)
}

func TestMockGraphClient_Probe(t *testing.T) {
	mock := NewMockGraphClient()
	ctx := context.Background()

	assert.False(t, mock.IsConnected())

	require.NoError(t, mock.Probe(ctx))
	assert.True(t, mock.IsConnected())

	mock.SetProbeError(errors.New("refused"))
	assert.EqualError(t, mock.Connect(ctx), "refused")
	assert.False(t, mock.IsConnected())

	assert.Len(t, mock.GetCallsByMethod("Probe"), 1)
	assert.Len(t, mock.GetCallsByMethod("Connect"), 1)
}

func TestMockGraphClient_CreateNodeAndQuery(t *testing.T) {
	mock := NewMockGraphClient()
	ctx := context.Background()

	_, err := mock.CreateNode(ctx, []string{"Thing"}, nil)
	assert.Equal(t, ErrCodeGraphConnectionClosed, types.CodeOf(err))

	require.NoError(t, mock.Connect(ctx))
	id, err := mock.CreateNode(ctx, []string{"Thing"}, map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "mock-node-1", id)

	nodes := mock.GetNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "v", nodes[0].Props["k"])

	t.Run("queued results are FIFO", func(t *testing.T) {
		mock.AddQueryResult(QueryResult{Records: []map[string]any{{"n": 1}}})
		mock.AddQueryResult(QueryResult{Records: []map[string]any{{"n": 2}}})

		first, err := mock.Query(ctx, "MATCH", nil)
		require.NoError(t, err)
		second, err := mock.Query(ctx, "MATCH", nil)
		require.NoError(t, err)
		third, err := mock.Query(ctx, "MATCH", nil)
		require.NoError(t, err)

		assert.Equal(t, 1, first.Records[0]["n"])
		assert.Equal(t, 2, second.Records[0]["n"])
		assert.Empty(t, third.Records)
	})

	t.Run("query func sees stored nodes", func(t *testing.T) {
		mock.SetQueryFunc(func(_ string, _ map[string]any, nodes []MockNode) (QueryResult, error) {
			return QueryResult{Records: []map[string]any{{"count": len(nodes)}}}, nil
		})

		res, err := mock.Query(ctx, "MATCH", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Records[0]["count"])
	})

	t.Run("query error", func(t *testing.T) {
		mock.SetQueryError(errors.New("boom"))
		_, err := mock.Query(ctx, "MATCH", nil)
		assert.EqualError(t, err, "boom")
	})
}
