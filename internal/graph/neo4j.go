package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// Neo4jClient implements GraphClient for Neo4j graph databases.
type Neo4jClient struct {
	config Config

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// No connection is attempted until Connect or Probe is called.
func NewNeo4jClient(config Config) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Neo4jClient{
		config: config,
	}, nil
}

// getDriver returns the driver, creating it on first use. Creating a driver
// does not open any connections.
func (c *Neo4jClient) getDriver() (neo4j.DriverWithContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver != nil {
		return c.driver, nil
	}

	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")
	driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, func(config *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.SocketConnectTimeout = c.config.ConnectionTimeout
	})
	if err != nil {
		return nil, types.WrapError(ErrCodeGraphConnectionFailed, "failed to create driver", err)
	}
	c.driver = driver
	return driver, nil
}

func (c *Neo4jClient) connectedDriver() (neo4j.DriverWithContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return nil, types.NewError(ErrCodeGraphConnectionClosed, "driver not connected")
	}
	return c.driver, nil
}

// Connect creates the driver and verifies connectivity once.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	return c.Probe(ctx)
}

// Probe implements GraphClient.
func (c *Neo4jClient) Probe(ctx context.Context) error {
	driver, err := c.getDriver()
	if err != nil {
		return err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionFailed, "connectivity check failed", err)
	}
	return nil
}

// Close releases all resources and closes the database connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed,
			"failed to close driver", err)
	}

	c.driver = nil
	return nil
}

// Query executes a Cypher query in a read transaction.
func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	driver, err := c.connectedDriver()
	if err != nil {
		return QueryResult{}, err
	}

	startTime := time.Now()

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		summary, err := neoResult.Consume(ctx)
		if err != nil {
			return nil, err
		}

		return convertNeo4jResult(records, summary), nil
	})
	if err != nil {
		return QueryResult{}, types.WrapError(ErrCodeGraphQueryFailed,
			"query execution failed", err)
	}

	queryResult := result.(QueryResult)
	queryResult.Summary.ExecutionTime = time.Since(startTime)

	return queryResult, nil
}

// CreateNode creates a new node with the specified labels and properties.
func (c *Neo4jClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	driver, err := c.connectedDriver()
	if err != nil {
		return "", err
	}

	var labelStr strings.Builder
	for _, label := range labels {
		labelStr.WriteString(":")
		labelStr.WriteString(label)
	}
	cypher := fmt.Sprintf("CREATE (n%s) SET n = $props RETURN elementId(n) AS id", labelStr.String())

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}

		record, err := neoResult.Single(ctx)
		if err != nil {
			return nil, err
		}

		id, ok := record.Get("id")
		if !ok {
			return nil, fmt.Errorf("id not found in result")
		}

		return id.(string), nil
	})
	if err != nil {
		return "", types.WrapError(ErrCodeGraphNodeCreateFailed,
			"failed to create node", err)
	}

	return result.(string), nil
}

// convertNeo4jResult converts Neo4j records and summary to our QueryResult format.
func convertNeo4jResult(records []*neo4j.Record, summary neo4j.ResultSummary) QueryResult {
	result := QueryResult{
		Records: make([]map[string]any, 0, len(records)),
		Columns: []string{},
	}

	if len(records) > 0 {
		result.Columns = records[0].Keys
	}

	for _, record := range records {
		recordMap := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			recordMap[key] = record.Values[i]
		}
		result.Records = append(result.Records, recordMap)
	}

	if summary != nil && summary.Counters() != nil {
		counters := summary.Counters()
		result.Summary = QuerySummary{
			NodesCreated:  counters.NodesCreated(),
			PropertiesSet: counters.PropertiesSet(),
		}
	}

	return result
}

var _ GraphClient = (*Neo4jClient)(nil)
