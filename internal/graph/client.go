package graph

import (
	"context"
	"time"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// GraphClient provides an interface for graph database operations.
// Implementations must be thread-safe for concurrent access.
type GraphClient interface {
	// Connect establishes a connection to the graph database.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	Close(ctx context.Context) error

	// Probe makes a single connectivity attempt, creating the driver first if
	// needed. It never retries.
	Probe(ctx context.Context) error

	// Query executes a read-only Cypher query with the given parameters.
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// CreateNode creates a new node with the specified labels and properties.
	// Returns the element ID of the created node.
	CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error)
}

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	ExecutionTime time.Duration
	NodesCreated  int
	PropertiesSet int
}

// Config contains configuration options for graph database clients.
type Config struct {
	// URI is the connection URI, e.g. "bolt://host:7687" or "neo4j+s://host".
	// Encryption is selected by the scheme.
	URI string `mapstructure:"uri" yaml:"uri" json:"uri" validate:"required"`

	Username string `mapstructure:"username" yaml:"username" json:"username" validate:"required"`
	Password string `mapstructure:"password" yaml:"password" json:"-" validate:"required"`

	// Database name to connect to. Empty uses the server default.
	Database string `mapstructure:"database" yaml:"database" json:"database"`

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size" json:"max_connection_pool_size"`

	// ConnectionTimeout is the maximum time to wait for a pooled connection.
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" json:"connection_timeout" validate:"gt=0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:                   "bolt://localhost:7687",
		Username:              "neo4j",
		Password:              "password",
		MaxConnectionPoolSize: 50,
		ConnectionTimeout:     30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	return nil
}
