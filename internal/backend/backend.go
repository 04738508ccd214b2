// Package backend defines the contract the memory router expects from each of
// its two stores.
package backend

import (
	"context"
	"fmt"
	"regexp"
)

// ID identifies one of the two stores the router coordinates.
type ID string

const (
	// Primary is the consistency-oriented store.
	Primary ID = "primary"
	// Secondary is the graph-oriented store.
	Secondary ID = "secondary"
)

// String returns the identifier as a string
func (id ID) String() string {
	return string(id)
}

// Prober performs a cheap liveness check.
type Prober interface {
	// Probe returns nil when the store is reachable.
	Probe(ctx context.Context) error
}

// Backend is a store the router can write to and read from.
// Implementations must be safe for concurrent use.
type Backend interface {
	Prober

	// Insert persists one enriched record under resource.
	Insert(ctx context.Context, resource string, record map[string]any) error

	// Query returns records stored under resource whose top-level fields equal
	// every entry in filter. A nil or empty filter matches all records.
	Query(ctx context.Context, resource string, filter map[string]any) ([]map[string]any, error)
}

var filterKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateFilter checks that filter keys are plain identifiers and values are
// scalars that both stores can compare.
func ValidateFilter(filter map[string]any) error {
	for k, v := range filter {
		if !filterKeyPattern.MatchString(k) {
			return NewInvalidFilterError(fmt.Sprintf("filter key %q must match %s", k, filterKeyPattern))
		}
		if !IsScalar(v) {
			return NewInvalidFilterError(fmt.Sprintf("filter value for %q has unsupported type %T", k, v))
		}
	}
	return nil
}

// IsScalar reports whether v is a value both stores can persist as a
// filterable field and compare by equality.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
