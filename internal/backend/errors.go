package backend

import "github.com/zero-day-ai/memrouter/internal/types"

// Backend error codes
const (
	ErrCodeInvalidFilter types.ErrorCode = "INVALID_FILTER"
	ErrCodeInsertFailed  types.ErrorCode = "BACKEND_INSERT_FAILED"
	ErrCodeQueryFailed   types.ErrorCode = "BACKEND_QUERY_FAILED"
	ErrCodeProbeFailed   types.ErrorCode = "BACKEND_PROBE_FAILED"
)

// NewInvalidFilterError creates an error for a filter the stores cannot evaluate
func NewInvalidFilterError(message string) *types.Error {
	return types.NewError(ErrCodeInvalidFilter, message)
}

// NewInsertError creates an error for a failed insert
func NewInsertError(message string, cause error) *types.Error {
	return types.WrapError(ErrCodeInsertFailed, message, cause)
}

// NewQueryError creates an error for a failed query
func NewQueryError(message string, cause error) *types.Error {
	return types.WrapError(ErrCodeQueryFailed, message, cause)
}

// NewProbeError creates an error for a failed liveness probe
func NewProbeError(message string, cause error) *types.Error {
	return types.WrapError(ErrCodeProbeFailed, message, cause)
}
