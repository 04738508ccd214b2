package tier

import "github.com/zero-day-ai/memrouter/internal/types"

// Tier error codes
const (
	ErrCodeUnknownResource   types.ErrorCode = "UNKNOWN_RESOURCE"
	ErrCodeInvalidMembership types.ErrorCode = "INVALID_TIER_MEMBERSHIP"
)

// NewUnknownResourceError creates an error for a resource name that belongs to no tier
func NewUnknownResourceError(resource string) *types.Error {
	return types.NewError(ErrCodeUnknownResource, "unknown resource: "+resource)
}

// NewInvalidMembershipError creates an error for a malformed membership table
func NewInvalidMembershipError(message string) *types.Error {
	return types.NewError(ErrCodeInvalidMembership, message)
}
