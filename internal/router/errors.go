package router

import (
	"errors"

	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/lockmgr"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// Router error codes. Classification, governance and lock codes are owned by
// their packages and re-exported here so callers only need this package.
const (
	ErrCodeUnknownResource        = tier.ErrCodeUnknownResource
	ErrCodeGovernanceRejected     = governance.ErrCodeGovernanceRejected
	ErrCodeNotSerializable        = governance.ErrCodeNotSerializable
	ErrCodeLockCancelled          = lockmgr.ErrCodeLockCancelled
	ErrCodeBackendUnavailable     types.ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendOperationFailed types.ErrorCode = "BACKEND_OPERATION_FAILED"
	ErrCodePartialTierFailure     types.ErrorCode = "PARTIAL_TIER_FAILURE"
	ErrCodeInvalidPolicy          types.ErrorCode = "INVALID_POLICY"
	ErrCodeInvalidRouter          types.ErrorCode = "INVALID_ROUTER"
)

// NewInvalidPolicyError creates an error for a tier without a write policy
func NewInvalidPolicyError(t tier.Tier) *types.Error {
	return types.NewError(ErrCodeInvalidPolicy, "no write policy defined for tier "+t.String())
}

// NewInvalidRouterError creates an error for a router constructed with missing collaborators
func NewInvalidRouterError(message string) *types.Error {
	return types.NewError(ErrCodeInvalidRouter, message)
}

// resultError converts a code and reason into an error value. Backend
// unavailability is the only retryable outcome.
func resultError(code types.ErrorCode, reason string) *types.Error {
	if code == ErrCodeBackendUnavailable {
		return types.NewRetryableError(code, reason)
	}
	return types.NewError(code, reason)
}

// reasonOf renders err for a result's Reason without repeating the code prefix.
func reasonOf(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}
