package governance

import "github.com/zero-day-ai/memrouter/internal/types"

// Governance error codes
const (
	ErrCodeGovernanceRejected types.ErrorCode = "GOVERNANCE_REJECTED"
	ErrCodeNotSerializable    types.ErrorCode = "PAYLOAD_NOT_SERIALIZABLE"
	ErrCodeInvalidConfig      types.ErrorCode = "INVALID_GOVERNANCE_CONFIG"
)

// NewNotSerializableError creates an error for payloads without a canonical JSON form
func NewNotSerializableError(cause error) *types.Error {
	return types.WrapError(ErrCodeNotSerializable, "payload cannot be canonically serialized", cause)
}

// NewInvalidConfigError creates an error for invalid gate configuration
func NewInvalidConfigError(message string) *types.Error {
	return types.NewError(ErrCodeInvalidConfig, message)
}
