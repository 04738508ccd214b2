package observability

import "github.com/zero-day-ai/memrouter/internal/types"

// Observability error codes
const (
	ErrCodeInvalidConfig      types.ErrorCode = "OBSERVABILITY_INVALID_CONFIG"
	ErrCodeExporterConnection types.ErrorCode = "OBSERVABILITY_EXPORTER_CONNECTION"
	ErrCodeShutdownTimeout    types.ErrorCode = "OBSERVABILITY_SHUTDOWN_TIMEOUT"
	ErrCodeLogOutput          types.ErrorCode = "OBSERVABILITY_LOG_OUTPUT"
)

// NewExporterConnectionError reports an exporter that could not be created
// for endpoint. Exporter failures are usually transient.
func NewExporterConnectionError(endpoint string, cause error) *types.Error {
	err := types.WrapError(ErrCodeExporterConnection, "failed to connect exporter to "+endpoint, cause)
	err.Retryable = true
	return err
}

func invalidConfig(section string, cause error) *types.Error {
	return types.WrapError(ErrCodeInvalidConfig, "invalid "+section+" configuration", cause)
}

func newLogOutputError(path string, cause error) *types.Error {
	return types.WrapError(ErrCodeLogOutput, "failed to open log output "+path, cause)
}

func newShutdownError(what string, cause error) *types.Error {
	return types.WrapError(ErrCodeShutdownTimeout, "failed to shut down "+what, cause)
}
