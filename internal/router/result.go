package router

import (
	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// Status is the outcome of one backend attempt within a write.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// SubResult records what happened on a single backend during a write.
type SubResult struct {
	Backend backend.ID      `json:"backend"`
	Status  Status          `json:"status"`
	Code    types.ErrorCode `json:"code,omitempty"`
	// Detail is the error text for failures or the reason an attempt was skipped.
	Detail string `json:"detail,omitempty"`
}

// OK reports whether the backend accepted the write.
func (s SubResult) OK() bool {
	return s.Status == StatusOK
}

// Attempted reports whether the backend was actually called.
func (s SubResult) Attempted() bool {
	return s.Status == StatusOK || (s.Status == StatusFailed && s.Code == ErrCodeBackendOperationFailed)
}

func skipped(id backend.ID, why string) SubResult {
	return SubResult{Backend: id, Status: StatusSkipped, Detail: why}
}

// WriteResult is the outcome of Router.Write.
type WriteResult struct {
	Success   bool            `json:"success"`
	Resource  string          `json:"resource"`
	Tier      tier.Tier       `json:"tier,omitempty"`
	Checksum  string          `json:"checksum,omitempty"`
	Code      types.ErrorCode `json:"code,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Primary   SubResult       `json:"primary"`
	Secondary SubResult       `json:"secondary"`
}

func newWriteResult(resource string) WriteResult {
	return WriteResult{
		Resource:  resource,
		Primary:   skipped(backend.Primary, "not attempted"),
		Secondary: skipped(backend.Secondary, "not attempted"),
	}
}

func (r *WriteResult) set(s SubResult) {
	switch s.Backend {
	case backend.Primary:
		r.Primary = s
	case backend.Secondary:
		r.Secondary = s
	}
}

// Sub returns the sub-result for id.
func (r WriteResult) Sub(id backend.ID) SubResult {
	if id == backend.Secondary {
		return r.Secondary
	}
	return r.Primary
}

// IsPartial reports whether a dual-required write landed on only one store.
func (r WriteResult) IsPartial() bool {
	return r.Code == ErrCodePartialTierFailure
}

// Err returns nil for a successful write and a *types.Error otherwise.
func (r WriteResult) Err() error {
	if r.Success {
		return nil
	}
	return resultError(r.Code, r.Reason)
}

// ReadResult is the outcome of Router.Read.
type ReadResult struct {
	Success  bool             `json:"success"`
	Resource string           `json:"resource"`
	Tier     tier.Tier        `json:"tier,omitempty"`
	Backend  backend.ID       `json:"backend,omitempty"`
	Rows     []map[string]any `json:"rows"`
	Code     types.ErrorCode  `json:"code,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// Err returns nil for a successful read and a *types.Error otherwise.
func (r ReadResult) Err() error {
	if r.Success {
		return nil
	}
	return resultError(r.Code, r.Reason)
}

// HealthSnapshot is the cached liveness of both backends.
type HealthSnapshot struct {
	Primary   bool `json:"primary"`
	Secondary bool `json:"secondary"`
}
