package router

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/tier"
)

// writeOp is an enriched record ready to be applied under the resource lock.
type writeOp struct {
	resource string
	tier     tier.Tier
	checksum string
	record   governance.Payload
}

// policy applies a write to the backends. It runs while the resource lock is held.
type policy func(ctx context.Context, r *Router, op *writeOp) WriteResult

// policiesFor returns a write policy for every tier in tiers, failing on any
// tier that has none.
func policiesFor(tiers []tier.Tier) (map[tier.Tier]policy, error) {
	out := make(map[tier.Tier]policy, len(tiers))
	for _, t := range tiers {
		p, err := policyFor(t)
		if err != nil {
			return nil, err
		}
		out[t] = p
	}
	return out, nil
}

func policyFor(t tier.Tier) (policy, error) {
	switch t {
	case tier.Personal:
		return authoritative(backend.Primary, backend.Secondary), nil
	case tier.Coordination:
		return authoritative(backend.Secondary, backend.Primary), nil
	case tier.Governance:
		return bothRequired, nil
	default:
		return nil, NewInvalidPolicyError(t)
	}
}

// authoritative writes to main, which must succeed, then mirrors to mirror on
// a best-effort basis. A mirror failure never fails the write.
func authoritative(main, mirror backend.ID) policy {
	return func(ctx context.Context, r *Router, op *writeOp) WriteResult {
		res := op.result()

		sub := r.insert(ctx, main, op, true)
		res.set(sub)
		if !sub.OK() {
			res.Code = sub.Code
			res.Reason = sub.Detail
			return res
		}

		mirrored := r.insert(ctx, mirror, op, false)
		res.set(mirrored)
		if mirrored.Status == StatusFailed {
			r.logger.WarnContext(ctx, "mirror write failed",
				"resource", op.resource,
				"backend", mirror.String(),
				"error", mirrored.Detail,
			)
		}

		res.Success = true
		return res
	}
}

// bothRequired writes to the primary then the secondary. Both must succeed.
// A write that lands on only one store is reported as a partial failure and
// is not rolled back.
func bothRequired(ctx context.Context, r *Router, op *writeOp) WriteResult {
	res := op.result()

	p := r.insert(ctx, backend.Primary, op, true)
	s := r.insert(ctx, backend.Secondary, op, true)
	res.set(p)
	res.set(s)

	switch {
	case p.OK() && s.OK():
		res.Success = true
	case p.OK() || s.OK():
		failed := s
		if !p.OK() {
			failed = p
		}
		res.Code = ErrCodePartialTierFailure
		res.Reason = fmt.Sprintf("write applied to %s only; %s failed: %s",
			otherBackend(failed.Backend), failed.Backend, failed.Detail)
	default:
		res.Code = p.Code
		res.Reason = fmt.Sprintf("primary: %s; secondary: %s", p.Detail, s.Detail)
	}
	return res
}

func (op *writeOp) result() WriteResult {
	res := newWriteResult(op.resource)
	res.Tier = op.tier
	res.Checksum = op.checksum
	return res
}

// insert writes op to backend id. A required backend that is not alive gets
// one reconnect probe; an optional one is skipped without any I/O.
func (r *Router) insert(ctx context.Context, id backend.ID, op *writeOp, required bool) SubResult {
	if required {
		if !r.monitor.EnsureAlive(ctx, id) {
			return SubResult{
				Backend: id,
				Status:  StatusFailed,
				Code:    ErrCodeBackendUnavailable,
				Detail:  id.String() + " backend offline",
			}
		}
	} else if !r.monitor.IsAlive(id) {
		return skipped(id, id.String()+" backend not alive")
	}

	err := r.call(ctx, id, "insert", op.tier, func(ctx context.Context, b backend.Backend) error {
		return b.Insert(ctx, op.resource, op.record)
	})
	if err != nil {
		return SubResult{
			Backend: id,
			Status:  StatusFailed,
			Code:    ErrCodeBackendOperationFailed,
			Detail:  reasonOf(err),
		}
	}
	return SubResult{Backend: id, Status: StatusOK}
}

func otherBackend(id backend.ID) backend.ID {
	if id == backend.Primary {
		return backend.Secondary
	}
	return backend.Primary
}
