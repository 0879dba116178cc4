// Package result defines the structured audit report and error taxonomy
// produced by the escrow-reconciliation engine.
package result

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// Status classifies the outcome of a single per-token reconciliation.
type Status string

const (
	// StatusBalanced means the discrepancy is zero and the trace is complete.
	StatusBalanced Status = "Balanced"
	// StatusDiscrepancy means the trace completed but escrow and supply differ.
	StatusDiscrepancy Status = "Discrepancy"
	// StatusIncomplete means a denom trace did not fully resolve to its origin.
	StatusIncomplete Status = "Incomplete"
	// StatusErrored means a hard error occurred while auditing this token.
	StatusErrored Status = "Errored"
)

// Hop is one link in a denomination's unwrap path, in traversal order from
// the chain where the ibc/<hash> denom was observed back toward its origin.
// Denom is the denomination as it appears on the chain at the far end of
// this hop (the counterparty of Chain/Port/Channel), computed by
// restripping the trace path one pair at a time per spec.md §4.6 step 6.
type Hop struct {
	Chain   string
	Port    string
	Channel string
	Denom   string
}

// UnwrapResult is the outcome of recursively resolving an ibc/<hash> denom
// back to its base denomination and origin chain.
type UnwrapResult struct {
	BaseDenom string
	Origin    string
	Hops      []Hop
	Complete  bool
	Err       error
}

// AuditResult is produced once per (chain, channel, denom) tuple audited
// and is never mutated after being returned to the caller.
type AuditResult struct {
	RunID               uuid.UUID
	Chain               string
	EscrowAddress       string
	Denom               string
	EscrowBalance       sdkmath.Int
	CounterpartySupply  sdkmath.Int
	SupplyUnavailable   bool
	Discrepancy         sdkmath.Int
	Origin              string
	Hops                []Hop
	Complete            bool
	Errors              []error
	Warnings            []string
	Status              Status
	ObservedAt          time.Time
}

// Finalize computes Discrepancy and Status from the fields already set on
// result. It must be called exactly once, after EscrowBalance and
// CounterpartySupply (or SupplyUnavailable) are known.
func (r *AuditResult) Finalize() {
	if r.SupplyUnavailable {
		r.Discrepancy = sdkmath.ZeroInt()
		r.Status = StatusErrored
		return
	}

	r.Discrepancy = r.EscrowBalance.Sub(r.CounterpartySupply)

	switch {
	case len(r.Errors) > 0:
		r.Status = StatusErrored
	case !r.Complete:
		r.Status = StatusIncomplete
	case !r.Discrepancy.IsZero():
		r.Status = StatusDiscrepancy
	default:
		r.Status = StatusBalanced
	}
}

// WorstStatus returns the most severe status across a set of results, in
// the order Errored > Incomplete > Discrepancy > Balanced, used to derive
// the process exit code.
func WorstStatus(results []AuditResult) Status {
	worst := StatusBalanced
	rank := map[Status]int{
		StatusBalanced:    0,
		StatusDiscrepancy: 1,
		StatusIncomplete:  2,
		StatusErrored:     3,
	}
	for _, r := range results {
		if rank[r.Status] > rank[worst] {
			worst = r.Status
		}
	}
	return worst
}

// ExitCode maps a Status to the CLI exit code documented for `audit`.
func ExitCode(s Status) int {
	switch s {
	case StatusBalanced:
		return 0
	case StatusDiscrepancy:
		return 1
	case StatusIncomplete:
		return 2
	default:
		return 3
	}
}
