package result

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestFinalizeBalanced(t *testing.T) {
	t.Parallel()

	r := AuditResult{
		EscrowBalance:      sdkmath.NewInt(1_000_000),
		CounterpartySupply: sdkmath.NewInt(1_000_000),
		Complete:           true,
	}
	r.Finalize()
	require.True(t, r.Discrepancy.IsZero())
	require.Equal(t, StatusBalanced, r.Status)
}

func TestFinalizeDiscrepancy(t *testing.T) {
	t.Parallel()

	r := AuditResult{
		EscrowBalance:      sdkmath.NewInt(1_000_000),
		CounterpartySupply: sdkmath.NewInt(900_000),
		Complete:           true,
	}
	r.Finalize()
	require.Equal(t, sdkmath.NewInt(100_000), r.Discrepancy)
	require.Equal(t, StatusDiscrepancy, r.Status)
}

func TestFinalizeIncomplete(t *testing.T) {
	t.Parallel()

	r := AuditResult{
		EscrowBalance:      sdkmath.NewInt(1),
		CounterpartySupply: sdkmath.NewInt(1),
		Complete:           false,
	}
	r.Finalize()
	require.Equal(t, StatusIncomplete, r.Status)
}

func TestFinalizeErroredOnSubErrors(t *testing.T) {
	t.Parallel()

	r := AuditResult{
		EscrowBalance:      sdkmath.NewInt(1),
		CounterpartySupply: sdkmath.NewInt(1),
		Complete:           true,
		Errors:             []error{ErrTopologyResolutionFailed},
	}
	r.Finalize()
	require.Equal(t, StatusErrored, r.Status)
}

func TestFinalizeErroredOnUnavailableSupply(t *testing.T) {
	t.Parallel()

	r := AuditResult{
		EscrowBalance:     sdkmath.NewInt(500),
		SupplyUnavailable: true,
		Complete:          true,
	}
	r.Finalize()
	require.Equal(t, StatusErrored, r.Status)
	require.True(t, r.EscrowBalance.Equal(sdkmath.NewInt(500)), "raw escrow value must be kept, not zeroed")
	require.NotPanics(t, func() { _ = r.Discrepancy.String() }, "Discrepancy must be a safe zero value, not a nil-wrapped Int")
	require.True(t, r.Discrepancy.IsZero())
}

func TestWorstStatus(t *testing.T) {
	t.Parallel()

	results := []AuditResult{
		{Status: StatusBalanced},
		{Status: StatusDiscrepancy},
		{Status: StatusIncomplete},
	}
	require.Equal(t, StatusIncomplete, WorstStatus(results))
	require.Equal(t, 2, ExitCode(WorstStatus(results)))
}
