// Package audit implements the reconciliation orchestrator (spec.md
// §4.7): it coordinates the registry, query client, escrow address
// deriver, topology resolver, and denomination resolver to compare an
// escrow account's balances against the counterparty chain's circulating
// supply of the corresponding wrapped denoms.
package audit

import (
	"context"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/denom"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/escrow"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/topology"
)

// Mode selects which balances of the primary chain's escrow account are
// audited, per spec.md §4.7.
type Mode string

const (
	// ModeQuick audits only the primary chain's native staking/fee token.
	ModeQuick Mode = "quick"
	// ModeComprehensive audits every balance held in the escrow account.
	ModeComprehensive Mode = "comprehensive"
	// ModeManual behaves like Quick but takes an explicit channel id
	// instead of the registry-cached channel pair.
	ModeManual Mode = "manual"
)

// maxWorkers bounds the per-audit worker pool (spec.md §5: default
// min(8, #tokens)).
const maxWorkers = 8

// Request describes one audit invocation.
type Request struct {
	PrimaryChain    string
	SecondaryChain  string
	Mode            Mode
	ManualChannelID string
	Reverse         bool
}

// chainPairResolver resolves a cached channel pair for two chain names.
type chainPairResolver interface {
	LoadChannelPair(chainA, chainB string) (registry.ChannelPair, bool, error)
}

// chainLoader resolves a chain name to its registry record.
type chainLoader interface {
	Load(chainName string) (registry.ChainInfo, error)
}

// balanceQuerier is the subset of *queryclient.Client the orchestrator
// calls directly (escrow.Deriver and topology.Resolver hold their own
// narrower views of the same client).
type balanceQuerier interface {
	BankBalance(ctx context.Context, chain registry.ChainInfo, address, denom string) (queryclient.Coin, error)
	BankAllBalances(ctx context.Context, chain registry.ChainInfo, address string) ([]queryclient.Coin, error)
	BankSupplyByDenom(ctx context.Context, chain registry.ChainInfo, denom string) (queryclient.Coin, error)
}

// Orchestrator runs audits end to end.
type Orchestrator struct {
	chains     chainLoader
	pairs      chainPairResolver
	query      balanceQuerier
	escrower   *escrow.Deriver
	topology   *topology.Resolver
	denom      *denom.Resolver
	escrowPort string
	logger     log.Logger
}

// New constructs an Orchestrator.
func New(
	chains chainLoader,
	pairs chainPairResolver,
	query balanceQuerier,
	escrower *escrow.Deriver,
	topologyResolver *topology.Resolver,
	denomResolver *denom.Resolver,
	escrowPort string,
	logger log.Logger,
) *Orchestrator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Orchestrator{
		chains:     chains,
		pairs:      pairs,
		query:      query,
		escrower:   escrower,
		topology:   topologyResolver,
		denom:      denomResolver,
		escrowPort: escrowPort,
		logger:     logger,
	}
}

// Run executes req, returning results ordered primary-pass first and (if
// requested) reverse-pass second, each pass preserving escrow-enumeration
// order regardless of completion order. A whole-audit error (unknown
// chain, no native token, cancellation before any token is enumerated)
// aborts and is returned directly; per-token failures are instead
// attached to that token's AuditResult with status Errored.
func (o *Orchestrator) Run(ctx context.Context, req Request) ([]result.AuditResult, error) {
	runID := uuid.New()

	primary, err := o.chains.Load(req.PrimaryChain)
	if err != nil {
		return nil, err
	}
	secondary, err := o.chains.Load(req.SecondaryChain)
	if err != nil {
		return nil, err
	}

	results, err := o.runPass(ctx, runID, req, primary, secondary)
	if err != nil {
		return nil, err
	}

	if !req.Reverse {
		return results, nil
	}

	reverseReq := req
	reverseReq.PrimaryChain, reverseReq.SecondaryChain = req.SecondaryChain, req.PrimaryChain
	reverseResults, err := o.runPass(ctx, runID, reverseReq, secondary, primary)
	if err != nil {
		return nil, err
	}

	return append(results, reverseResults...), nil
}

func (o *Orchestrator) runPass(ctx context.Context, runID uuid.UUID, req Request, primary, secondary registry.ChainInfo) ([]result.AuditResult, error) {
	channelA, channelB, err := o.resolveChannels(ctx, req, primary, secondary)
	if err != nil {
		return nil, err
	}

	escrowAddr, err := o.escrower.EscrowAddress(ctx, primary, o.escrowPort, channelA)
	if err != nil {
		return nil, sdkerrors.Wrapf(err, "deriving escrow address for %s/%s on %s", o.escrowPort, channelA, primary.ChainName)
	}

	if req.Mode == ModeComprehensive {
		return o.runComprehensive(ctx, runID, primary, secondary, channelA, channelB, escrowAddr)
	}
	return o.runQuick(ctx, runID, primary, secondary, channelA, channelB, escrowAddr)
}

// resolveChannels determines (channelOnPrimary, channelOnSecondary). A
// manual channel id always takes C4's live topology walk; otherwise a
// registry-cached ChannelPair is required (per the Open Question
// decision in SPEC_FULL.md: trusting the registry file in the non-manual
// case rather than forcing a topology walk on every quick/comprehensive
// run).
func (o *Orchestrator) resolveChannels(ctx context.Context, req Request, primary, secondary registry.ChainInfo) (string, string, error) {
	if req.ManualChannelID != "" {
		counterparty, err := o.topology.Resolve(ctx, primary, req.ManualChannelID)
		if err != nil {
			return "", "", err
		}
		return req.ManualChannelID, counterparty.ChannelID, nil
	}

	pair, ok, err := o.pairs.LoadChannelPair(primary.ChainName, secondary.ChainName)
	if err != nil {
		return "", "", sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "loading cached channel pair for %s/%s: %s", primary.ChainName, secondary.ChainName, err)
	}
	if !ok {
		return "", "", sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "no cached channel pair for %s/%s; supply a channel id", primary.ChainName, secondary.ChainName)
	}

	if pair.ChainAName == primary.ChainName {
		return pair.ChainAChannel, pair.ChainBChannel, nil
	}
	return pair.ChainBChannel, pair.ChainAChannel, nil
}

func (o *Orchestrator) runQuick(ctx context.Context, runID uuid.UUID, primary, secondary registry.ChainInfo, channelA, channelB, escrowAddr string) ([]result.AuditResult, error) {
	native, ok := primary.NativeToken()
	if !ok {
		return nil, sdkerrors.Wrapf(result.ErrNoNativeToken, "chain %s has no staking or fee token", primary.ChainName)
	}

	r := o.reconcileNative(ctx, runID, primary, secondary, escrowAddr, channelB, native)
	return []result.AuditResult{r}, nil
}

func (o *Orchestrator) runComprehensive(ctx context.Context, runID uuid.UUID, primary, secondary registry.ChainInfo, channelA, channelB, escrowAddr string) ([]result.AuditResult, error) {
	balances, err := o.query.BankAllBalances(ctx, primary, escrowAddr)
	if err != nil {
		return nil, sdkerrors.Wrapf(err, "enumerating escrow balances for %s", escrowAddr)
	}

	results := make([]result.AuditResult, len(balances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(balances)))

	for i, bal := range balances {
		i, bal := i, bal
		g.Go(func() error {
			if cancelled(gctx) {
				results[i] = cancelledResult(runID, primary.ChainName, escrowAddr, bal)
				return nil
			}
			if isWrappedDenom(bal.Denom) {
				results[i] = o.reconcileWrapped(gctx, runID, primary, escrowAddr, bal)
			} else {
				results[i] = o.reconcileNative(gctx, runID, primary, secondary, escrowAddr, channelB, bal.Denom)
			}
			return nil
		})
	}
	// reconcile* never return an error directly; every failure is captured
	// on the per-token AuditResult, so Wait has nothing left to report.
	_ = g.Wait()

	return results, nil
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func cancelledResult(runID uuid.UUID, chain, escrowAddr string, bal queryclient.Coin) result.AuditResult {
	r := result.AuditResult{
		RunID:              runID,
		Chain:              chain,
		EscrowAddress:      escrowAddr,
		Denom:              bal.Denom,
		EscrowBalance:      bal.Amount,
		CounterpartySupply: sdkmath.ZeroInt(),
		SupplyUnavailable:  true,
		Errors:             []error{sdkerrors.Wrap(result.ErrCancelled, "audit cancelled before this token completed")},
		ObservedAt:         observedAt(),
	}
	r.Finalize()
	return r
}

func workerCount(tokens int) int {
	if tokens <= 0 {
		return 1
	}
	if tokens < maxWorkers {
		return tokens
	}
	return maxWorkers
}

func isWrappedDenom(d string) bool {
	return len(d) >= 4 && d[:4] == "ibc/"
}

func (o *Orchestrator) reconcileNative(ctx context.Context, runID uuid.UUID, primary, secondary registry.ChainInfo, escrowAddr, channelB, nativeDenom string) result.AuditResult {
	r := result.AuditResult{
		RunID:              runID,
		Chain:              primary.ChainName,
		EscrowAddress:      escrowAddr,
		Denom:              nativeDenom,
		Origin:             primary.ChainName,
		Complete:           true,
		EscrowBalance:      sdkmath.ZeroInt(),
		CounterpartySupply: sdkmath.ZeroInt(),
		ObservedAt:         observedAt(),
	}

	bal, err := o.query.BankBalance(ctx, primary, escrowAddr, nativeDenom)
	if err != nil {
		r.Errors = append(r.Errors, err)
		r.SupplyUnavailable = true
		r.Finalize()
		return r
	}
	r.EscrowBalance = bal.Amount

	wrappedDenom := escrow.IBCDenom(o.escrowPort, channelB, nativeDenom)
	supply, err := o.query.BankSupplyByDenom(ctx, secondary, wrappedDenom)
	if err != nil {
		r.SupplyUnavailable = true
		r.Warnings = append(r.Warnings, "counterparty supply unavailable for "+wrappedDenom+": "+err.Error())
		r.Finalize()
		return r
	}
	r.CounterpartySupply = supply.Amount
	r.Finalize()
	return r
}

func (o *Orchestrator) reconcileWrapped(ctx context.Context, runID uuid.UUID, primary registry.ChainInfo, escrowAddr string, bal queryclient.Coin) result.AuditResult {
	r := result.AuditResult{
		RunID:              runID,
		Chain:              primary.ChainName,
		EscrowAddress:      escrowAddr,
		Denom:              bal.Denom,
		EscrowBalance:      bal.Amount,
		CounterpartySupply: sdkmath.ZeroInt(),
		ObservedAt:         observedAt(),
	}

	unwrap := o.denom.Unwrap(ctx, primary.ChainName, bal.Denom)
	r.Origin = unwrap.Origin
	r.Hops = unwrap.Hops
	r.Complete = unwrap.Complete
	if unwrap.Err != nil {
		r.Errors = append(r.Errors, unwrap.Err)
	}
	if !unwrap.Complete {
		r.SupplyUnavailable = true
		r.Finalize()
		// Finalize reports a missing supply as Errored; a trace that did not
		// resolve to its origin is reported as Incomplete instead.
		r.Status = result.StatusIncomplete
		return r
	}

	counterpartyChain := unwrap.Origin
	counterpartyDenom := unwrap.BaseDenom
	if len(unwrap.Hops) > 1 {
		counterpartyChain = unwrap.Hops[1].Chain
		counterpartyDenom = unwrap.Hops[0].Denom
	}

	counterparty, err := o.chains.Load(counterpartyChain)
	if err != nil {
		r.Errors = append(r.Errors, err)
		r.SupplyUnavailable = true
		r.Finalize()
		return r
	}

	supply, err := o.query.BankSupplyByDenom(ctx, counterparty, counterpartyDenom)
	if err != nil {
		r.SupplyUnavailable = true
		r.Warnings = append(r.Warnings, "counterparty supply unavailable for "+counterpartyDenom+" on "+counterpartyChain+": "+err.Error())
		r.Finalize()
		return r
	}
	r.CounterpartySupply = supply.Amount
	r.Finalize()
	return r
}

// observedAt is a seam for deterministic-time tests; production callers
// get wall-clock time.
var observedAt = func() time.Time { return time.Now() }
