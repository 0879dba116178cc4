// Package denom recursively unwraps an ibc/<hash> denomination back to
// its origin chain and base denom, per spec.md §4.6. The correct peeling
// strips exactly one (port, channel) hop per recursive step rather than
// the naive single-hop shortcut that only inspects trace.base_denom.
package denom

import (
	"context"
	"strings"

	sdkerrors "cosmossdk.io/errors"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/escrow"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/topology"
)

// TraceQuerier is the subset of *queryclient.Client the resolver needs.
type TraceQuerier interface {
	IBCDenomTrace(ctx context.Context, chain registry.ChainInfo, hash string) (queryclient.DenomTraceResponse, error)
}

// ChainResolver resolves a chain_name to its ChainInfo, implemented by
// registry.Loader.Load.
type ChainResolver interface {
	Load(chainName string) (registry.ChainInfo, error)
}

// TopologyResolver resolves the counterparty chain of a channel on a
// given chain, implemented by *topology.Resolver.
type TopologyResolver interface {
	Resolve(ctx context.Context, chain registry.ChainInfo, channelID string) (topology.CounterpartyInfo, error)
}

// DefaultMaxHops is the default MAX_HOPS bound from spec.md §6.
const DefaultMaxHops = 32

// Resolver recursively unwraps ibc/<hash> denoms to their origin.
type Resolver struct {
	trace    TraceQuerier
	chains   ChainResolver
	topology TopologyResolver
	maxHops  int
}

// NewResolver constructs a Resolver. maxHops <= 0 uses DefaultMaxHops.
func NewResolver(trace TraceQuerier, chains ChainResolver, topology TopologyResolver, maxHops int) *Resolver {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Resolver{trace: trace, chains: chains, topology: topology, maxHops: maxHops}
}

// Unwrap resolves denom as observed on chainName back to its base
// denomination and origin chain.
func (r *Resolver) Unwrap(ctx context.Context, chainName, denom string) result.UnwrapResult {
	return r.unwrap(ctx, chainName, denom, map[string]bool{}, nil)
}

func (r *Resolver) unwrap(ctx context.Context, chainName, denom string, visited map[string]bool, hops []result.Hop) result.UnwrapResult {
	if !strings.HasPrefix(denom, "ibc/") {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: true}
	}

	if visited[chainName] {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: false, Err: sdkerrors.Wrapf(result.ErrCycle, "chain %s revisited while unwrapping", chainName)}
	}
	if len(hops) >= r.maxHops {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: false, Err: sdkerrors.Wrapf(result.ErrHopLimit, "exceeded %d hops", r.maxHops)}
	}

	chain, err := r.chains.Load(chainName)
	if err != nil {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: false, Err: err}
	}

	hash := strings.TrimPrefix(denom, "ibc/")
	trace, err := r.trace.IBCDenomTrace(ctx, chain, hash)
	if err != nil {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: false, Err: err}
	}

	segments := strings.Split(trace.Path, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: hops, Complete: false, Err: sdkerrors.Wrapf(result.ErrDecodeError, "malformed denom trace path %q", trace.Path)}
	}

	port0, channel0 := segments[0], segments[1]

	counterparty, err := r.topology.Resolve(ctx, chain, channel0)
	if err != nil {
		failedHop := result.Hop{Chain: chainName, Port: port0, Channel: channel0}
		return result.UnwrapResult{BaseDenom: denom, Origin: chainName, Hops: append(append([]result.Hop{}, hops...), failedHop), Complete: false, Err: err}
	}

	remaining := strings.Join(segments[2:], "/")
	nextDenom := escrow.IBCDenomFromPath(remaining, trace.BaseDenom)

	nextHops := append(append([]result.Hop{}, hops...), result.Hop{Chain: chainName, Port: port0, Channel: channel0, Denom: nextDenom})

	visitedNext := make(map[string]bool, len(visited)+1)
	for k := range visited {
		visitedNext[k] = true
	}
	visitedNext[chainName] = true

	return r.unwrap(ctx, counterparty.ChainName, nextDenom, visitedNext, nextHops)
}
