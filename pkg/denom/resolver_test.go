package denom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/escrow"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/topology"
)

type fakeTraceQuerier struct {
	traces map[string]queryclient.DenomTraceResponse // keyed by "chainName/hash"
	errs   map[string]error
}

func (f *fakeTraceQuerier) IBCDenomTrace(_ context.Context, chain registry.ChainInfo, hash string) (queryclient.DenomTraceResponse, error) {
	key := chain.ChainName + "/" + hash
	if err, ok := f.errs[key]; ok {
		return queryclient.DenomTraceResponse{}, err
	}
	trace, ok := f.traces[key]
	if !ok {
		return queryclient.DenomTraceResponse{}, errors.New("no trace for " + key)
	}
	return trace, nil
}

type fakeChainResolver struct {
	chains map[string]registry.ChainInfo
}

func (f *fakeChainResolver) Load(chainName string) (registry.ChainInfo, error) {
	chain, ok := f.chains[chainName]
	if !ok {
		return registry.ChainInfo{}, result.ErrChainUnknown
	}
	return chain, nil
}

type fakeTopologyResolver struct {
	// byChannel maps "chainName/channelID" to the counterparty chain name.
	byChannel map[string]string
}

func (f *fakeTopologyResolver) Resolve(_ context.Context, chain registry.ChainInfo, channelID string) (topology.CounterpartyInfo, error) {
	name, ok := f.byChannel[chain.ChainName+"/"+channelID]
	if !ok {
		return topology.CounterpartyInfo{}, errors.New("no counterparty for " + chain.ChainName + "/" + channelID)
	}
	return topology.CounterpartyInfo{ChainName: name}, nil
}

func chainSet(names ...string) map[string]registry.ChainInfo {
	out := map[string]registry.ChainInfo{}
	for _, n := range names {
		out[n] = registry.ChainInfo{ChainName: n}
	}
	return out
}

func TestUnwrap_NotIBCDenomIsAlreadyOrigin(t *testing.T) {
	r := NewResolver(&fakeTraceQuerier{}, &fakeChainResolver{chains: chainSet("cosmoshub")}, &fakeTopologyResolver{}, 0)

	res := r.Unwrap(context.Background(), "cosmoshub", "uatom")
	require.True(t, res.Complete)
	require.Equal(t, "uatom", res.BaseDenom)
	require.Equal(t, "cosmoshub", res.Origin)
	require.Empty(t, res.Hops)
}

func TestUnwrap_SingleHop(t *testing.T) {
	trace := &fakeTraceQuerier{traces: map[string]queryclient.DenomTraceResponse{
		"cosmoshub/HASH1": {Path: "transfer/channel-141", BaseDenom: "uosmo"},
	}}
	chains := &fakeChainResolver{chains: chainSet("cosmoshub", "osmosis")}
	topo := &fakeTopologyResolver{byChannel: map[string]string{
		"cosmoshub/channel-141": "osmosis",
	}}

	r := NewResolver(trace, chains, topo, 0)
	res := r.Unwrap(context.Background(), "cosmoshub", "ibc/HASH1")

	require.True(t, res.Complete)
	require.Equal(t, "uosmo", res.BaseDenom)
	require.Equal(t, "osmosis", res.Origin)
	require.Equal(t, []result.Hop{{Chain: "cosmoshub", Port: "transfer", Channel: "channel-141", Denom: "uosmo"}}, res.Hops)
}

func TestUnwrap_MultiHopPeelsOnePairPerStep(t *testing.T) {
	// Denom observed on chain-C traveled C <- B <- A, so trace.path on C is
	// "transfer/channel-c-b/transfer/channel-b-a" with base uatom. Peeling
	// must strip one pair at a time: first hop resolves to chain-B with
	// denom ibc/hash(transfer/channel-b-a/uatom), which then peels to
	// chain-A's uatom directly.
	hopToB := escrowHash(t, "transfer/channel-b-a", "uatom")

	trace := &fakeTraceQuerier{traces: map[string]queryclient.DenomTraceResponse{
		"chain-c/HASHC":           {Path: "transfer/channel-c-b/transfer/channel-b-a", BaseDenom: "uatom"},
		"chain-b/" + hopToB:       {Path: "transfer/channel-b-a", BaseDenom: "uatom"},
	}}
	chains := &fakeChainResolver{chains: chainSet("chain-a", "chain-b", "chain-c")}
	topo := &fakeTopologyResolver{byChannel: map[string]string{
		"chain-c/channel-c-b": "chain-b",
		"chain-b/channel-b-a": "chain-a",
	}}

	r := NewResolver(trace, chains, topo, 0)
	res := r.Unwrap(context.Background(), "chain-c", "ibc/HASHC")

	require.True(t, res.Complete)
	require.Equal(t, "uatom", res.BaseDenom)
	require.Equal(t, "chain-a", res.Origin)
	require.Equal(t, []result.Hop{
		{Chain: "chain-c", Port: "transfer", Channel: "channel-c-b", Denom: "ibc/" + hopToB},
		{Chain: "chain-b", Port: "transfer", Channel: "channel-b-a", Denom: "uatom"},
	}, res.Hops)
}

func TestUnwrap_CycleDetected(t *testing.T) {
	trace := &fakeTraceQuerier{traces: map[string]queryclient.DenomTraceResponse{
		"chain-a/HASH1": {Path: "transfer/channel-0", BaseDenom: "ibc/HASH1"},
	}}
	chains := &fakeChainResolver{chains: chainSet("chain-a", "chain-b")}
	topo := &fakeTopologyResolver{byChannel: map[string]string{
		"chain-a/channel-0": "chain-b",
	}}

	r := NewResolver(trace, chains, topo, 0)
	// chain-b has no trace configured so unwrapping ibc/HASH1 there fails
	// naturally; instead force a cycle by resolving back to chain-a.
	topo.byChannel["chain-a/channel-0"] = "chain-a"

	res := r.Unwrap(context.Background(), "chain-a", "ibc/HASH1")
	require.False(t, res.Complete)
	require.ErrorIs(t, res.Err, result.ErrCycle)
}

func TestUnwrap_HopLimitExceeded(t *testing.T) {
	r := NewResolver(&fakeTraceQuerier{}, &fakeChainResolver{}, &fakeTopologyResolver{}, 0)
	hops := make([]result.Hop, DefaultMaxHops)
	res := r.unwrap(context.Background(), "chain-a", "ibc/HASH1", map[string]bool{}, hops)

	require.False(t, res.Complete)
	require.ErrorIs(t, res.Err, result.ErrHopLimit)
}

func TestUnwrap_MalformedTracePath(t *testing.T) {
	trace := &fakeTraceQuerier{traces: map[string]queryclient.DenomTraceResponse{
		"chain-a/HASH1": {Path: "transfer", BaseDenom: "uatom"},
	}}
	chains := &fakeChainResolver{chains: chainSet("chain-a")}
	r := NewResolver(trace, chains, &fakeTopologyResolver{}, 0)

	res := r.Unwrap(context.Background(), "chain-a", "ibc/HASH1")
	require.False(t, res.Complete)
	require.ErrorIs(t, res.Err, result.ErrDecodeError)
}

func TestUnwrap_TopologyResolutionFailureKeepsHop(t *testing.T) {
	trace := &fakeTraceQuerier{traces: map[string]queryclient.DenomTraceResponse{
		"chain-a/HASH1": {Path: "transfer/channel-0", BaseDenom: "uatom"},
	}}
	chains := &fakeChainResolver{chains: chainSet("chain-a")}
	r := NewResolver(trace, chains, &fakeTopologyResolver{}, 0)

	res := r.Unwrap(context.Background(), "chain-a", "ibc/HASH1")
	require.False(t, res.Complete)
	require.Len(t, res.Hops, 1)
}

func escrowHash(t *testing.T, path, base string) string {
	t.Helper()
	d := escrow.IBCDenomFromPath(path, base)
	require.True(t, len(d) > 4)
	return d[4:]
}
