// Package topology resolves the counterparty side of an IBC channel by
// walking channel -> connection -> client state, per spec.md §4.4.
package topology

import (
	"context"

	sdkerrors "cosmossdk.io/errors"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

// Querier is the subset of *queryclient.Client the resolver needs,
// narrowed to an interface so tests can substitute a fake.
type Querier interface {
	IBCChannel(ctx context.Context, chain registry.ChainInfo, portID, channelID string) (queryclient.ChannelResponse, error)
	IBCConnection(ctx context.Context, chain registry.ChainInfo, connectionID string) (queryclient.ConnectionResponse, error)
	IBCClientState(ctx context.Context, chain registry.ChainInfo, clientID string) (queryclient.ClientStateResponse, error)
}

// ChainIndex maps an on-chain chain_id to the locally known chain_name,
// implemented by registry.Loader.
type ChainIndex interface {
	ChainNameByID(chainID string) (string, error)
}

// CounterpartyInfo is the result of a successful topology walk.
type CounterpartyInfo struct {
	ChainName    string
	ChannelID    string
	ConnectionID string
	ClientID     string
}

// Resolver walks channel -> connection -> client state to identify the
// chain on the other end of an IBC channel.
type Resolver struct {
	querier Querier
	index   ChainIndex
	port    string
}

// NewResolver constructs a Resolver. port is the transfer module's port
// id (audit.escrow_port, default "transfer").
func NewResolver(querier Querier, index ChainIndex, port string) *Resolver {
	return &Resolver{querier: querier, index: index, port: port}
}

// Resolve returns the counterparty chain, channel, connection, and
// client ids for channelID on chain, per the three-query walk in
// spec.md §4.4.
func (r *Resolver) Resolve(ctx context.Context, chain registry.ChainInfo, channelID string) (CounterpartyInfo, error) {
	channel, err := r.querier.IBCChannel(ctx, chain, r.port, channelID)
	if err != nil {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "querying channel %s/%s on %s: %s", r.port, channelID, chain.ChainName, err)
	}
	if len(channel.ConnectionHops) == 0 {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "channel %s/%s on %s has no connection hops", r.port, channelID, chain.ChainName)
	}
	connectionID := channel.ConnectionHops[0]

	connection, err := r.querier.IBCConnection(ctx, chain, connectionID)
	if err != nil {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "querying connection %s on %s: %s", connectionID, chain.ChainName, err)
	}

	clientState, err := r.querier.IBCClientState(ctx, chain, connection.ClientID)
	if err != nil {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "querying client state %s on %s: %s", connection.ClientID, chain.ChainName, err)
	}
	if clientState.ChainID == "" {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "client state %s on %s has no chain_id", connection.ClientID, chain.ChainName)
	}

	chainName, err := r.index.ChainNameByID(clientState.ChainID)
	if err != nil {
		return CounterpartyInfo{}, sdkerrors.Wrapf(result.ErrTopologyResolutionFailed, "mapping chain_id %s to a known chain: %s", clientState.ChainID, err)
	}

	return CounterpartyInfo{
		ChainName:    chainName,
		ChannelID:    channel.CounterpartyChannelID,
		ConnectionID: connection.CounterpartyConnectionID,
		ClientID:     connection.CounterpartyClientID,
	}, nil
}
