package topology

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

type fakeQuerier struct {
	channel    queryclient.ChannelResponse
	channelErr error

	connection    queryclient.ConnectionResponse
	connectionErr error

	clientState    queryclient.ClientStateResponse
	clientStateErr error
}

func (f *fakeQuerier) IBCChannel(context.Context, registry.ChainInfo, string, string) (queryclient.ChannelResponse, error) {
	return f.channel, f.channelErr
}

func (f *fakeQuerier) IBCConnection(context.Context, registry.ChainInfo, string) (queryclient.ConnectionResponse, error) {
	return f.connection, f.connectionErr
}

func (f *fakeQuerier) IBCClientState(context.Context, registry.ChainInfo, string) (queryclient.ClientStateResponse, error) {
	return f.clientState, f.clientStateErr
}

type fakeIndex struct {
	names map[string]string
}

func (f *fakeIndex) ChainNameByID(chainID string) (string, error) {
	name, ok := f.names[chainID]
	if !ok {
		return "", errors.New("not found")
	}
	return name, nil
}

func TestResolve_Success(t *testing.T) {
	querier := &fakeQuerier{
		channel: queryclient.ChannelResponse{
			CounterpartyChannelID: "channel-7",
			ConnectionHops:        []string{"connection-0"},
		},
		connection: queryclient.ConnectionResponse{
			ClientID:                 "07-tendermint-0",
			CounterpartyClientID:     "07-tendermint-5",
			CounterpartyConnectionID: "connection-9",
		},
		clientState: queryclient.ClientStateResponse{ChainID: "osmosis-1"},
	}
	index := &fakeIndex{names: map[string]string{"osmosis-1": "osmosis"}}

	resolver := NewResolver(querier, index, "transfer")
	info, err := resolver.Resolve(context.Background(), registry.ChainInfo{ChainName: "cosmoshub"}, "channel-141")

	require.NoError(t, err)
	require.Equal(t, CounterpartyInfo{
		ChainName:    "osmosis",
		ChannelID:    "channel-7",
		ConnectionID: "connection-9",
		ClientID:     "07-tendermint-5",
	}, info)
}

func TestResolve_ChannelQueryFails(t *testing.T) {
	querier := &fakeQuerier{channelErr: errors.New("endpoints exhausted")}
	resolver := NewResolver(querier, &fakeIndex{}, "transfer")

	_, err := resolver.Resolve(context.Background(), registry.ChainInfo{ChainName: "cosmoshub"}, "channel-141")
	require.ErrorIs(t, err, result.ErrTopologyResolutionFailed)
}

func TestResolve_NoConnectionHops(t *testing.T) {
	querier := &fakeQuerier{channel: queryclient.ChannelResponse{CounterpartyChannelID: "channel-7"}}
	resolver := NewResolver(querier, &fakeIndex{}, "transfer")

	_, err := resolver.Resolve(context.Background(), registry.ChainInfo{ChainName: "cosmoshub"}, "channel-141")
	require.ErrorIs(t, err, result.ErrTopologyResolutionFailed)
}

func TestResolve_UnknownCounterpartyChainID(t *testing.T) {
	querier := &fakeQuerier{
		channel: queryclient.ChannelResponse{
			CounterpartyChannelID: "channel-7",
			ConnectionHops:        []string{"connection-0"},
		},
		connection:  queryclient.ConnectionResponse{ClientID: "07-tendermint-0"},
		clientState: queryclient.ClientStateResponse{ChainID: "unknown-1"},
	}
	resolver := NewResolver(querier, &fakeIndex{names: map[string]string{}}, "transfer")

	_, err := resolver.Resolve(context.Background(), registry.ChainInfo{ChainName: "cosmoshub"}, "channel-141")
	require.ErrorIs(t, err, result.ErrTopologyResolutionFailed)
}
