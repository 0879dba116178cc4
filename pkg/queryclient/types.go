package queryclient

import sdkmath "cosmossdk.io/math"

// ChannelResponse is the subset of a channel query the topology resolver
// and audit orchestrator need.
type ChannelResponse struct {
	CounterpartyChannelID string
	ConnectionHops        []string
	Ordering              string
	Version               string
	PortID                string
}

// ConnectionResponse is the subset of a connection query the topology
// resolver needs.
type ConnectionResponse struct {
	ClientID                   string
	CounterpartyClientID       string
	CounterpartyConnectionID   string
}

// ClientStateResponse carries the counterparty chain id embedded in a
// client's tracked consensus state.
type ClientStateResponse struct {
	ChainID string
}

// DenomTraceResponse is the (path, base_denom) record for an ibc/<hash>
// denom, as defined in spec.md §3.
type DenomTraceResponse struct {
	Path      string
	BaseDenom string
}

// NodeInfoResponse carries tendermint node identity info; the text
// transport fills both fields from the node's network name.
type NodeInfoResponse struct {
	ChainID string
	Network string
}

// Coin is a denom/amount pair, independent of any SDK type so both
// transports can populate it uniformly.
type Coin struct {
	Denom  string
	Amount sdkmath.Int
}
