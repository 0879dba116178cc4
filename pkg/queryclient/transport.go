package queryclient

import "context"

// transport is implemented by both the binary (gRPC) and text (REST)
// transports so the retry engine in client.go can treat them uniformly.
type transport interface {
	BankBalance(ctx context.Context, endpoint, address, denom string) (Coin, error)
	BankAllBalances(ctx context.Context, endpoint, address string) ([]Coin, error)
	BankSupplyByDenom(ctx context.Context, endpoint, denom string) (Coin, error)
	IBCChannel(ctx context.Context, endpoint, portID, channelID string) (ChannelResponse, error)
	IBCConnection(ctx context.Context, endpoint, connectionID string) (ConnectionResponse, error)
	IBCClientState(ctx context.Context, endpoint, clientID string) (ClientStateResponse, error)
	IBCDenomTrace(ctx context.Context, endpoint, hash string) (DenomTraceResponse, error)
	IBCEscrowAddress(ctx context.Context, endpoint, portID, channelID string) (string, error)
	NodeInfo(ctx context.Context, endpoint string) (NodeInfoResponse, error)
}
