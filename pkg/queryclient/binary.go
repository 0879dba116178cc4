package queryclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/types/query"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v10/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v10/modules/core/04-channel/types"
	ibctm "github.com/cosmos/ibc-go/v10/modules/light-clients/07-tendermint"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	ibctransfertypes "github.com/cosmos/ibc-go/v10/modules/apps/transfer/types"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

const (
	grpcKeepaliveTime    = 30 * time.Second
	grpcKeepaliveTimeout = 5 * time.Second
	grpcMaxMessageBytes  = 100 * 1024 * 1024
)

// BinaryTransport issues typed gRPC queries against a pool of per-endpoint
// persistent connections. One connection is kept open per endpoint with
// keep-alives configured; Close evicts the whole pool on shutdown.
type BinaryTransport struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewBinaryTransport constructs an empty connection pool.
func NewBinaryTransport() *BinaryTransport {
	return &BinaryTransport{conns: make(map[string]*grpc.ClientConn)}
}

func (t *BinaryTransport) conn(endpoint string) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[endpoint]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                grpcKeepaliveTime,
			Timeout:             grpcKeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(grpcMaxMessageBytes),
			grpc.MaxCallSendMsgSize(grpcMaxMessageBytes),
		),
	)
	if err != nil {
		return nil, sdkerrors.Wrapf(err, "dialing %s", endpoint)
	}

	t.conns[endpoint] = conn
	return conn, nil
}

// Close evicts every pooled connection. Call on process shutdown.
func (t *BinaryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for endpoint, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = sdkerrors.Wrapf(err, "closing connection to %s", endpoint)
		}
		delete(t.conns, endpoint)
	}
	return firstErr
}

func (t *BinaryTransport) BankBalance(ctx context.Context, endpoint, address, denom string) (Coin, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return Coin{}, err
	}
	res, err := banktypes.NewQueryClient(conn).Balance(ctx, &banktypes.QueryBalanceRequest{
		Address: address,
		Denom:   denom,
	})
	if err != nil {
		return Coin{}, err
	}
	return Coin{Denom: res.Balance.Denom, Amount: res.Balance.Amount}, nil
}

func (t *BinaryTransport) BankAllBalances(ctx context.Context, endpoint, address string) ([]Coin, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return nil, err
	}

	var out []Coin
	var pageKey []byte
	for {
		var pageReq *query.PageRequest
		if len(pageKey) > 0 {
			pageReq = &query.PageRequest{Key: pageKey}
		}
		res, err := banktypes.NewQueryClient(conn).AllBalances(ctx, &banktypes.QueryAllBalancesRequest{
			Address:    address,
			Pagination: pageReq,
		})
		if err != nil {
			return nil, err
		}
		for _, c := range res.Balances {
			out = append(out, Coin{Denom: c.Denom, Amount: c.Amount})
		}
		if res.Pagination == nil || len(res.Pagination.NextKey) == 0 {
			break
		}
		pageKey = res.Pagination.NextKey
	}
	return out, nil
}

func (t *BinaryTransport) BankSupplyByDenom(ctx context.Context, endpoint, denom string) (Coin, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return Coin{}, err
	}
	res, err := banktypes.NewQueryClient(conn).SupplyOf(ctx, &banktypes.QuerySupplyOfRequest{Denom: denom})
	if err != nil {
		return Coin{}, err
	}
	return Coin{Denom: res.Amount.Denom, Amount: res.Amount.Amount}, nil
}

func (t *BinaryTransport) IBCChannel(ctx context.Context, endpoint, portID, channelID string) (ChannelResponse, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return ChannelResponse{}, err
	}
	res, err := channeltypes.NewQueryClient(conn).Channel(ctx, &channeltypes.QueryChannelRequest{
		PortId:    portID,
		ChannelId: channelID,
	})
	if err != nil {
		return ChannelResponse{}, err
	}
	if res.Channel == nil || len(res.Channel.ConnectionHops) == 0 {
		return ChannelResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "channel response missing connection hops")
	}
	return ChannelResponse{
		CounterpartyChannelID: res.Channel.Counterparty.ChannelId,
		ConnectionHops:        res.Channel.ConnectionHops,
		Ordering:              res.Channel.Ordering.String(),
		Version:               res.Channel.Version,
		PortID:                portID,
	}, nil
}

func (t *BinaryTransport) IBCConnection(ctx context.Context, endpoint, connectionID string) (ConnectionResponse, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return ConnectionResponse{}, err
	}
	res, err := connectiontypes.NewQueryClient(conn).Connection(ctx, &connectiontypes.QueryConnectionRequest{
		ConnectionId: connectionID,
	})
	if err != nil {
		return ConnectionResponse{}, err
	}
	if res.Connection == nil {
		return ConnectionResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "empty connection response")
	}
	return ConnectionResponse{
		ClientID:                 res.Connection.ClientId,
		CounterpartyClientID:     res.Connection.Counterparty.ClientId,
		CounterpartyConnectionID: res.Connection.Counterparty.ConnectionId,
	}, nil
}

func (t *BinaryTransport) IBCClientState(ctx context.Context, endpoint, clientID string) (ClientStateResponse, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return ClientStateResponse{}, err
	}
	res, err := clienttypes.NewQueryClient(conn).ClientState(ctx, &clienttypes.QueryClientStateRequest{
		ClientId: clientID,
	})
	if err != nil {
		return ClientStateResponse{}, err
	}
	if res.ClientState == nil {
		return ClientStateResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "empty client state response")
	}

	exportedState, err := clienttypes.UnpackClientState(res.ClientState)
	if err != nil {
		return ClientStateResponse{}, sdkerrors.Wrap(result.ErrDecodeError, err.Error())
	}
	tmState, ok := exportedState.(*ibctm.ClientState)
	if !ok {
		return ClientStateResponse{}, sdkerrors.Wrapf(result.ErrDecodeError, "unsupported client type %T", exportedState)
	}
	return ClientStateResponse{ChainID: tmState.ChainId}, nil
}

func (t *BinaryTransport) IBCDenomTrace(ctx context.Context, endpoint, hash string) (DenomTraceResponse, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return DenomTraceResponse{}, err
	}
	res, err := ibctransfertypes.NewQueryClient(conn).DenomTrace(ctx, &ibctransfertypes.QueryDenomTraceRequest{
		Hash: hash,
	})
	if err != nil {
		return DenomTraceResponse{}, err
	}
	if res.DenomTrace == nil {
		return DenomTraceResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "empty denom trace response")
	}
	return DenomTraceResponse{Path: res.DenomTrace.Path, BaseDenom: res.DenomTrace.BaseDenom}, nil
}

func (t *BinaryTransport) IBCEscrowAddress(ctx context.Context, endpoint, portID, channelID string) (string, error) {
	conn, err := t.conn(endpoint)
	if err != nil {
		return "", err
	}
	res, err := ibctransfertypes.NewQueryClient(conn).EscrowAddress(ctx, &ibctransfertypes.QueryEscrowAddressRequest{
		PortId:    portID,
		ChannelId: channelID,
	})
	if err != nil {
		return "", err
	}
	return res.EscrowAddress, nil
}

func (t *BinaryTransport) NodeInfo(ctx context.Context, endpoint string) (NodeInfoResponse, error) {
	// Tendermint node-identity info is not exposed by the bank/IBC query
	// services; a dedicated cmtservice client would be dialed the same
	// way as the others above. Left unimplemented on the binary path:
	// Client.NodeInfo gets this error from every gRPC endpoint and then
	// falls back to the text transport (see text.go).
	return NodeInfoResponse{}, fmt.Errorf("binary transport: node info not supported, use text transport")
}
