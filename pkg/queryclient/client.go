package queryclient

import (
	"context"
	"errors"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

// Client is the uniform request interface over a chain's ordered endpoint
// list described in spec.md §4.2: it tries the binary transport across
// every configured binary endpoint in order, then falls back to the text
// transport across every configured text endpoint, applying retry with
// exponential backoff and endpoint rotation within each transport.
//
// Client is safe for concurrent use; it is intended to be a process-wide
// singleton, shared by every audit running in the process.
type Client struct {
	cfg     Config
	binary  transport
	text    transport
	logger  log.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger overrides the no-op default logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New constructs a Client. binary may be nil for text-only deployments.
func New(cfg Config, binary, text transport, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		binary: binary,
		text:   text,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// attemptFunc performs one attempt of an operation against a single
// endpoint of a single transport.
type attemptFunc[T any] func(ctx context.Context, endpoint string) (T, error)

// callWithRetry drives the per-endpoint retry/backoff/rotation loop
// described in spec.md §4.2. It returns the decoded result, the number of
// attempts made, and an error classifying why every endpoint failed.
func callWithRetry[T any](ctx context.Context, cfg Config, endpoints []string, attempt attemptFunc[T]) (T, int, error) {
	var zero T
	var lastErr error
	attempts := 0

	for _, endpoint := range endpoints {
		for try := 1; try <= cfg.Retries; try++ {
			attempts++

			attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			res, err := attempt(attemptCtx, endpoint)
			cancel()

			if err == nil {
				return res, attempts, nil
			}
			lastErr = err

			switch classify(err) {
			case classFailFast:
				return zero, attempts, sdkerrors.Wrap(result.ErrClientError, err.Error())
			case classNoRetryRotate:
				try = cfg.Retries // stop retrying this endpoint, rotate
			case classRetryBackoff:
				if try < cfg.Retries {
					delay := cfg.BaseDelay * time.Duration(uint64(1)<<uint(try-1))
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return zero, attempts, ctx.Err()
					}
				}
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}
	return zero, attempts, sdkerrors.Wrapf(result.ErrEndpointsExhausted, "attempted %d times across %d endpoints: %s", attempts, len(endpoints), lastErr)
}

// run applies the binary-then-text selection policy for one operation.
// A classFailFast error aborts immediately without falling back to the
// text transport (P8: a single non-retryable 4xx yields exactly one
// attempt total).
func run[T any](ctx context.Context, c *Client, op Operation, chain registry.ChainInfo, binaryAttempt, textAttempt attemptFunc[T]) (T, error) {
	var zero T

	if c.cfg.UseBinaryTransport && c.binary != nil && len(chain.GRPC) > 0 && binaryAttempt != nil {
		res, _, err := callWithRetry(ctx, c.cfg, chain.GRPC, binaryAttempt)
		if err == nil {
			return res, nil
		}
		if sdkerrors.IsOf(err, result.ErrClientError) {
			return zero, err
		}
		c.logger.Debug("binary transport exhausted, falling back to text transport", "operation", string(op), "chain", chain.ChainName, "err", err)
	}

	if c.text == nil || len(chain.REST) == 0 || textAttempt == nil {
		return zero, sdkerrors.Wrapf(result.ErrEndpointsExhausted, "%s: no usable endpoints for chain %s", op, chain.ChainName)
	}

	res, _, err := callWithRetry(ctx, c.cfg, chain.REST, textAttempt)
	return res, err
}

// BankBalance returns the balance of denom held by address on chain.
func (c *Client) BankBalance(ctx context.Context, chain registry.ChainInfo, address, denom string) (Coin, error) {
	var binAttempt, textAttempt attemptFunc[Coin]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (Coin, error) {
			return c.binary.BankBalance(ctx, endpoint, address, denom)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (Coin, error) {
			return c.text.BankBalance(ctx, endpoint, address, denom)
		}
	}
	return run(ctx, c, OpBankBalance, chain, binAttempt, textAttempt)
}

// BankAllBalances returns every coin held by address on chain.
func (c *Client) BankAllBalances(ctx context.Context, chain registry.ChainInfo, address string) ([]Coin, error) {
	var binAttempt, textAttempt attemptFunc[[]Coin]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) ([]Coin, error) {
			return c.binary.BankAllBalances(ctx, endpoint, address)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) ([]Coin, error) {
			return c.text.BankAllBalances(ctx, endpoint, address)
		}
	}
	return run(ctx, c, OpBankAllBalances, chain, binAttempt, textAttempt)
}

// BankSupplyByDenom returns the chain-wide outstanding supply of denom.
func (c *Client) BankSupplyByDenom(ctx context.Context, chain registry.ChainInfo, denom string) (Coin, error) {
	var binAttempt, textAttempt attemptFunc[Coin]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (Coin, error) {
			return c.binary.BankSupplyByDenom(ctx, endpoint, denom)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (Coin, error) {
			return c.text.BankSupplyByDenom(ctx, endpoint, denom)
		}
	}
	return run(ctx, c, OpBankSupplyByDenom, chain, binAttempt, textAttempt)
}

// IBCChannel resolves a channel's counterparty channel id and connection
// hops.
func (c *Client) IBCChannel(ctx context.Context, chain registry.ChainInfo, portID, channelID string) (ChannelResponse, error) {
	var binAttempt, textAttempt attemptFunc[ChannelResponse]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (ChannelResponse, error) {
			return c.binary.IBCChannel(ctx, endpoint, portID, channelID)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (ChannelResponse, error) {
			return c.text.IBCChannel(ctx, endpoint, portID, channelID)
		}
	}
	return run(ctx, c, OpIBCChannel, chain, binAttempt, textAttempt)
}

// IBCConnection resolves a connection's client id and counterparty ids.
func (c *Client) IBCConnection(ctx context.Context, chain registry.ChainInfo, connectionID string) (ConnectionResponse, error) {
	var binAttempt, textAttempt attemptFunc[ConnectionResponse]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (ConnectionResponse, error) {
			return c.binary.IBCConnection(ctx, endpoint, connectionID)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (ConnectionResponse, error) {
			return c.text.IBCConnection(ctx, endpoint, connectionID)
		}
	}
	return run(ctx, c, OpIBCConnection, chain, binAttempt, textAttempt)
}

// IBCClientState resolves the chain id embedded in a client's tracked
// consensus state.
func (c *Client) IBCClientState(ctx context.Context, chain registry.ChainInfo, clientID string) (ClientStateResponse, error) {
	var binAttempt, textAttempt attemptFunc[ClientStateResponse]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (ClientStateResponse, error) {
			return c.binary.IBCClientState(ctx, endpoint, clientID)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (ClientStateResponse, error) {
			return c.text.IBCClientState(ctx, endpoint, clientID)
		}
	}
	return run(ctx, c, OpIBCClientState, chain, binAttempt, textAttempt)
}

// IBCDenomTrace resolves the (path, base_denom) record behind an
// ibc/<hash> denom.
func (c *Client) IBCDenomTrace(ctx context.Context, chain registry.ChainInfo, hash string) (DenomTraceResponse, error) {
	var binAttempt, textAttempt attemptFunc[DenomTraceResponse]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (DenomTraceResponse, error) {
			return c.binary.IBCDenomTrace(ctx, endpoint, hash)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (DenomTraceResponse, error) {
			return c.text.IBCDenomTrace(ctx, endpoint, hash)
		}
	}
	return run(ctx, c, OpIBCDenomTrace, chain, binAttempt, textAttempt)
}

// IBCEscrowAddress queries the on-chain escrow address for a port/channel.
func (c *Client) IBCEscrowAddress(ctx context.Context, chain registry.ChainInfo, portID, channelID string) (string, error) {
	var binAttempt, textAttempt attemptFunc[string]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (string, error) {
			return c.binary.IBCEscrowAddress(ctx, endpoint, portID, channelID)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (string, error) {
			return c.text.IBCEscrowAddress(ctx, endpoint, portID, channelID)
		}
	}
	return run(ctx, c, OpIBCEscrowAddress, chain, binAttempt, textAttempt)
}

// NodeInfo returns tendermint node identity info. No command in this
// module calls it.
func (c *Client) NodeInfo(ctx context.Context, chain registry.ChainInfo) (NodeInfoResponse, error) {
	var binAttempt, textAttempt attemptFunc[NodeInfoResponse]
	if c.binary != nil {
		binAttempt = func(ctx context.Context, endpoint string) (NodeInfoResponse, error) {
			return c.binary.NodeInfo(ctx, endpoint)
		}
	}
	if c.text != nil {
		textAttempt = func(ctx context.Context, endpoint string) (NodeInfoResponse, error) {
			return c.text.NodeInfo(ctx, endpoint)
		}
	}
	return run(ctx, c, OpTendermintNodeInfo, chain, binAttempt, textAttempt)
}
