package queryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

// TextTransport issues REST GETs against the standard Cosmos SDK /
// ibc-go LCD paths documented in spec.md §6. Sei-family hosts return
// their JSON unwrapped (no legacy envelope); all other hosts may wrap
// the payload in a top-level "result" field, which is unwrapped here if
// present.
type TextTransport struct {
	httpClient       *http.Client
	seiFamilySuffixes []string
}

// NewTextTransport builds a REST transport. seiFamilyHostSuffixes lists
// host suffixes (e.g. "sei-apis.com") whose responses must be passed
// through verbatim rather than unwrapped.
func NewTextTransport(httpClient *http.Client, seiFamilyHostSuffixes []string) *TextTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TextTransport{httpClient: httpClient, seiFamilySuffixes: seiFamilyHostSuffixes}
}

func (t *TextTransport) isSeiFamily(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, suffix := range t.seiFamilySuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// getJSON performs the GET and decodes the (possibly envelope-unwrapped)
// JSON body into out.
func (t *TextTransport) getJSON(ctx context.Context, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+path, nil)
	if err != nil {
		return sdkerrors.Wrap(result.ErrDecodeError, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sdkerrors.Wrap(result.ErrDecodeError, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	payload := body
	if !t.isSeiFamily(endpoint) {
		var envelope struct {
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Result) > 0 {
			payload = envelope.Result
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return sdkerrors.Wrap(result.ErrDecodeError, err.Error())
	}
	return nil
}

func (t *TextTransport) BankBalance(ctx context.Context, endpoint, address, denom string) (Coin, error) {
	var resp struct {
		Balance struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"balance"`
	}
	path := fmt.Sprintf("/cosmos/bank/v1beta1/balances/%s/by_denom?denom=%s", url.PathEscape(address), url.QueryEscape(denom))
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return Coin{}, err
	}
	amount, ok := sdkmath.NewIntFromString(resp.Balance.Amount)
	if !ok {
		return Coin{}, sdkerrors.Wrapf(result.ErrDecodeError, "invalid amount %q", resp.Balance.Amount)
	}
	return Coin{Denom: resp.Balance.Denom, Amount: amount}, nil
}

func (t *TextTransport) BankAllBalances(ctx context.Context, endpoint, address string) ([]Coin, error) {
	var out []Coin
	nextKey := ""
	for {
		var resp struct {
			Balances []struct {
				Denom  string `json:"denom"`
				Amount string `json:"amount"`
			} `json:"balances"`
			Pagination struct {
				NextKey string `json:"next_key"`
			} `json:"pagination"`
		}
		path := fmt.Sprintf("/cosmos/bank/v1beta1/balances/%s", url.PathEscape(address))
		if nextKey != "" {
			path += "?pagination.key=" + url.QueryEscape(nextKey)
		}
		if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
			return nil, err
		}
		for _, b := range resp.Balances {
			amount, ok := sdkmath.NewIntFromString(b.Amount)
			if !ok {
				return nil, sdkerrors.Wrapf(result.ErrDecodeError, "invalid amount %q", b.Amount)
			}
			out = append(out, Coin{Denom: b.Denom, Amount: amount})
		}
		if resp.Pagination.NextKey == "" {
			break
		}
		nextKey = resp.Pagination.NextKey
	}
	return out, nil
}

func (t *TextTransport) BankSupplyByDenom(ctx context.Context, endpoint, denom string) (Coin, error) {
	var resp struct {
		Amount struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"amount"`
	}
	path := "/cosmos/bank/v1beta1/supply/by_denom?denom=" + url.QueryEscape(denom)
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return Coin{}, err
	}
	amount, ok := sdkmath.NewIntFromString(resp.Amount.Amount)
	if !ok {
		return Coin{}, sdkerrors.Wrapf(result.ErrDecodeError, "invalid amount %q", resp.Amount.Amount)
	}
	return Coin{Denom: resp.Amount.Denom, Amount: amount}, nil
}

func (t *TextTransport) IBCChannel(ctx context.Context, endpoint, portID, channelID string) (ChannelResponse, error) {
	var resp struct {
		Channel struct {
			Ordering       string `json:"ordering"`
			ConnectionHops []string `json:"connection_hops"`
			Version        string `json:"version"`
			Counterparty   struct {
				ChannelID string `json:"channel_id"`
			} `json:"counterparty"`
		} `json:"channel"`
	}
	path := fmt.Sprintf("/ibc/core/channel/v1/channels/%s/ports/%s", url.PathEscape(channelID), url.PathEscape(portID))
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return ChannelResponse{}, err
	}
	if len(resp.Channel.ConnectionHops) == 0 {
		return ChannelResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "channel response missing connection hops")
	}
	return ChannelResponse{
		CounterpartyChannelID: resp.Channel.Counterparty.ChannelID,
		ConnectionHops:        resp.Channel.ConnectionHops,
		Ordering:              resp.Channel.Ordering,
		Version:               resp.Channel.Version,
		PortID:                portID,
	}, nil
}

func (t *TextTransport) IBCConnection(ctx context.Context, endpoint, connectionID string) (ConnectionResponse, error) {
	var resp struct {
		Connection struct {
			ClientID     string `json:"client_id"`
			Counterparty struct {
				ClientID     string `json:"client_id"`
				ConnectionID string `json:"connection_id"`
			} `json:"counterparty"`
		} `json:"connection"`
	}
	path := "/ibc/core/connection/v1/connections/" + url.PathEscape(connectionID)
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return ConnectionResponse{}, err
	}
	return ConnectionResponse{
		ClientID:                 resp.Connection.ClientID,
		CounterpartyClientID:     resp.Connection.Counterparty.ClientID,
		CounterpartyConnectionID: resp.Connection.Counterparty.ConnectionID,
	}, nil
}

func (t *TextTransport) IBCClientState(ctx context.Context, endpoint, clientID string) (ClientStateResponse, error) {
	var resp struct {
		ClientState struct {
			ChainID string `json:"chain_id"`
		} `json:"client_state"`
	}
	path := "/ibc/core/client/v1/client_states/" + url.PathEscape(clientID)
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return ClientStateResponse{}, err
	}
	if resp.ClientState.ChainID == "" {
		return ClientStateResponse{}, sdkerrors.Wrap(result.ErrDecodeError, "client state missing chain_id (non-tendermint client?)")
	}
	return ClientStateResponse{ChainID: resp.ClientState.ChainID}, nil
}

func (t *TextTransport) IBCDenomTrace(ctx context.Context, endpoint, hash string) (DenomTraceResponse, error) {
	var resp struct {
		DenomTrace struct {
			Path      string `json:"path"`
			BaseDenom string `json:"base_denom"`
		} `json:"denom_trace"`
	}
	path := "/ibc/apps/transfer/v1/denom_traces/" + url.PathEscape(hash)
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return DenomTraceResponse{}, err
	}
	return DenomTraceResponse{Path: resp.DenomTrace.Path, BaseDenom: resp.DenomTrace.BaseDenom}, nil
}

func (t *TextTransport) IBCEscrowAddress(ctx context.Context, endpoint, portID, channelID string) (string, error) {
	var resp struct {
		EscrowAddress string `json:"escrow_address"`
	}
	path := fmt.Sprintf("/ibc/apps/transfer/v1/channels/%s/ports/%s/escrow_address", url.PathEscape(channelID), url.PathEscape(portID))
	if err := t.getJSON(ctx, endpoint, path, &resp); err != nil {
		return "", err
	}
	return resp.EscrowAddress, nil
}

func (t *TextTransport) NodeInfo(ctx context.Context, endpoint string) (NodeInfoResponse, error) {
	var resp struct {
		DefaultNodeInfo struct {
			Network string `json:"network"`
		} `json:"default_node_info"`
	}
	if err := t.getJSON(ctx, endpoint, "/cosmos/base/tendermint/v1beta1/node_info", &resp); err != nil {
		return NodeInfoResponse{}, err
	}
	return NodeInfoResponse{ChainID: resp.DefaultNodeInfo.Network, Network: resp.DefaultNodeInfo.Network}, nil
}
