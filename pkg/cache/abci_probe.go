package cache

import (
	"context"
	"time"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"

	"github.com/tokenize-x/tx-tools/pkg/retry"
)

// abciProbeRetries and abciProbeDelay bound a short burst of retries
// against a single rpc endpoint before the caller falls back to stale
// cache or pessimistic assumption, mirroring testutil/integration's
// AwaitState usage of retry.Do for a handful of quick rechecks rather
// than C2's full endpoint-rotation policy.
const (
	abciProbeRetries = 3
	abciProbeDelay   = 200 * time.Millisecond
)

// fetchAppVersion queries an RPC endpoint's abci_info for the live
// application version string, retrying a few times on transient errors
// before giving up.
func fetchAppVersion(ctx context.Context, rpcEndpoint string) (string, error) {
	client, err := rpchttp.New(rpcEndpoint, "/websocket")
	if err != nil {
		return "", err
	}

	var version string
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(abciProbeRetries)*abciProbeDelay*5)
	defer cancel()

	err = retry.Do(probeCtx, abciProbeDelay, func() error {
		info, err := client.ABCIInfo(ctx)
		if err != nil {
			return retry.Retryable(err)
		}
		version = info.Response.Version
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}
