package result

import (
	sdkerrors "cosmossdk.io/errors"
)

// codespace groups every ibcaudit sentinel error under one registry
// namespace, the same way the teacher's chain modules register a
// codespace per module. NOTE: error status code must start from 2,
// code 1 is reserved by convention.
const codespace = "ibcaudit"

var (
	// ErrChainUnknown means the registry has no record for a requested chain.
	ErrChainUnknown = sdkerrors.Register(codespace, 2, "chain unknown")
	// ErrEndpointsExhausted means every configured endpoint failed after retries.
	ErrEndpointsExhausted = sdkerrors.Register(codespace, 3, "endpoints exhausted")
	// ErrClientError means an endpoint returned a non-retryable 4xx response.
	ErrClientError = sdkerrors.Register(codespace, 4, "client error")
	// ErrRateLimited means an endpoint returned 429 or 503.
	ErrRateLimited = sdkerrors.Register(codespace, 5, "rate limited")
	// ErrDecodeError means a response could not be decoded.
	ErrDecodeError = sdkerrors.Register(codespace, 6, "decode error")
	// ErrNoNativeToken means a chain has neither a staking nor a fee token.
	ErrNoNativeToken = sdkerrors.Register(codespace, 7, "no native token")
	// ErrTopologyResolutionFailed means the channel/connection/client walk broke.
	ErrTopologyResolutionFailed = sdkerrors.Register(codespace, 8, "topology resolution failed")
	// ErrCycle means a chain was revisited while unwrapping a denom trace.
	ErrCycle = sdkerrors.Register(codespace, 9, "cycle detected")
	// ErrHopLimit means a trace exceeded the configured maximum hop count.
	ErrHopLimit = sdkerrors.Register(codespace, 10, "hop limit exceeded")
	// ErrCancelled means the audit's context was cancelled before completion.
	ErrCancelled = sdkerrors.Register(codespace, 11, "audit cancelled")
)
