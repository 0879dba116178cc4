// Package queryclient issues bank and IBC queries against a chain's
// configured endpoints, with retry, backoff, endpoint rotation, and a
// fallback between a binary gRPC transport and a JSON-over-HTTP
// transport.
package queryclient

import "time"

// Operation identifies a logical query. The set is closed; callers use
// the typed Client methods below rather than this name directly, but the
// name is what retry/backoff/log messages report.
type Operation string

// The closed set of operations the client supports.
const (
	OpBankBalance        Operation = "BankBalance"
	OpBankAllBalances    Operation = "BankAllBalances"
	OpBankSupplyByDenom  Operation = "BankSupplyByDenom"
	OpIBCChannel         Operation = "IbcChannel"
	OpIBCConnection      Operation = "IbcConnection"
	OpIBCClientState     Operation = "IbcClientState"
	OpIBCDenomTrace      Operation = "IbcDenomTrace"
	OpTendermintNodeInfo Operation = "TendermintNodeInfo"
	OpIBCEscrowAddress   Operation = "IbcEscrowAddress"
	opABCIInfo           Operation = "AbciInfo" // not used by any Client method; the version cache probes abci_info itself
)

// Config holds the tunables documented in spec.md §6's Configuration
// table for the client.
type Config struct {
	// Retries is the max per-endpoint attempts (api.retries, default 3).
	Retries int
	// BaseDelay is the exponential backoff base (api.delay_ms, default 250ms).
	BaseDelay time.Duration
	// Timeout is the per-attempt deadline (api.timeout_ms, default 30s).
	Timeout time.Duration
	// UseBinaryTransport prefers the binary transport when true
	// (audit.use_binary_transport, default true).
	UseBinaryTransport bool
	// EscrowPort is the transfer module's port id (audit.escrow_port,
	// default "transfer").
	EscrowPort string
	// SeiFamilyHostSuffixes lists endpoints whose responses must be
	// passed through verbatim rather than unwrapped from a legacy
	// `{"result": ...}` envelope. Client does not read this field; the
	// suffixes in effect are the ones passed to NewTextTransport.
	SeiFamilyHostSuffixes []string
}

// DefaultConfig returns the configuration defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		Retries:            3,
		BaseDelay:          250 * time.Millisecond,
		Timeout:            30 * time.Second,
		UseBinaryTransport: true,
		EscrowPort:         "transfer",
	}
}
