// Package escrow derives the two on-chain identifiers the IBC transfer
// module computes from a port/channel pair: the forward-hashed ibc/<hash>
// denom and the escrow account address.
package escrow

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ics20EscrowPrefix is the domain separator ICS-20 hashes ahead of the
// port/channel pair when deriving an escrow address. It is a null byte
// terminated ASCII tag, not a printable path segment.
const ics20EscrowPrefix = "ics20-1\x00"

// IBCDenom returns "ibc/" + upper-hex(sha256(port/channel/base)). When
// base itself already contains slashes (a multi-hop denom peeled down to
// one remaining segment), it is included in the hashed string verbatim,
// satisfying invariant H1.
func IBCDenom(port, channel, base string) string {
	return IBCDenomFromPath(port+"/"+channel, base)
}

// IBCDenomFromPath hashes an already-assembled path against base. When
// path is empty the denom is simply base (it never began with a hop).
func IBCDenomFromPath(path, base string) string {
	if path == "" {
		return base
	}
	sum := sha256.Sum256([]byte(path + "/" + base))
	return "ibc/" + strings.ToUpper(hex.EncodeToString(sum[:]))
}
