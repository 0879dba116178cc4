package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdkerrors "cosmossdk.io/errors"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/deterministicmap"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

// Loader loads ChainInfo and ChannelPair records from a local directory
// tree written by the out-of-scope registry mirror (`update-chains`).
// ChainInfo files live at <dataDir>/*.json; ChannelPair bundles live at
// <dataDir>/ibc/*.json, named by alphabetically sorted chain names joined
// with "-".
type Loader struct {
	dataDir string

	// index caches chain_id -> chain_name after the first Load call that
	// discovers a new chain, supporting the C4 fallback lookup without a
	// fresh directory scan on every resolution.
	index *deterministicmap.Map[string, string]
}

// NewLoader returns a Loader rooted at dataDir.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir: dataDir,
		index:   deterministicmap.New[string, string](),
	}
}

// Load reads and validates the ChainInfo for chainName. It fails with
// result.ErrChainUnknown when the file is absent or fails validation.
func (l *Loader) Load(chainName string) (ChainInfo, error) {
	path := filepath.Join(l.dataDir, chainName+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChainInfo{}, sdkerrors.Wrapf(result.ErrChainUnknown, "chain %q: %s", chainName, err)
	}

	var info ChainInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return ChainInfo{}, sdkerrors.Wrapf(result.ErrChainUnknown, "chain %q: malformed registry file: %s", chainName, err)
	}

	if err := validate(info); err != nil {
		return ChainInfo{}, sdkerrors.Wrapf(result.ErrChainUnknown, "chain %q: %s", chainName, err)
	}

	l.index.Set(info.ChainID, info.ChainName)

	return info, nil
}

func validate(info ChainInfo) error {
	if info.ChainName == "" {
		return fmt.Errorf("missing chain_name")
	}
	if info.Bech32Prefix == "" {
		return fmt.Errorf("missing bech32_prefix")
	}
	if !info.HasEndpoint() {
		return fmt.Errorf("no rest, rpc, or grpc endpoint configured")
	}
	return nil
}

// ChainNameByID resolves a chain_id to a chain_name using the in-memory
// index built from prior Load calls, falling back to a linear scan of
// every *.json file in dataDir when the id is not yet indexed. This backs
// the topology resolver's chain_id -> chain_name mapping, independent of
// any hardcoded registry.
func (l *Loader) ChainNameByID(chainID string) (string, error) {
	if name, ok := l.index.Get(chainID); ok {
		return name, nil
	}

	entries, err := os.ReadDir(l.dataDir)
	if err != nil {
		return "", sdkerrors.Wrapf(result.ErrChainUnknown, "scanning registry: %s", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		chainName := strings.TrimSuffix(e.Name(), ".json")
		info, err := l.Load(chainName)
		if err != nil {
			continue
		}
		if info.ChainID == chainID {
			return info.ChainName, nil
		}
	}

	return "", sdkerrors.Wrapf(result.ErrChainUnknown, "no registry entry for chain_id %q", chainID)
}

// LoadChannelPair reads a cached ChannelPair bundle for a chain pair, if
// one exists on disk. The filename is the two chain names, alphabetically
// sorted and joined with "-".
func (l *Loader) LoadChannelPair(chainA, chainB string) (ChannelPair, bool, error) {
	names := []string{chainA, chainB}
	if names[0] > names[1] {
		names[0], names[1] = names[1], names[0]
	}
	path := filepath.Join(l.dataDir, "ibc", names[0]+"-"+names[1]+".json")

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ChannelPair{}, false, nil
	}
	if err != nil {
		return ChannelPair{}, false, err
	}

	var pair ChannelPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return ChannelPair{}, false, fmt.Errorf("malformed channel pair file %s: %w", path, err)
	}

	return pair, true, nil
}
