package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const lastUpdateFileName = ".last-update"

func newStatusCmd(v *viper.Viper, verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <chain>",
		Short: "Report cache freshness and last registry sync time without running an audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(v, *verbose)
			chainName := args[0]

			chain, err := rt.chains.Load(chainName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chain: %s (%s)\n", chain.ChainName, chain.ChainID)

			if len(chain.RPC) == 0 {
				fmt.Fprintln(out, "version cache: no rpc endpoint configured, cannot probe")
			} else {
				needsUpdate, err := rt.schemaCache.CheckNeedsUpdate(cmd.Context(), chain.ChainID, chain.RPC[0])
				if err != nil {
					fmt.Fprintf(out, "version cache: probe failed: %s\n", err)
				} else {
					fmt.Fprintf(out, "version cache: needs_update=%t current=%q cached=%q\n",
						needsUpdate.NeedsUpdate, needsUpdate.CurrentVersion, needsUpdate.CachedVersion)
				}
			}

			fmt.Fprintf(out, "last registry sync: %s\n", readLastUpdate(rt.cfg.DataDir))
			return nil
		},
	}

	return cmd
}

// readLastUpdate reads the RFC-3339 timestamp update-chains wrote to
// <data>/.last-update, reporting "never" when the file is absent.
func readLastUpdate(dataDir string) string {
	raw, err := os.ReadFile(filepath.Join(dataDir, lastUpdateFileName))
	if err != nil {
		return "never"
	}
	return strings.TrimSpace(string(raw))
}
