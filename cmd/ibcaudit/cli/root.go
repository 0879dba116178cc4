// Package cli implements the ibcaudit command-line surface documented in
// spec.md §6: audit, update-chains, and status.
package cli

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/audit"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/cache"
	appconfig "github.com/tokenize-x/ibc-escrow-audit/pkg/config"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/denom"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/escrow"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/registry"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/topology"
)

// seiFamilyHostSuffixes lists REST host suffixes whose responses are
// already unwrapped and must not be double-unwrapped by the text
// transport's legacy {"result": ...} envelope handling.
var seiFamilyHostSuffixes = []string{".seinetwork.io"}

// runtime bundles the wired components every subcommand needs, built once
// from resolved configuration.
type runtime struct {
	cfg          appconfig.Config
	chains       *registry.Loader
	query        *queryclient.Client
	schemaCache  *cache.Cache
	orchestrator *audit.Orchestrator
	logger       log.Logger
}

func newRuntime(v *viper.Viper, verbose bool) *runtime {
	cfg := appconfig.Load(v)

	logger := log.NewNopLogger()
	if verbose {
		logger = log.NewLogger(os.Stderr)
	}

	chains := registry.NewLoader(cfg.DataDir)

	binary := queryclient.NewBinaryTransport()
	text := queryclient.NewTextTransport(&http.Client{Timeout: 30 * time.Second}, seiFamilyHostSuffixes)
	query := queryclient.New(cfg.QueryClientConfig(), binary, text, queryclient.WithLogger(logger))

	schemaCache := cache.NewWithDefaultProbe(cfg.CacheConfig())

	escrower := escrow.NewDeriver(query)
	topo := topology.NewResolver(query, chains, cfg.Audit.EscrowPort)
	denomResolver := denom.NewResolver(query, chains, topo, denom.DefaultMaxHops)

	orchestrator := audit.New(chains, chains, query, escrower, topo, denomResolver, cfg.Audit.EscrowPort, logger)

	return &runtime{
		cfg:          cfg,
		chains:       chains,
		query:        query,
		schemaCache:  schemaCache,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// NewRootCmd constructs the ibcaudit root command with all subcommands
// wired, following the flag/env/file/default precedence of spec.md §6.
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		dataDir    string
		verbose    bool
	)

	v := appconfig.New()

	cmd := &cobra.Command{
		Use:           "ibcaudit",
		Short:         "Audit IBC escrow balances against counterparty circulating supply",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return err
				}
			}
			if dataDir != "" {
				v.Set("data_dir", dataDir)
				v.SetDefault("cache.dir", filepath.Join(dataDir, "cache"))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to an ibcaudit.yaml config file")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "registry data directory (overrides cache.dir's default parent)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable structured logging to stderr")

	cmd.AddCommand(newAuditCmd(v, &verbose))
	cmd.AddCommand(newStatusCmd(v, &verbose))
	cmd.AddCommand(newUpdateChainsCmd(v))

	return cmd
}
