package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/audit"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/result"
)

func newAuditCmd(v *viper.Viper, verbose *bool) *cobra.Command {
	var (
		mode      string
		reverse   bool
		transport string
	)

	cmd := &cobra.Command{
		Use:   "audit <primary> <secondary> [channel-id]",
		Short: "Compare an escrow account's balances against counterparty circulating supply",
		Args:  cobra.RangeArgs(2, 3),
		Long: strings.TrimSpace(`
Reconciles the primary chain's IBC escrow account for its channel with the
secondary chain against that chain's reported circulating supply of the
corresponding wrapped denom(s). Exit code reports the worst outcome across
every token audited: 0 balanced, 1 discrepancy, 2 incomplete, 3 hard error.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyTransportOverride(v, transport)
			rt := newRuntime(v, *verbose)

			auditMode := audit.Mode(mode)
			if auditMode == "" {
				auditMode = rt.cfg.Audit.DefaultMode
			}

			req := audit.Request{
				PrimaryChain:   args[0],
				SecondaryChain: args[1],
				Mode:           auditMode,
				Reverse:        reverse,
			}
			if len(args) == 3 {
				req.ManualChannelID = args[2]
				req.Mode = audit.ModeManual
			}

			results, err := rt.orchestrator.Run(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStderr(), err)
				os.Exit(result.ExitCode(result.StatusErrored))
			}

			printResults(cmd, results)
			os.Exit(result.ExitCode(result.WorstStatus(results)))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "quick, comprehensive, or manual (default: audit.default_mode)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "also audit the secondary chain's escrow account against the primary")
	cmd.Flags().StringVar(&transport, "transport", "auto", "binary, text, or auto")

	return cmd
}

// applyTransportOverride maps the --transport flag onto the resolved
// audit.use_binary_transport setting for this invocation.
func applyTransportOverride(v *viper.Viper, transport string) {
	switch transport {
	case "binary":
		v.Set("audit.use_binary_transport", true)
	case "text":
		v.Set("audit.use_binary_transport", false)
	case "auto", "":
		// leave the resolved configuration as-is
	}
}

func printResults(cmd *cobra.Command, results []result.AuditResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%-12s %-10s %-48s escrow=%-20s supply=%-20s discrepancy=%s\n",
			r.Chain, r.Status, r.Denom, r.EscrowBalance.String(), supplyString(r), r.Discrepancy.String())
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(out, "  error: %s\n", e)
		}
	}
}

func supplyString(r result.AuditResult) string {
	if r.SupplyUnavailable {
		return "unavailable"
	}
	return r.CounterpartySupply.String()
}
