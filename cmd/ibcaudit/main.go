package main

import (
	"fmt"
	"os"

	"github.com/tokenize-x/ibc-escrow-audit/cmd/ibcaudit/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
