package main

import (
	"fmt"
	"os"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
