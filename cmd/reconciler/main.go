package main

import (
	"os"

	"github.com/ksred/klear-recon/cmd/reconciler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
