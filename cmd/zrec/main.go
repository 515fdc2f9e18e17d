package main

import (
	"fmt"
	"os"

	"github.com/edirooss/zrec-server/internal/cli"
	"github.com/edirooss/zrec-server/pkg/fmtt"
)

func main() {
	deps := &cli.Dependencies{}
	err := cli.NewRootCmd(deps).Execute()
	if deps.Log != nil {
		_ = deps.Log.Sync()
	}
	if err == nil {
		return
	}

	switch {
	case deps.Debug:
		fmtt.FprintErrChainDebug(os.Stderr, err)
	case deps.Verbose:
		fmtt.FprintErrChain(os.Stderr, err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
