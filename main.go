package main

import (
	"os"

	"github.com/questdb/submodule-mergeable/cmd"
	"github.com/questdb/submodule-mergeable/internal/clierr"
)

func main() {
	if err := cmd.Run(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
