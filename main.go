package main

import (
	"fmt"
	"os"

	"github.com/oakwood-commons/kvpick/cmd"
	"github.com/oakwood-commons/kvpick/pkg/logger"
	"github.com/oakwood-commons/kvpick/pkg/selector"
)

func main() {
	exitCode := 0
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		if selector.IsFatal(err) {
			exitCode = 2
		}
	}

	logger.Sync()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
