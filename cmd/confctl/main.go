// Command confctl inspects and edits stored configuration values from the shell.
package main

import (
	"os"

	"github.com/pscheid92/scopeconf/internal/platform/config"
	"github.com/pscheid92/scopeconf/internal/platform/logging"
)

func main() {
	logging.InitLogger("warn", "text")

	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}
