package main

import (
	"fmt"
	"os"

	"github.com/o3de-mps/mpsexport/pkg/cli"
	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.NewConsoleLogger().Error(fmt.Sprintf("internal error: %v", r))
			os.Exit(2)
		}
	}()

	if err := cli.ExecuteWithVersion(version); err != nil {
		os.Exit(1)
	}
}
