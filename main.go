package main

import (
	"context"
	"os"

	"m3u-curator/cmd"
	"m3u-curator/logger"
)

func main() {
	if err := cmd.NewRootCLI().ExecuteContext(context.Background()); err != nil {
		logger.Default.Errorf("%v", err)
		os.Exit(1)
	}
}
