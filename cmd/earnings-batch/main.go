package main

import (
	"fmt"
	"os"

	"github.com/Protagonist888/schwab-earnings-batch/internal/cli"
	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Log)

	if err := cli.NewRootCmd(cfg, logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("earnings-batch failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
