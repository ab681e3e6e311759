package main

import (
	"log/slog"
	"os"

	"github.com/vortex/vsixsign/internal/config"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	root := newRootCmd(logger, cfg)
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
