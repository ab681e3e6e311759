package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vortex/vsixsign/internal/config"
)

func newRootCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "vsixsign",
		Short:         "Sign, timestamp, and unsign VSIX (OPC) packages",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newSignCmd(logger, cfg))
	root.AddCommand(newUnsignCmd(logger))

	return root
}
