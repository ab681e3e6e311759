package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vortex/vsixsign/pkg/opc"
	"github.com/vortex/vsixsign/pkg/xmldsig"
)

func newUnsignCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unsign <vsix>",
		Short: "Remove every signature from a VSIX package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			pkg, err := opc.OpenFile(path, opc.ReadWrite)
			if err != nil {
				return err
			}

			sigs, err := xmldsig.Signatures(pkg)
			if err != nil {
				return err
			}

			for _, sig := range sigs {
				partName := sig.PartName()
				if err := sig.Remove(); err != nil {
					return err
				}
				logger.Info("removed signature", "part", string(partName))
			}

			if _, err := pkg.Flush(); err != nil {
				return err
			}

			return nil
		},
	}

	return cmd
}
