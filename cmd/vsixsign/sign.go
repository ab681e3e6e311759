package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vortex/vsixsign/internal/config"
	"github.com/vortex/vsixsign/internal/transport"
	"github.com/vortex/vsixsign/pkg/identity"
	"github.com/vortex/vsixsign/pkg/opc"
	"github.com/vortex/vsixsign/pkg/timestamp"
	"github.com/vortex/vsixsign/pkg/xmldsig"
)

func newSignCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	var (
		certPath      string
		password      string
		fileDigest    string
		tsaURL        string
		timestampHash string
	)

	cmd := &cobra.Command{
		Use:   "sign <vsix>",
		Short: "Sign a VSIX package in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			hash, err := parseDigestAlgorithm(fileDigest)
			if err != nil {
				return err
			}

			var tsHash = hash
			if timestampHash != "" {
				tsHash, err = parseDigestAlgorithm(timestampHash)
				if err != nil {
					return err
				}
			}

			if certPath == "" {
				return &validationError{msg: "--certificate is required"}
			}

			pfx, err := os.ReadFile(certPath)
			if err != nil {
				return &validationError{msg: "reading certificate: " + err.Error()}
			}

			id, err := identity.LoadPKCS12(pfx, password)
			if err != nil {
				return err
			}

			pkg, err := opc.OpenFile(path, opc.ReadWrite)
			if err != nil {
				return err
			}

			builder := xmldsig.NewBuilder(pkg)
			if err := builder.EnqueuePreset(xmldsig.VSIXPreset, hash); err != nil {
				return err
			}

			sig, err := builder.Sign(id)
			if err != nil {
				return err
			}
			logger.Info("signed package", "part", string(sig.PartName()))

			if tsaURL != "" {
				tsBuilder := timestamp.NewBuilder(transport.NewHTTP(cfg.TSATimeout))
				result, err := tsBuilder.Timestamp(context.Background(), sig, tsaURL, tsHash)
				if err != nil {
					return err
				}
				if !result.Success {
					logger.Warn("timestamp request rejected", "reason", result.Reason)
				} else {
					logger.Info("timestamped signature", "generated", result.GenTime)
				}
			}

			if _, err := pkg.Flush(); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&certPath, "certificate", "", "path to the signing certificate (PKCS#12/PFX)")
	cmd.Flags().StringVar(&password, "password", "", "password protecting the certificate")
	cmd.Flags().StringVar(&fileDigest, "file-digest", cfg.DefaultDigest, "digest algorithm for part and reference hashing (sha1, sha256, sha384, sha512)")
	cmd.Flags().StringVar(&tsaURL, "timestamp", "", "RFC 3161 time-stamp authority URL")
	cmd.Flags().StringVar(&timestampHash, "timestamp-digest", "", "digest algorithm for the time-stamp request (defaults to --file-digest)")

	return cmd
}
