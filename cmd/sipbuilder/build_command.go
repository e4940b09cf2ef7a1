package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sipbuilder/internal/store"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		noStore bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "build <ip-path>",
		Short: "Build a SIP from an information package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			var st *store.Store
			if !noStore {
				opened, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer opened.Close()
				st = opened
			}

			b, validator, err := ctx.newBuilder(st, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := validator.Preflight(runCtx, cfg.Validation.StrictStartup); err != nil {
				return err
			}

			result, runErr := b.RunTo(runCtx, args[0], output)
			if result != nil {
				printResult(cmd, result)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "Run the build without recording it in the build database")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for the SIP, relative to the configured output root (default: allocated)")
	return cmd
}
