package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autocombine/internal/logging"
	"autocombine/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one scan-and-combine pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := acquireLock(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := ctx.fileLogger(cfg)
			if err != nil {
				return err
			}
			logging.PruneSessionLogs(logger, cfg)

			processor, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			summary, passErr := processor.RunPass(cmd.Context())

			out := cmd.OutOrStdout()
			for _, outcome := range summary.Combined {
				fmt.Fprintf(out, "Combined %s (%d barcodes)\n", outcome.Run.ID, outcome.Result.NumBarcodesProcessed)
			}
			for _, outcome := range summary.Failed {
				fmt.Fprintf(out, "Failed %s: %v\n", outcome.Run.ID, outcome.Err)
			}
			fmt.Fprintf(out, "Pass %s: %d combined, %d skipped, %d failed\n",
				summary.PassID, len(summary.Combined), summary.Skipped, len(summary.Failed))
			return passErr
		},
	}
}
