package main

import (
	"github.com/spf13/cobra"

	"autocombine/internal/daemonrun"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Combine runs continuously on a schedule and on filesystem events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: ctx.logLevel(cfg),
				Stdout:   !quiet,
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only write the session log file")
	return cmd
}
