package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	groupProcessing = "processing"
	groupSetup      = "setup"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "autocombine",
		Short: "Combine nanopore FASTQ fragments per sample",
		Long: `autocombine watches GridION run parent directories and, once a run has
finished basecalling, concatenates each barcode's fastq_pass fragments into
one <sample_id>.fastq.gz per sample listed in the run's sample sheet.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupProcessing, Title: "Run processing:"},
		&cobra.Group{ID: groupSetup, Title: "Setup and diagnostics:"},
	)
	addGrouped(rootCmd, groupProcessing,
		newScanCommand(ctx),
		newRunCommand(ctx),
		newWatchCommand(ctx),
		newRecoverCommand(ctx),
	)
	addGrouped(rootCmd, groupSetup,
		newCheckCommand(ctx),
		newInspectCommand(),
		newConfigCommand(ctx),
	)

	return rootCmd
}

func addGrouped(parent *cobra.Command, groupID string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = groupID
		parent.AddCommand(cmd)
	}
}
