package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"autocombine/internal/recovery"
)

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "List runs whose combine was interrupted (--remove deletes the partial output)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			found, scanErrs := recovery.FindIncomplete(cfg.Scan.RunParentDirs)
			var errs *multierror.Error
			for _, err := range scanErrs {
				errs = multierror.Append(errs, err)
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No incomplete output directories")
				return errs.ErrorOrNil()
			}

			rows := make([][]string, 0, len(found))
			for _, item := range found {
				rows = append(rows, []string{
					item.Run.ID,
					strconv.Itoa(item.Files),
					humanBytes(item.Size),
					item.ModTime.Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Run", "Files", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))

			if !remove {
				fmt.Fprintln(out, "Re-run with --remove to delete these directories so the runs are combined again")
				return errs.ErrorOrNil()
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
			result := recovery.Remove(cmd.Context(), found, logger)
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, failure := range result.Errors {
				errs = multierror.Append(errs, fmt.Errorf("remove %s: %w", failure.Path, failure.Error))
			}
			return errs.ErrorOrNil()
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Delete the incomplete output directories")
	return cmd
}
