package main

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"autocombine/internal/runscan"
)

type scanRow struct {
	RunID       string          `json:"run_id"`
	RunDir      string          `json:"run_dir"`
	Status      string          `json:"status"`
	SampleSheet string          `json:"samplesheet,omitempty"`
	Conditions  map[string]bool `json:"conditions_checked"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var foundOnly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report which run directories are ready to combine (no changes are made)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.fileLogger(cfg)
			if err != nil {
				return err
			}
			scanner := runscan.New(runscan.Options{
				ParentDirs:          cfg.Scan.RunParentDirs,
				CheckUploadComplete: cfg.Scan.CheckUploadComplete,
			}, logger)

			var (
				rows []scanRow
				errs *multierror.Error
			)
			for result, err := range scanner.Scan(cmd.Context()) {
				if err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
				if foundOnly && result.Kind != runscan.Found {
					continue
				}
				conditions := make(map[string]bool, len(result.Conditions))
				for _, cond := range result.Conditions {
					conditions[cond.Name] = cond.Met
				}
				rows = append(rows, scanRow{
					RunID:       result.Run.ID,
					RunDir:      result.Run.Dir,
					Status:      result.Kind.String(),
					SampleSheet: result.Run.SampleSheet,
					Conditions:  conditions,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !isTerminal(out) {
				for _, row := range rows {
					if err := writeJSONLine(out, row); err != nil {
						return err
					}
				}
				return errs.ErrorOrNil()
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "No run directories found")
				return errs.ErrorOrNil()
			}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				tableRows = append(tableRows, []string{row.RunID, row.Status, failedConditions(row.Conditions), row.SampleSheet})
			}
			fmt.Fprintln(out, renderTable([]string{"Run", "Status", "Failed checks", "Sample sheet"}, tableRows, nil))
			return errs.ErrorOrNil()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit one JSON object per directory")
	cmd.Flags().BoolVar(&foundOnly, "found", false, "Only list runs that are ready to combine")
	return cmd
}

// failedConditions lists unmet checks in evaluation order.
func failedConditions(conditions map[string]bool) string {
	order := []string{
		runscan.CondIsDirectory,
		runscan.CondMatchesRunID,
		runscan.CondReadyToAnalyze,
		runscan.CondHasFastqPass,
		runscan.CondNotAlreadyInitiated,
		runscan.CondSampleSheetExists,
	}
	var failed []string
	for _, name := range order {
		if met, ok := conditions[name]; ok && !met {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return "-"
	}
	return strings.Join(failed, ", ")
}
