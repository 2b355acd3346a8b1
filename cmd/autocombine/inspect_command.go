package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"autocombine/internal/fastqstat"
)

func newInspectCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "inspect FILE...",
		Short:       "Count reads and bases in gzip FASTQ files",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var (
				rows [][]string
				errs *multierror.Error
			)
			for _, path := range args {
				stats, err := fastqstat.Count(path)
				if err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
				if jsonOutput {
					if err := writeJSONLine(out, struct {
						File string `json:"file"`
						fastqstat.Stats
					}{path, stats}); err != nil {
						return err
					}
					continue
				}
				rows = append(rows, []string{
					filepath.Base(path),
					strconv.FormatInt(stats.Reads, 10),
					strconv.FormatInt(stats.Bases, 10),
					fmt.Sprintf("%.1f", stats.MeanLength()),
					strconv.Itoa(stats.MinLength),
					strconv.Itoa(stats.MaxLength),
				})
			}
			if len(rows) > 0 {
				right := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
				fmt.Fprintln(out, renderTable([]string{"File", "Reads", "Bases", "Mean length", "Min", "Max"}, rows, right))
			}
			return errs.ErrorOrNil()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit one JSON object per file")
	return cmd
}
