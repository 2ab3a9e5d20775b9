package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inkflow/internal/coverage"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <document>",
		Short: "Parse a coverage document without touching the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := coverage.Parser{Extension: cfg.Intake.Extension}.ParseFile(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:       %d\n", doc.JobID())
			fmt.Fprintf(out, "Item:      %d\n", doc.ItemNumber())
			if doc.File.Marker != "" {
				fmt.Fprintf(out, "Marker:    %s\n", doc.File.Marker)
			}
			fmt.Fprintf(out, "Artwork:   %s\n", doc.ArtworkPath)
			if doc.Proofer != "" {
				fmt.Fprintf(out, "Proofer:   %s\n", doc.Proofer)
			}
			fmt.Fprintf(out, "Cancelled: %s\n", yesNo(doc.Cancelled))

			rows := make([][]string, 0, len(doc.Inks))
			for _, ink := range doc.Inks {
				sqin := "-"
				if v, ok := ink.CoverageSquareInches(); ok {
					sqin = strconv.FormatFloat(v, 'f', 3, 64)
				}
				pct := "-"
				if ink.CoveragePercent != nil {
					pct = strconv.FormatFloat(*ink.CoveragePercent, 'f', 2, 64)
				}
				rows = append(rows, []string{
					strconv.Itoa(ink.Index),
					ink.Name,
					ink.Hex(),
					strconv.FormatFloat(ink.Angle, 'f', -1, 64),
					strconv.FormatFloat(ink.LPI, 'f', -1, 64),
					pct,
					sqin,
					yesNo(coverage.IsImportable(ink.Name)),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"#", "Ink", "Hex", "Angle", "LPI", "Coverage %", "Sq in", "Import"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parsed document as JSON")
	return cmd
}
