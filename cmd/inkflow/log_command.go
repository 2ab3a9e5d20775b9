package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "log <job>",
		Short: "Show the most recent job log entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || jobID <= 0 {
				return fmt.Errorf("invalid job number %q", args[0])
			}
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				entries, err := rt.store.JobLog(cmd.Context(), jobID, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No log entries for job %d\n", jobID)
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					item := "-"
					if e.ItemID != nil {
						item = strconv.FormatInt(*e.ItemID, 10)
					}
					rows = append(rows, []string{
						strconv.FormatInt(e.Seq, 10),
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						e.Type,
						item,
						e.Message,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Seq", "When", "Type", "Item", "Message"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
