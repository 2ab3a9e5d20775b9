package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inkflow/internal/daemon"
	"inkflow/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every pending coverage document once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				lock, err := daemon.AcquireLock(rt.cfg.LockPath())
				if err != nil {
					return err
				}
				defer lock.Unlock() //nolint:errcheck

				if rt.cfg.Pipeline.RecoverOnStart {
					if _, err := rt.runner.Recover(); err != nil {
						return fmt.Errorf("recover processing: %w", err)
					}
				}

				summary, runErr := rt.runner.RunOnce(cmd.Context())
				if asJSON {
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
				} else {
					fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary))
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the batch summary as JSON")
	return cmd
}

func renderSummary(s pipeline.Summary) string {
	if s.Pending == 0 {
		return "No pending coverage documents\n"
	}
	rows := [][]string{
		{"Pending", strconv.Itoa(s.Pending)},
		{"Committed", strconv.Itoa(s.Committed)},
		{"Cancelled", strconv.Itoa(s.Cancelled)},
		{"Rejected", strconv.Itoa(s.Rejected)},
		{"Malformed", strconv.Itoa(s.Malformed)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Retried", strconv.Itoa(s.Retried)},
		{"Skipped", strconv.Itoa(s.Skipped)},
	}
	out := renderTable([]string{"Disposition", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	if s.Drained {
		out += "Batch interrupted; remaining documents stay in intake\n"
	}
	return out
}
