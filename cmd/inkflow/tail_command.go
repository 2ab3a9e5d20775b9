package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inkflow/internal/logs"
)

func newTailCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var document string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the inkflow log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			recent, offset, err := logs.Last(path, logs.Options{Lines: lines, Match: document})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(followCtx, path, offset, document, 0, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	cmd.Flags().StringVarP(&document, "document", "d", "", "Only show lines mentioning this document or correlation id")
	return cmd
}
