package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inkflow/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the queue directories and configured services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				deps := preflight.Deps{
					Catalog: rt.store.Ping,
					Proof:   proofProbe(rt),
				}
				if rt.archiver != nil {
					deps.Archive = rt.archiver.Check
				}
				results := preflight.RunAll(cmd.Context(), rt.cfg, deps)

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := renderSectionHeader("inkflow check", colorize)
				if ctx.configPath != "" {
					lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
				}
				for _, r := range results {
					kind := statusOK
					switch {
					case r.Skipped:
						kind = statusInfo
					case !r.Passed:
						kind = statusError
					}
					lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out, strings.Join(lines, "\n"))

				if preflight.Failed(results) {
					return errors.New("one or more checks failed")
				}
				return nil
			})
		},
	}
}

func proofProbe(rt *runtime) preflight.Probe {
	if p, ok := rt.proof.(interface{ Ping(context.Context) error }); ok {
		return p.Ping
	}
	return nil
}
