package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inkflow/internal/daemon"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the intake directory until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				d, err := daemon.New(rt.cfg, rt.runner, rt.queue, rt.logger)
				if err != nil {
					return err
				}
				if err := d.Run(runCtx); err != nil {
					return err
				}
				if runCtx.Err() != nil && cmd.Context().Err() == nil {
					rt.logger.Info("inkflow watcher shutting down")
				}
				return nil
			})
		},
	}
}
