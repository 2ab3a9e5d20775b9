package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"inkflow/internal/daemon"
	"inkflow/internal/intake"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and repair the intake queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRequeueCommand(ctx))
	queueCmd.AddCommand(newQueueRecoverCommand(ctx))

	return queueCmd
}

type queueEntry struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var showInvalid, showProcessing, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending documents (or invalid/processing with flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(q *intake.Queue) error {
				var (
					docs     []intake.PendingDocument
					location string
					err      error
				)
				switch {
				case showInvalid:
					docs, err = q.Invalid()
					location = "invalid"
				case showProcessing:
					docs, err = q.Processing()
					location = "processing"
				default:
					docs, err = q.Pending()
					location = "intake"
				}
				if err != nil {
					return err
				}

				entries := make([]queueEntry, 0, len(docs))
				for _, doc := range docs {
					entries = append(entries, queueEntry{Name: doc.Name, Location: location, Size: doc.Size, Modified: doc.ModTime})
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No documents in %s\n", location)
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Name, strconv.FormatInt(e.Size, 10), e.Modified.Local().Format("2006-01-02 15:04:05")})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Document", "Bytes", "Modified"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showInvalid, "invalid", false, "List quarantined documents")
	cmd.Flags().BoolVar(&showProcessing, "processing", false, "List claimed documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.MarkFlagsMutuallyExclusive("invalid", "processing")
	return cmd
}

func newQueueRequeueCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "requeue [document...]",
		Short: "Move quarantined documents back to intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("name at least one document or pass --all")
			}
			return ctx.withQueue(func(q *intake.Queue) error {
				names := args
				if all {
					docs, err := q.Invalid()
					if err != nil {
						return err
					}
					names = names[:0:0]
					for _, doc := range docs {
						names = append(names, doc.Name)
					}
				}
				out := cmd.OutOrStdout()
				var errs []error
				for _, name := range names {
					dest, err := q.Requeue(name)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(out, "Requeued %s -> %s\n", name, dest)
				}
				if len(names) == 0 {
					fmt.Fprintln(out, "No quarantined documents")
				}
				return errors.Join(errs...)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Requeue every quarantined document")
	return cmd
}

func newQueueRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Return documents abandoned in processing to intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := daemon.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Unlock() //nolint:errcheck

			return ctx.withQueue(func(q *intake.Queue) error {
				recovered, err := q.RecoverProcessing()
				out := cmd.OutOrStdout()
				for _, name := range recovered {
					fmt.Fprintf(out, "Recovered %s\n", filepath.Base(name))
				}
				if len(recovered) == 0 && err == nil {
					fmt.Fprintln(out, "Nothing to recover")
				}
				return err
			})
		},
	}
}
