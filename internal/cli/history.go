package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/internal/history"
	"github.com/aryankumar/pwrotate/internal/output"
	"github.com/aryankumar/pwrotate/internal/util"
)

const historyTimeFormat = "2006-01-02 15:04:05"

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List rotation runs recorded in the history ledger",
		Long: `History lists the runs recorded by rotate when --history is set, newest
first. With --run it lists the per-task outcomes of one run instead.
Passwords are never recorded.`,
		Example: `  # Last 20 runs
  pwrotate history --history ~/.pwrotate/history.db

  # Outcomes of one run
  pwrotate history --history ~/.pwrotate/history.db --run 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.History
			if path == "" {
				return fmt.Errorf("%w: no history file configured (use --history)", util.ErrInvalidConfig)
			}

			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				entries, err := store.Entries(cmd.Context(), runID)
				if err != nil {
					return err
				}
				last, err := lastRotations(cmd.Context(), store, entries)
				if err != nil {
					return err
				}
				return printEntries(out, opts, entries, last)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(out, opts, runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "list the outcomes of this run")

	return cmd
}

func printRuns(w io.Writer, opts *rootOptions, runs []history.Run) error {
	if opts.cfg.Output != string(output.FormatTable) {
		items := make([]map[string]interface{}, 0, len(runs))
		for _, r := range runs {
			items = append(items, map[string]interface{}{
				"id":        r.ID,
				"started":   r.StartedAt.Local().Format(time.RFC3339),
				"finished":  r.FinishedAt.Local().Format(time.RFC3339),
				"hosts":     r.Hosts,
				"users":     r.Users,
				"total":     r.Summary.Total,
				"succeeded": r.Summary.Succeeded,
				"failed":    r.Summary.Failed,
				"crashed":   r.Summary.Crashed,
			})
		}
		return opts.formatter().Format(w, items)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	table := output.NewTable(w)
	table.SetHeader([]string{"ID", "STARTED", "DURATION", "HOSTS", "USERS", "SUCCEEDED", "FAILED"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format(historyTimeFormat),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			strconv.Itoa(r.Hosts),
			strconv.Itoa(r.Users),
			strconv.Itoa(r.Summary.Succeeded),
			strconv.Itoa(r.Summary.Failed),
		})
	}
	table.Render()
	return nil
}

// lastRotations looks up the most recent successful change of every
// (host, user) in entries, across all recorded runs
func lastRotations(ctx context.Context, store *history.Store, entries []history.Entry) (map[string]time.Time, error) {
	last := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		key := e.User + "@" + e.Host
		if _, done := last[key]; done {
			continue
		}
		at, ok, err := store.LastRotation(ctx, e.Host, e.User)
		if err != nil {
			return nil, err
		}
		if ok {
			last[key] = at
		}
	}
	return last, nil
}

func printEntries(w io.Writer, opts *rootOptions, entries []history.Entry, last map[string]time.Time) error {
	lastRotated := func(e history.Entry) string {
		at, ok := last[e.User+"@"+e.Host]
		if !ok {
			return "-"
		}
		return at.Local().Format(historyTimeFormat)
	}

	if opts.cfg.Output != string(output.FormatTable) {
		items := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			items = append(items, map[string]interface{}{
				"host":        e.Host,
				"user":        e.User,
				"status":      e.Status,
				"reason":      e.Reason,
				"error":       e.Error,
				"duration":    e.Duration.String(),
				"lastRotated": lastRotated(e),
			})
		}
		return opts.formatter().Format(w, items)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No outcomes recorded for this run")
		return nil
	}

	table := output.NewTable(w)
	table.SetHeader([]string{"HOST", "USER", "STATUS", "REASON", "DURATION", "LAST ROTATED"})
	for _, e := range entries {
		reason := e.Reason
		if reason == "" {
			reason = "-"
		}
		table.Append([]string{e.Host, e.User, e.Status, reason, e.Duration.String(), lastRotated(e)})
	}
	table.Render()
	return nil
}
