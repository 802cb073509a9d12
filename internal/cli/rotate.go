package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/internal/config"
	"github.com/aryankumar/pwrotate/internal/history"
	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/remote"
	"github.com/aryankumar/pwrotate/internal/report"
	"github.com/aryankumar/pwrotate/internal/rotation"
	"github.com/aryankumar/pwrotate/internal/util"
)

func newRotateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate passwords for every user on every reachable host",
		Long: `Rotate reads the users and hosts files, probes every host on the SSH
port, and for each reachable host and each user checks that the account
exists and sets a newly generated password.

New passwords are written only to the report spreadsheet: one row per host
with at least one successful change, followed by user/password column pairs
("-" where a user was not changed on that host). Failures are logged and
listed but never abort the run.`,
		Example: `  # Rotate using users.conf and ips.conf in the current directory
  pwrotate rotate

  # Use explicit lists, a custom report and lower concurrency
  pwrotate rotate --users admins.txt --hosts prod.txt --report prod.xlsx -p 10

  # Record the run in a local ledger
  pwrotate rotate --history ~/.pwrotate/history.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRotate(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	return cmd
}

// readInputs loads the user and host lists; either failing aborts the run
func readInputs(cfg *config.Config) (users, hosts []string, err error) {
	users, err = config.ReadList(cfg.Users)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: users file: %w", util.ErrInvalidConfig, err)
	}

	hosts, err = readHosts(cfg)
	if err != nil {
		return nil, nil, err
	}
	return users, hosts, nil
}

func readHosts(cfg *config.Config) ([]string, error) {
	raw, err := config.ReadList(cfg.Hosts)
	if err != nil {
		return nil, fmt.Errorf("%w: hosts file: %w", util.ErrInvalidConfig, err)
	}

	hosts := make([]string, 0, len(raw))
	for _, h := range raw {
		hosts = append(hosts, util.NormalizeHost(h))
	}
	return hosts, nil
}

func newProber(opts *rootOptions) *probe.Prober {
	return probe.NewProber(opts.logger,
		probe.WithPort(opts.cfg.SSH.Port),
		probe.WithTimeout(opts.cfg.SSH.ProbeTimeout))
}

func runRotate(ctx context.Context, opts *rootOptions, out io.Writer) error {
	cfg := opts.cfg
	logger := opts.logger

	users, hosts, err := readInputs(cfg)
	if err != nil {
		return err
	}

	started := time.Now()

	results := newProber(opts).Probe(ctx, hosts)
	reachable := probe.Reachable(results)
	logger.Info("reachability check complete",
		"hosts", len(hosts),
		"reachable", len(reachable))

	exec := remote.NewSSHExecutor(cfg.SSH.Remote(), logger)
	orch := rotation.New(exec,
		rotation.WithConcurrency(cfg.Concurrency),
		rotation.WithPasswordLength(cfg.PasswordLength),
		rotation.WithLogger(logger))

	stream, err := orch.Run(ctx, reachable, users)
	if err != nil {
		return err
	}
	outcomes, summary := rotation.Drain(stream, logger)
	finished := time.Now()

	// A report failure is logged but does not fail the run
	if err := report.Save(report.Build(outcomes), report.NewXLSXWriter(cfg.Report)); err != nil {
		logger.Error("failed to write report", "path", cfg.Report, "error", err)
	} else {
		logger.Info("report saved", "path", cfg.Report)
	}

	if cfg.History != "" {
		recordHistory(ctx, opts, history.Run{
			StartedAt:  started,
			FinishedAt: finished,
			Hosts:      len(reachable),
			Users:      len(users),
			Summary:    summary,
		}, outcomes)
	}

	if err := opts.formatter().FormatOutcomes(out, outcomes); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	logger.Info("rotation complete",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"crashed", summary.Crashed,
		"duration", finished.Sub(started).Round(time.Millisecond))

	return nil
}

// recordHistory writes the run to the ledger; failures are only logged
func recordHistory(ctx context.Context, opts *rootOptions, run history.Run, outcomes []rotation.Outcome) {
	logger := opts.logger

	store, err := history.Open(opts.cfg.History)
	if err != nil {
		logger.Error("failed to open history", "path", opts.cfg.History, "error", err)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close history", "error", err)
		}
	}()

	// The run may have been interrupted; still record what happened
	id, err := store.Record(context.WithoutCancel(ctx), run, outcomes)
	if err != nil {
		logger.Error("failed to record run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", id, "path", opts.cfg.History)
}
