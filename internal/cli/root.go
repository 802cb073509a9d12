package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/internal/config"
	"github.com/aryankumar/pwrotate/internal/output"
	"github.com/aryankumar/pwrotate/internal/password"
	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/remote"
	"github.com/aryankumar/pwrotate/internal/report"
)

// logTimeFormat renders the slog time attribute
const logTimeFormat = "2006-01-02 15:04:05"

// rootOptions carries state shared by every subcommand
type rootOptions struct {
	cfgFile   string
	verbose   bool
	noColor   bool
	noHeaders bool

	cfg    *config.Config
	logger *slog.Logger

	// logOutput receives log lines; stderr unless a test replaces it
	logOutput io.Writer
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command logging to stderr
func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&rootOptions{logOutput: os.Stderr})
}

// newRootCmdWithOptions creates the root command around opts
func newRootCmdWithOptions(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pwrotate",
		Short: "pwrotate - rotate account passwords across a fleet of hosts",
		Long: `pwrotate rotates local account passwords on many hosts over SSH.

It probes every host on the SSH port, checks that each configured user
exists, sets a freshly generated password for every (host, user) pair
with bounded concurrency, and writes the new passwords to a spreadsheet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.pwrotate.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output with debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.noHeaders, "no-headers", false, "omit table headers")
	flags.StringP("output", "o", config.DefaultOutput, "output format (table, json, yaml)")

	flags.String("users", config.DefaultUsersFile, "file listing usernames, one per line")
	flags.String("hosts", config.DefaultHostsFile, "file listing host addresses, one per line")
	flags.String("report", report.DefaultPath, "spreadsheet to write new passwords to")
	flags.IntP("concurrency", "p", config.DefaultConcurrency, "maximum number of tasks in flight")
	flags.Int("password-length", password.DefaultLength, "length of generated passwords")
	flags.String("history", "", "SQLite file recording each run (empty disables)")

	flags.String("ssh-binary", remote.DefaultBinary, "ssh client to invoke")
	flags.Int("ssh-port", remote.DefaultPort, "SSH port to probe and connect to")
	flags.Duration("connect-timeout", remote.DefaultConnectTimeout, "ssh connection timeout")
	flags.Duration("probe-timeout", probe.DefaultTimeout, "reachability probe timeout per host")
	flags.Duration("check-timeout", remote.DefaultCheckTimeout, "hard timeout for the user existence check")
	flags.Duration("change-timeout", remote.DefaultChangeTimeout, "hard timeout for the password change")
	flags.String("passwd-command", remote.DefaultPasswdCommand, "remote command reading user:password lines on stdin")
	flags.String("strict-host-key-checking", remote.DefaultHostKeyPolicy, "ssh StrictHostKeyChecking value")

	rootCmd.AddCommand(newRotateCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newGenpassCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// initConfig loads configuration and sets up logging
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	o.setupLogging()

	manager := config.NewManager(o.cfgFile)
	if err := manager.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := manager.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	o.cfg = cfg

	if used := manager.ConfigFileUsed(); used != "" {
		o.logger.Debug("loaded configuration", "file", used)
	}
	return nil
}

// setupLogging configures structured logging with slog
func (o *rootOptions) setupLogging() {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(logTimeFormat))
			}
			return a
		},
	}

	var handler slog.Handler
	if o.noColor {
		handler = slog.NewJSONHandler(o.logOutput, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.logOutput, handlerOpts)
	}

	o.logger = slog.New(handler)
	slog.SetDefault(o.logger)

	o.logger.Debug("verbose logging enabled")
}

// formatter returns the console formatter for the configured output format
func (o *rootOptions) formatter() output.Formatter {
	return output.NewFormatter(output.Format(o.cfg.Output),
		output.WithNoColor(o.noColor),
		output.WithNoHeaders(o.noHeaders),
		output.WithWide(o.verbose))
}
