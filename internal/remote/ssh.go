package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/aryankumar/pwrotate/internal/util"
)

// Defaults for SSHExecutor
const (
	DefaultBinary         = "ssh"
	DefaultPort           = 22
	DefaultConnectTimeout = 5 * time.Second
	DefaultCheckTimeout   = 8 * time.Second
	DefaultChangeTimeout  = 10 * time.Second
	DefaultPasswdCommand  = "sudo -n chpasswd"
	DefaultHostKeyPolicy  = "no"
)

// exit status of `id` for an unknown user
const exitNoSuchUser = 1

// waitDelay bounds how long a killed ssh may keep its stderr pipe open
// through children such as a ProxyCommand or ControlMaster
const waitDelay = time.Second

// Runner starts a process and waits for it. It returns the exit code when
// the process ran to completion, or an error when it could not be started
// or was killed.
type Runner func(ctx context.Context, name string, args []string, stdin io.Reader) (exitCode int, stderr string, err error)

// SSHConfig configures SSHExecutor
type SSHConfig struct {
	// Binary is the ssh client to invoke
	Binary string

	// Port is the remote SSH port
	Port int

	// ConnectTimeout is passed to ssh as ConnectTimeout
	ConnectTimeout time.Duration

	// CheckTimeout bounds the whole existence check
	CheckTimeout time.Duration

	// ChangeTimeout bounds the whole password change
	ChangeTimeout time.Duration

	// PasswdCommand reads "user:password" lines on stdin
	PasswdCommand string

	// StrictHostKeyChecking is passed to ssh verbatim
	StrictHostKeyChecking string
}

// SSHExecutor implements Executor by spawning the system ssh client in batch
// mode. It relies on keys or an agent already accepted by every target.
type SSHExecutor struct {
	cfg    SSHConfig
	run    Runner
	logger *slog.Logger
}

// NewSSHExecutor creates an SSHExecutor, filling zero fields of cfg with defaults
func NewSSHExecutor(cfg SSHConfig, logger *slog.Logger) *SSHExecutor {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultCheckTimeout
	}
	if cfg.ChangeTimeout <= 0 {
		cfg.ChangeTimeout = DefaultChangeTimeout
	}
	if cfg.PasswdCommand == "" {
		cfg.PasswdCommand = DefaultPasswdCommand
	}
	if cfg.StrictHostKeyChecking == "" {
		cfg.StrictHostKeyChecking = DefaultHostKeyPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SSHExecutor{
		cfg:    cfg,
		run:    execRunner,
		logger: logger,
	}
}

// WithRunner replaces the process runner, used by tests
func (e *SSHExecutor) WithRunner(r Runner) *SSHExecutor {
	e.run = r
	return e
}

// CheckUserExists runs `id -u -- 'user'` on host with password
// authentication disabled
func (e *SSHExecutor) CheckUserExists(ctx context.Context, host, user string) (Status, error) {
	if err := ValidateUsername(user); err != nil {
		return StatusError, err
	}

	args := e.baseArgs("-o", "PasswordAuthentication=no")
	args = append(args, util.NormalizeHost(host), "id -u -- "+shellQuote(user))

	code, stderr, err := e.invoke(ctx, e.cfg.CheckTimeout, args, nil)
	switch {
	case err != nil:
		return StatusError, util.WrapHostError(host, err)
	case code == 0:
		return StatusOK, nil
	case code == exitNoSuchUser:
		return StatusNotFound, nil
	default:
		return StatusError, util.WrapHostError(host, exitError(code, stderr))
	}
}

// SetPassword feeds "user:password" to the configured password utility over
// the session's stdin, so neither value appears on any command line
func (e *SSHExecutor) SetPassword(ctx context.Context, host, user, password string) (Status, error) {
	if err := ValidateUsername(user); err != nil {
		return StatusError, err
	}
	if strings.ContainsAny(password, "\n\r") {
		return StatusError, fmt.Errorf("password for %q contains a line break", user)
	}

	args := e.baseArgs()
	args = append(args, util.NormalizeHost(host), e.cfg.PasswdCommand)

	stdin := strings.NewReader(user + ":" + password + "\n")
	code, stderr, err := e.invoke(ctx, e.cfg.ChangeTimeout, args, stdin)
	switch {
	case err != nil:
		return StatusError, util.WrapHostError(host, err)
	case code != 0:
		return StatusError, util.WrapHostError(host, exitError(code, stderr))
	default:
		return StatusOK, nil
	}
}

// baseArgs returns the non-interactive ssh options shared by every call
func (e *SSHExecutor) baseArgs(extra ...string) []string {
	connectSecs := int(e.cfg.ConnectTimeout.Round(time.Second) / time.Second)
	if connectSecs < 1 {
		connectSecs = 1
	}

	args := []string{
		"-o", "BatchMode=yes",
		"-o", "ConnectTimeout=" + strconv.Itoa(connectSecs),
		"-o", "StrictHostKeyChecking=" + e.cfg.StrictHostKeyChecking,
		"-p", strconv.Itoa(e.cfg.Port),
	}
	return append(args, extra...)
}

// invoke runs the ssh client under a hard timeout
func (e *SSHExecutor) invoke(ctx context.Context, timeout time.Duration, args []string, stdin io.Reader) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	code, stderr, err := e.run(ctx, e.cfg.Binary, args, stdin)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", util.ErrTimeout, timeout)
		} else {
			err = fmt.Errorf("%w: %w", util.ErrCancelled, ctxErr)
		}
	}

	e.logger.Debug("ssh finished",
		"args", strings.Join(args[:len(args)-1], " "),
		"exit_code", code,
		"duration", time.Since(start),
		"error", err)

	return code, stderr, err
}

func exitError(code int, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%w: exit status %d", util.ErrRemoteCommand, code)
	}
	return fmt.Errorf("%w: exit status %d: %s", util.ErrRemoteCommand, code, stderr)
}

// shellQuote wraps s in single quotes for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// execRunner is the os/exec backed Runner
func execRunner(ctx context.Context, name string, args []string, stdin io.Reader) (int, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return 0, stderr.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return exitErr.ExitCode(), stderr.String(), nil
	}
	return -1, stderr.String(), err
}
