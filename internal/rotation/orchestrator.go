// Package rotation drives password rotation across the host x user cross
// product under a global concurrency ceiling.
package rotation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryankumar/pwrotate/internal/executor"
	"github.com/aryankumar/pwrotate/internal/password"
	"github.com/aryankumar/pwrotate/internal/remote"
	"github.com/aryankumar/pwrotate/internal/util"
)

// DefaultConcurrency is the number of tasks allowed in flight at once
const DefaultConcurrency = 50

// GenerateFunc produces a new password of the given length
type GenerateFunc func(length int) (string, error)

// Orchestrator runs rotation tasks through a bounded executor pool
type Orchestrator struct {
	remote      remote.Executor
	generate    GenerateFunc
	length      int
	concurrency int
	logger      *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithConcurrency sets the concurrency ceiling
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPasswordLength sets the generated password length
func WithPasswordLength(n int) Option {
	return func(o *Orchestrator) {
		o.length = n
	}
}

// WithGenerator replaces the password generator
func WithGenerator(fn GenerateFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.generate = fn
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator over the given remote executor
func New(exec remote.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:      exec,
		generate:    password.Generate,
		length:      password.DefaultLength,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run starts one task per (host, user) pair and returns a channel of
// outcomes in completion order. The channel yields exactly
// len(hosts)*len(users) outcomes and is then closed.
func (o *Orchestrator) Run(ctx context.Context, hosts, users []string) (<-chan Outcome, error) {
	if o.remote == nil {
		return nil, fmt.Errorf("rotation: no remote executor configured")
	}
	if o.length < password.MinLength {
		return nil, fmt.Errorf("rotation: %w: %d < %d", password.ErrLengthTooShort, o.length, password.MinLength)
	}

	tasks := Tasks(hosts, users)

	pool := executor.NewPool(o.concurrency, o.logger)
	for _, t := range tasks {
		t := t
		err := pool.Submit(executor.Task{
			Key: t.String(),
			Execute: func(ctx context.Context) (interface{}, error) {
				return o.rotate(ctx, t), nil
			},
		})
		if err != nil {
			return nil, fmt.Errorf("rotation: submit %s: %w", t, err)
		}
	}

	o.logger.Info("starting rotation",
		"hosts", len(hosts),
		"users", len(users),
		"tasks", pool.TaskCount(),
		"concurrency", pool.WorkerCount())

	results := pool.StreamWithProgress(ctx, func(completed, total int) {
		o.logger.Debug("rotation progress", "completed", completed, "total", total)
	})
	out := make(chan Outcome, len(tasks))

	go func() {
		defer close(out)

		for r := range results {
			out <- toOutcome(tasks[r.Index], r)
		}
	}()

	return out, nil
}

// rotate performs the check, generate, change sequence for one task
func (o *Orchestrator) rotate(ctx context.Context, t Task) Outcome {
	out := Outcome{Host: t.Host, User: t.User}

	status, err := o.remote.CheckUserExists(ctx, t.Host, t.User)
	if status != remote.StatusOK {
		out.Reason = ReasonUserNotFound
		out.Err = err
		return out
	}

	pw, err := o.generate(o.length)
	if err != nil {
		out.Reason = ReasonPasswordChangeFailed
		out.Err = fmt.Errorf("generate password: %w", err)
		return out
	}

	status, err = o.remote.SetPassword(ctx, t.Host, t.User, pw)
	if status != remote.StatusOK {
		out.Reason = ReasonPasswordChangeFailed
		out.Err = err
		return out
	}

	out.Password = pw
	return out
}

// toOutcome maps a pool result back onto its task
func toOutcome(t Task, r executor.Result) Outcome {
	if o, ok := r.Data.(Outcome); ok && r.Error == nil {
		o.Duration = r.Duration
		return o
	}

	out := Outcome{
		Host:     t.Host,
		User:     t.User,
		Err:      r.Error,
		Duration: r.Duration,
		Reason:   ReasonCancelled,
	}
	if r.Panicked {
		out.Reason = ReasonTaskCrashed
	}
	return out
}

// Drain consumes the outcome stream, logging each outcome as it arrives,
// and returns every outcome together with the tally
func Drain(outcomes <-chan Outcome, logger *slog.Logger) ([]Outcome, Summary) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		all     []Outcome
		summary Summary
	)
	for o := range outcomes {
		summary.Add(o)
		all = append(all, o)

		switch o.Reason {
		case ReasonNone:
			logger.Info("password changed", "user", o.User, "host", o.Host, "password", MaskedPassword)
		case ReasonTaskCrashed:
			logger.Error("task crashed", "user", o.User, "host", o.Host, "error", o.Err)
		case ReasonCancelled:
			logger.Warn("task cancelled", "user", o.User, "host", o.Host)
		default:
			if util.IsCancelled(o.Err) {
				logger.Warn("task interrupted", "user", o.User, "host", o.Host, "reason", string(o.Reason))
				continue
			}
			logger.Error("rotation failed", "user", o.User, "host", o.Host, "reason", string(o.Reason), "error", o.Err)
		}
	}

	return all, summary
}
