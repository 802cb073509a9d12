// Package probe checks which hosts accept TCP connections on the SSH port.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/aryankumar/pwrotate/internal/executor"
	"github.com/aryankumar/pwrotate/internal/util"
)

// Defaults for Prober
const (
	DefaultPort    = 22
	DefaultTimeout = 2 * time.Second
)

// Result is the reachability of one host
type Result struct {
	// Host is the host as given to Probe
	Host string

	// Reachable is true when the TCP handshake completed
	Reachable bool

	// Error is the reason the host is unreachable (nil when reachable)
	Error error

	// Duration is how long the probe took
	Duration time.Duration
}

// Dialer opens network connections; *net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober tests reachability of many hosts in parallel
type Prober struct {
	port    int
	timeout time.Duration
	dialer  Dialer
	logger  *slog.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithPort sets the TCP port to probe
func WithPort(port int) Option {
	return func(p *Prober) {
		if port > 0 {
			p.port = port
		}
	}
}

// WithTimeout sets the per-host connect timeout
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithDialer replaces the dialer
func WithDialer(d Dialer) Option {
	return func(p *Prober) {
		if d != nil {
			p.dialer = d
		}
	}
}

// NewProber creates a Prober for port 22 with a 2 second timeout unless
// overridden by opts
func NewProber(logger *slog.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Prober{
		port:    DefaultPort,
		timeout: DefaultTimeout,
		dialer:  &net.Dialer{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks every host concurrently and returns one Result per host in
// completion order. The pool gets one worker per host, so there is no
// concurrency limit: each probe is capped by the connect timeout, which
// bounds the whole call.
func (p *Prober) Probe(ctx context.Context, hosts []string) []Result {
	p.logger.Info("checking host reachability", "hosts", len(hosts), "port", p.port)

	results := make([]Result, 0, len(hosts))
	if len(hosts) == 0 {
		return results
	}

	pool := executor.NewPool(len(hosts), p.logger)

	// submitted maps pool indexes back to hosts; keys carry the index so an
	// empty host still gets a task
	submitted := make([]string, 0, len(hosts))
	for i, host := range hosts {
		h := host
		err := pool.Submit(executor.Task{
			Key: fmt.Sprintf("%d:%s", i, h),
			Execute: func(ctx context.Context) (interface{}, error) {
				return p.probeOne(ctx, h), nil
			},
		})
		if err != nil {
			results = append(results, p.logResult(Result{
				Host:  h,
				Error: util.WrapHostError(h, fmt.Errorf("%w: %w", util.ErrUnreachable, err)),
			}))
			continue
		}
		submitted = append(submitted, h)
	}

	for r := range pool.Stream(ctx) {
		res, ok := r.Data.(Result)
		if !ok {
			h := submitted[r.Index]
			res = Result{Host: h, Error: util.WrapHostError(h, fmt.Errorf("%w: %w", util.ErrUnreachable, r.Error))}
		}
		results = append(results, p.logResult(res))
	}

	p.logger.Info("reachability check completed",
		"total", len(results),
		"reachable", len(Reachable(results)))

	return results
}

// logResult writes the per-host line and returns res unchanged
func (p *Prober) logResult(res Result) Result {
	if res.Reachable {
		p.logger.Info("host reachable", "host", res.Host, "duration", res.Duration.Round(time.Millisecond))
	} else {
		p.logger.Warn("host unreachable", "host", res.Host, "error", res.Error)
	}
	return res
}

// probeOne dials a single host
func (p *Prober) probeOne(ctx context.Context, host string) Result {
	start := time.Now()
	res := Result{Host: host}

	ip := util.ParseHostIP(host)
	if ip == nil {
		res.Error = util.WrapHostError(host, fmt.Errorf("%w: not an IP address", util.ErrUnreachable))
		return res
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(p.port))
	conn, err := p.dialer.DialContext(dialCtx, "tcp", addr)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = util.WrapHostError(host, fmt.Errorf("%w: %w", util.ErrUnreachable, err))
		return res
	}
	conn.Close()

	res.Reachable = true
	return res
}

// Reachable returns the hosts of the reachable results
func Reachable(results []Result) []string {
	hosts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Reachable {
			hosts = append(hosts, r.Host)
		}
	}
	return hosts
}
