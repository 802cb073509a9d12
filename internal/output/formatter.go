package output

import (
	"io"
	"sort"

	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/rotation"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a borderless table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatOutcomes outputs rotation outcomes with passwords masked
	FormatOutcomes(w io.Writer, outcomes []rotation.Outcome) error

	// FormatProbe outputs reachability results
	FormatProbe(w io.Writer, results []probe.Result) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide enables wide output with additional columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// OutcomeRecord is the display form of a rotation outcome
type OutcomeRecord struct {
	Host     string `json:"host" yaml:"host"`
	User     string `json:"user" yaml:"user"`
	Status   string `json:"status" yaml:"status"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Duration string `json:"duration" yaml:"duration"`
}

// ProbeRecord is the display form of a reachability result
type ProbeRecord struct {
	Host      string `json:"host" yaml:"host"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  string `json:"duration" yaml:"duration"`
}

// OutcomeRecords converts outcomes to records sorted by host then user.
// Passwords are always masked.
func OutcomeRecords(outcomes []rotation.Outcome) []OutcomeRecord {
	records := make([]OutcomeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		rec := OutcomeRecord{
			Host:     o.Host,
			User:     o.User,
			Status:   o.Status(),
			Reason:   string(o.Reason),
			Duration: o.Duration.String(),
		}
		if o.Succeeded() {
			rec.Password = rotation.MaskedPassword
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Host != records[j].Host {
			return records[i].Host < records[j].Host
		}
		return records[i].User < records[j].User
	})
	return records
}

// ProbeRecords converts probe results to records sorted by host
func ProbeRecords(results []probe.Result) []ProbeRecord {
	records := make([]ProbeRecord, 0, len(results))
	for _, r := range results {
		rec := ProbeRecord{
			Host:      r.Host,
			Reachable: r.Reachable,
			Duration:  r.Duration.String(),
		}
		if r.Error != nil {
			rec.Error = r.Error.Error()
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Host < records[j].Host
	})
	return records
}
