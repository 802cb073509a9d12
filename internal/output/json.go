package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/rotation"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatOutcomes outputs rotation outcomes as a JSON array
func (f *JSONFormatter) FormatOutcomes(w io.Writer, outcomes []rotation.Outcome) error {
	return f.Format(w, OutcomeRecords(outcomes))
}

// FormatProbe outputs reachability results as a JSON array
func (f *JSONFormatter) FormatProbe(w io.Writer, results []probe.Result) error {
	return f.Format(w, ProbeRecords(results))
}
