package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/rotation"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatOutcomes outputs rotation outcomes as a YAML sequence
func (f *YAMLFormatter) FormatOutcomes(w io.Writer, outcomes []rotation.Outcome) error {
	return f.Format(w, OutcomeRecords(outcomes))
}

// FormatProbe outputs reachability results as a YAML sequence
func (f *YAMLFormatter) FormatProbe(w io.Writer, results []probe.Result) error {
	return f.Format(w, ProbeRecords(results))
}
