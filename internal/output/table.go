package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/rotation"
)

// TableFormatter formats output as a borderless table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatOutcomes outputs rotation outcomes as a table followed by a summary
func (f *TableFormatter) FormatOutcomes(w io.Writer, outcomes []rotation.Outcome) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"HOST", "USER", "STATUS", "REASON", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "ERROR")
	}
	f.setHeaders(table, headers, colors)

	for _, rec := range OutcomeRecords(outcomes) {
		table.Append(f.outcomeRow(rec, colors))
	}

	table.Render()

	f.printOutcomeSummary(w, rotation.Summarize(outcomes), colors)
	return nil
}

// FormatProbe outputs reachability results as a table followed by a summary
func (f *TableFormatter) FormatProbe(w io.Writer, results []probe.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No hosts")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"HOST", "REACHABLE", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "ERROR")
	}
	f.setHeaders(table, headers, colors)

	reachable := 0
	for _, rec := range ProbeRecords(results) {
		if rec.Reachable {
			reachable++
		}
		row := []string{
			colors.Host("%s", rec.Host),
			colors.StatusColor(!rec.Reachable)("%t", rec.Reachable),
			colors.Duration("%s", rec.Duration),
		}
		if f.options.Wide {
			row = append(row, rec.Error)
		}
		table.Append(row)
	}

	table.Render()

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: %s, %s\n",
		colors.Success("%d reachable", reachable),
		colors.StatusColor(len(results)-reachable > 0)("%d unreachable", len(results)-reachable))
	return nil
}

func (f *TableFormatter) setHeaders(table *tablewriter.Table, headers []string, colors *ColorScheme) {
	if f.options.NoHeaders {
		return
	}
	if colors.Disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Header("%s", h)
	}
	table.SetHeader(colored)
}

// outcomeRow formats a single outcome as a table row
func (f *TableFormatter) outcomeRow(rec OutcomeRecord, colors *ColorScheme) []string {
	status := rec.Status
	switch rotation.Reason(rec.Reason) {
	case rotation.ReasonNone:
		status = colors.Success("%s", status)
	case rotation.ReasonTaskCrashed, rotation.ReasonCancelled:
		status = colors.Warning("%s", status)
	default:
		status = colors.Error("%s", status)
	}

	reason := rec.Reason
	if reason == "" {
		reason = "-"
	}

	row := []string{colors.Host("%s", rec.Host), rec.User, status, reason, colors.Duration("%s", rec.Duration)}

	if f.options.Wide {
		errText := rec.Error
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		row = append(row, errText)
	}

	return row
}

// formatMap formats a map as a two-column table sorted by key
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	for _, k := range sortedKeys(data) {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table; columns come from the
// first map in key order
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	keys := sortedKeys(data[0])
	headers := make([]string, len(keys))
	for i, k := range keys {
		headers[i] = strings.ToUpper(k)
	}

	if !f.options.NoHeaders {
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, 0, len(keys))
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%v", item[k]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// createTable creates a borderless, tab-padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	return NewTable(w)
}

// NewTable returns a tablewriter configured in the shared borderless style
func NewTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printOutcomeSummary prints the success and failure totals
func (f *TableFormatter) printOutcomeSummary(w io.Writer, summary rotation.Summary, colors *ColorScheme) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	successText := colors.Success("%d succeeded", summary.Succeeded)

	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failedText = colors.Error("%s", failedText)
	}

	if summary.Crashed > 0 {
		fmt.Fprintf(w, "%s, %s, %s\n", successText, failedText, colors.Warning("%d crashed", summary.Crashed))
		return
	}
	fmt.Fprintf(w, "%s, %s\n", successText, failedText)
}
