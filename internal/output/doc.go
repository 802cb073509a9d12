// Package output renders pwrotate results on the console.
//
// Three formats are supported: a borderless table with a coloured summary
// line, JSON and YAML. Rotation outcomes and reachability results are
// converted to records sorted by host (then user) before rendering, so the
// listing is stable regardless of completion order. Passwords are always
// masked; the only place a generated password is written is the report.
//
// Colours are disabled for non-TTY writers and with WithNoColor(true).
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true))
//	formatter.FormatOutcomes(os.Stdout, outcomes)
package output
