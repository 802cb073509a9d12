package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/rotation"
)

func TestNewTableFormatter(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
	}{
		{name: "nil options", opts: nil},
		{name: "with options", opts: &Options{NoColor: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewTableFormatter(tt.opts)
			if formatter == nil {
				t.Fatal("NewTableFormatter returned nil")
			}
			if formatter.options == nil {
				t.Error("formatter.options is nil")
			}
		})
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		contains []string
	}{
		{
			name:     "map data",
			data:     map[string]interface{}{"name": "test", "value": 123},
			contains: []string{"name", "value", "test", "123"},
		},
		{
			name: "slice of maps",
			data: []map[string]interface{}{
				{"name": "item1", "count": 10},
				{"name": "item2", "count": 20},
			},
			contains: []string{"NAME", "COUNT", "item1", "item2", "10", "20"},
		},
		{
			name:     "empty slice",
			data:     []map[string]interface{}{},
			contains: []string{},
		},
		{
			name:     "string data",
			data:     "simple string",
			contains: []string{"simple string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewTableFormatter(&Options{NoColor: true}).Format(&buf, tt.data); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestTableFormatter_MapSliceColumnsSorted(t *testing.T) {
	var buf bytes.Buffer
	data := []map[string]interface{}{{"zeta": 1, "alpha": 2, "mid": 3}}
	if err := NewTableFormatter(&Options{NoColor: true}).Format(&buf, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	a, m, z := strings.Index(header, "ALPHA"), strings.Index(header, "MID"), strings.Index(header, "ZETA")
	if !(a >= 0 && a < m && m < z) {
		t.Errorf("columns not sorted: %q", header)
	}
}

func TestTableFormatter_FormatOutcomes(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTableFormatter(&Options{NoColor: true})
	if err := formatter.FormatOutcomes(&buf, sampleOutcomes()); err != nil {
		t.Fatalf("FormatOutcomes: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"HOST", "USER", "STATUS", "REASON", "DURATION", "10.0.0.1", "deploy", "USER_NOT_FOUND", "success"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ERROR") {
		t.Error("error column should only appear in wide mode")
	}
	if !strings.Contains(out, "Summary: 2 succeeded, 1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[1], "admin") || !strings.Contains(lines[2], "deploy") || !strings.Contains(lines[3], "root") {
		t.Errorf("rows not sorted by host then user:\n%s", out)
	}
}

func TestTableFormatter_FormatOutcomesWide(t *testing.T) {
	long := strings.Repeat("x", 100)
	outcomes := []rotation.Outcome{
		{Host: "h1", User: "u1", Reason: rotation.ReasonPasswordChangeFailed, Err: errors.New(long)},
		{Host: "h1", User: "u2", Reason: rotation.ReasonTaskCrashed, Err: errors.New("boom")},
	}

	var buf bytes.Buffer
	if err := NewTableFormatter(&Options{NoColor: true, Wide: true}).FormatOutcomes(&buf, outcomes); err != nil {
		t.Fatalf("FormatOutcomes: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ERROR") {
		t.Error("wide mode should include the error column")
	}
	if strings.Contains(out, long) {
		t.Error("long errors should be truncated")
	}
	if !strings.Contains(out, "...") || !strings.Contains(out, "boom") {
		t.Errorf("unexpected error column:\n%s", out)
	}
	if !strings.Contains(out, "0 succeeded, 2 failed, 1 crashed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter(&Options{NoColor: true, NoHeaders: true}).FormatOutcomes(&buf, sampleOutcomes()); err != nil {
		t.Fatalf("FormatOutcomes: %v", err)
	}
	if strings.Contains(buf.String(), "HOST") {
		t.Errorf("headers should be hidden:\n%s", buf.String())
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&Options{NoColor: true})

	if err := f.FormatOutcomes(&buf, nil); err != nil {
		t.Fatalf("FormatOutcomes: %v", err)
	}
	if !strings.Contains(buf.String(), "No results") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := f.FormatProbe(&buf, nil); err != nil {
		t.Fatalf("FormatProbe: %v", err)
	}
	if !strings.Contains(buf.String(), "No hosts") {
		t.Errorf("got %q", buf.String())
	}
}

func TestTableFormatter_FormatProbe(t *testing.T) {
	results := append(sampleProbe(), probe.Result{Host: "10.0.0.5", Reachable: true, Duration: time.Millisecond})

	var buf bytes.Buffer
	if err := NewTableFormatter(&Options{NoColor: true, Wide: true}).FormatProbe(&buf, results); err != nil {
		t.Fatalf("FormatProbe: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"REACHABLE", "10.0.0.5", "connection refused", "Summary: 2 reachable, 1 unreachable"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
