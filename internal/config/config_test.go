package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/aryankumar/pwrotate/internal/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pwrotate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name            string
		configContent   string
		wantConcurrency int
		wantLength      int
		wantReport      string
		wantCheck       time.Duration
		wantPort        int
	}{
		{
			name: "full config",
			configContent: `
users: /etc/pwrotate/users
hosts: /etc/pwrotate/hosts
report: out.xlsx
concurrency: 10
passwordLength: 20
ssh:
  port: 2222
  checkTimeout: 3s
`,
			wantConcurrency: 10,
			wantLength:      20,
			wantReport:      "out.xlsx",
			wantCheck:       3 * time.Second,
			wantPort:        2222,
		},
		{
			name:            "empty config uses defaults",
			configContent:   "",
			wantConcurrency: 50,
			wantLength:      12,
			wantReport:      "pd.xlsx",
			wantCheck:       8 * time.Second,
			wantPort:        22,
		},
		{
			name: "blank strings fall back to defaults",
			configContent: `
report: ""
ssh:
  binary: ""
`,
			wantConcurrency: 50,
			wantLength:      12,
			wantReport:      "pd.xlsx",
			wantCheck:       8 * time.Second,
			wantPort:        22,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(writeConfig(t, tt.configContent))
			cfg, err := manager.Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.Concurrency != tt.wantConcurrency {
				t.Errorf("got concurrency %d, want %d", cfg.Concurrency, tt.wantConcurrency)
			}
			if cfg.PasswordLength != tt.wantLength {
				t.Errorf("got password length %d, want %d", cfg.PasswordLength, tt.wantLength)
			}
			if cfg.Report != tt.wantReport {
				t.Errorf("got report %q, want %q", cfg.Report, tt.wantReport)
			}
			if cfg.SSH.CheckTimeout != tt.wantCheck {
				t.Errorf("got check timeout %v, want %v", cfg.SSH.CheckTimeout, tt.wantCheck)
			}
			if cfg.SSH.Port != tt.wantPort {
				t.Errorf("got port %d, want %d", cfg.SSH.Port, tt.wantPort)
			}
			if cfg.SSH.Binary != "ssh" {
				t.Errorf("got binary %q, want ssh", cfg.SSH.Binary)
			}
		})
	}
}

func TestManager_LoadDefaults(t *testing.T) {
	cfg, err := NewManager(writeConfig(t, "")).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		Users:          "users.conf",
		Hosts:          "ips.conf",
		Report:         "pd.xlsx",
		Concurrency:    50,
		PasswordLength: 12,
		Output:         "table",
		SSH: SSHConfig{
			Binary:                "ssh",
			Port:                  22,
			ConnectTimeout:        5 * time.Second,
			ProbeTimeout:          2 * time.Second,
			CheckTimeout:          8 * time.Second,
			ChangeTimeout:         10 * time.Second,
			PasswdCommand:         "sudo -n chpasswd",
			StrictHostKeyChecking: "no",
		},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestManager_MissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("got concurrency %d, want default", cfg.Concurrency)
	}
}

func TestManager_MalformedFile(t *testing.T) {
	path := writeConfig(t, "concurrency: [unterminated")
	if _, err := NewManager(path).Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestManager_EnvOverride(t *testing.T) {
	t.Setenv("PWROTATE_CONCURRENCY", "7")
	t.Setenv("PWROTATE_SSH_PORT", "2200")

	cfg, err := NewManager(writeConfig(t, "concurrency: 20\n")).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Concurrency != 7 {
		t.Errorf("got concurrency %d, want 7 from env", cfg.Concurrency)
	}
	if cfg.SSH.Port != 2200 {
		t.Errorf("got port %d, want 2200 from env", cfg.SSH.Port)
	}
}

func TestManager_BindFlags(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.IntP("concurrency", "p", DefaultConcurrency, "")
		fs.String("report", "pd.xlsx", "")
		fs.Duration("check-timeout", 8*time.Second, "")
		return fs
	}

	t.Run("unset flags do not override the file", func(t *testing.T) {
		fs := newFlags()
		m := NewManager(writeConfig(t, "concurrency: 20\nreport: file.xlsx\n"))
		if err := m.BindFlags(fs); err != nil {
			t.Fatalf("BindFlags: %v", err)
		}
		cfg, err := m.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Concurrency != 20 || cfg.Report != "file.xlsx" {
			t.Errorf("got %d %q, want file values", cfg.Concurrency, cfg.Report)
		}
	})

	t.Run("set flags win", func(t *testing.T) {
		fs := newFlags()
		if err := fs.Parse([]string{"-p", "3", "--report", "flag.xlsx", "--check-timeout", "1s"}); err != nil {
			t.Fatalf("parse: %v", err)
		}
		m := NewManager(writeConfig(t, "concurrency: 20\nreport: file.xlsx\n"))
		if err := m.BindFlags(fs); err != nil {
			t.Fatalf("BindFlags: %v", err)
		}
		cfg, err := m.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Concurrency != 3 {
			t.Errorf("got concurrency %d, want 3", cfg.Concurrency)
		}
		if cfg.Report != "flag.xlsx" {
			t.Errorf("got report %q, want flag.xlsx", cfg.Report)
		}
		if cfg.SSH.CheckTimeout != time.Second {
			t.Errorf("got check timeout %v, want 1s", cfg.SSH.CheckTimeout)
		}
	})
}

func TestManager_LoadRejectsInvalid(t *testing.T) {
	_, err := NewManager(writeConfig(t, "concurrency: 0\npasswordLength: 4\n")).Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	var multi *util.MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("expected MultiError, got %T", err)
	}
	if len(multi.Errors) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(multi.Errors), err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Concurrency:    50,
			PasswordLength: 12,
			Output:         "table",
			SSH: SSHConfig{
				Port:           22,
				ConnectTimeout: time.Second,
				ProbeTimeout:   time.Second,
				CheckTimeout:   time.Second,
				ChangeTimeout:  time.Second,
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantField: "concurrency"},
		{name: "short password", mutate: func(c *Config) { c.PasswordLength = 7 }, wantField: "passwordLength"},
		{name: "port too high", mutate: func(c *Config) { c.SSH.Port = 70000 }, wantField: "ssh.port"},
		{name: "port zero", mutate: func(c *Config) { c.SSH.Port = 0 }, wantField: "ssh.port"},
		{name: "zero probe timeout", mutate: func(c *Config) { c.SSH.ProbeTimeout = 0 }, wantField: "ssh.probeTimeout"},
		{name: "negative change timeout", mutate: func(c *Config) { c.SSH.ChangeTimeout = -time.Second }, wantField: "ssh.changeTimeout"},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "csv" }, wantField: "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("got field %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestSSHConfig_Remote(t *testing.T) {
	s := SSHConfig{
		Binary:                "/usr/bin/ssh",
		Port:                  2222,
		ConnectTimeout:        time.Second,
		ProbeTimeout:          2 * time.Second,
		CheckTimeout:          3 * time.Second,
		ChangeTimeout:         4 * time.Second,
		PasswdCommand:         "chpasswd",
		StrictHostKeyChecking: "accept-new",
	}

	r := s.Remote()
	if r.Binary != s.Binary || r.Port != s.Port || r.PasswdCommand != s.PasswdCommand {
		t.Errorf("fields not carried over: %+v", r)
	}
	if r.ConnectTimeout != time.Second || r.CheckTimeout != 3*time.Second || r.ChangeTimeout != 4*time.Second {
		t.Errorf("timeouts not carried over: %+v", r)
	}
	if r.StrictHostKeyChecking != "accept-new" {
		t.Errorf("got host key policy %q", r.StrictHostKeyChecking)
	}
}
