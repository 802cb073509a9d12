package config

import (
	"time"

	"github.com/aryankumar/pwrotate/internal/remote"
)

// Config represents the pwrotate configuration
type Config struct {
	// Users is the newline-delimited file of usernames
	Users string `mapstructure:"users" yaml:"users,omitempty" json:"users,omitempty"`

	// Hosts is the newline-delimited file of host addresses
	Hosts string `mapstructure:"hosts" yaml:"hosts,omitempty" json:"hosts,omitempty"`

	// Report is the spreadsheet written after a rotation
	Report string `mapstructure:"report" yaml:"report,omitempty" json:"report,omitempty"`

	// Concurrency is the maximum number of tasks in flight
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency,omitempty" json:"concurrency,omitempty"`

	// PasswordLength is the length of every generated password
	PasswordLength int `mapstructure:"passwordLength" yaml:"passwordLength,omitempty" json:"passwordLength,omitempty"`

	// History is the SQLite ledger path; empty disables recording
	History string `mapstructure:"history" yaml:"history,omitempty" json:"history,omitempty"`

	// Output is the console format (table, json, yaml)
	Output string `mapstructure:"output" yaml:"output,omitempty" json:"output,omitempty"`

	// SSH configures probing and the remote executor
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh,omitempty" json:"ssh,omitempty"`
}

// SSHConfig holds transport settings
type SSHConfig struct {
	Binary                string        `mapstructure:"binary" yaml:"binary,omitempty" json:"binary,omitempty"`
	Port                  int           `mapstructure:"port" yaml:"port,omitempty" json:"port,omitempty"`
	ConnectTimeout        time.Duration `mapstructure:"connectTimeout" yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ProbeTimeout          time.Duration `mapstructure:"probeTimeout" yaml:"probeTimeout,omitempty" json:"probeTimeout,omitempty"`
	CheckTimeout          time.Duration `mapstructure:"checkTimeout" yaml:"checkTimeout,omitempty" json:"checkTimeout,omitempty"`
	ChangeTimeout         time.Duration `mapstructure:"changeTimeout" yaml:"changeTimeout,omitempty" json:"changeTimeout,omitempty"`
	PasswdCommand         string        `mapstructure:"passwdCommand" yaml:"passwdCommand,omitempty" json:"passwdCommand,omitempty"`
	StrictHostKeyChecking string        `mapstructure:"strictHostKeyChecking" yaml:"strictHostKeyChecking,omitempty" json:"strictHostKeyChecking,omitempty"`
}

// Remote converts the transport settings for remote.NewSSHExecutor
func (s SSHConfig) Remote() remote.SSHConfig {
	return remote.SSHConfig{
		Binary:                s.Binary,
		Port:                  s.Port,
		ConnectTimeout:        s.ConnectTimeout,
		CheckTimeout:          s.CheckTimeout,
		ChangeTimeout:         s.ChangeTimeout,
		PasswdCommand:         s.PasswdCommand,
		StrictHostKeyChecking: s.StrictHostKeyChecking,
	}
}
