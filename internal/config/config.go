package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aryankumar/pwrotate/internal/password"
	"github.com/aryankumar/pwrotate/internal/probe"
	"github.com/aryankumar/pwrotate/internal/remote"
	"github.com/aryankumar/pwrotate/internal/report"
	"github.com/aryankumar/pwrotate/internal/util"
)

const (
	defaultConfigName = ".pwrotate"
	defaultConfigDir  = ".pwrotate"
	envPrefix         = "PWROTATE"
)

// Defaults for list files and scheduling
const (
	DefaultUsersFile   = "users.conf"
	DefaultHostsFile   = "ips.conf"
	DefaultConcurrency = 50
	DefaultOutput      = "table"
)

// flagKeys maps flag names to configuration keys
var flagKeys = map[string]string{
	"users":                    "users",
	"hosts":                    "hosts",
	"report":                   "report",
	"concurrency":              "concurrency",
	"password-length":          "passwordLength",
	"history":                  "history",
	"output":                   "output",
	"ssh-binary":               "ssh.binary",
	"ssh-port":                 "ssh.port",
	"connect-timeout":          "ssh.connectTimeout",
	"probe-timeout":            "ssh.probeTimeout",
	"check-timeout":            "ssh.checkTimeout",
	"change-timeout":           "ssh.changeTimeout",
	"passwd-command":           "ssh.passwdCommand",
	"strict-host-key-checking": "ssh.strictHostKeyChecking",
}

// Manager handles pwrotate configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	m := &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
	m.setDefaults()
	return m
}

// setDefaults registers every key so env overrides apply even without a file
func (m *Manager) setDefaults() {
	m.viper.SetDefault("users", DefaultUsersFile)
	m.viper.SetDefault("hosts", DefaultHostsFile)
	m.viper.SetDefault("report", report.DefaultPath)
	m.viper.SetDefault("concurrency", DefaultConcurrency)
	m.viper.SetDefault("passwordLength", password.DefaultLength)
	m.viper.SetDefault("history", "")
	m.viper.SetDefault("output", DefaultOutput)
	m.viper.SetDefault("ssh.binary", remote.DefaultBinary)
	m.viper.SetDefault("ssh.port", remote.DefaultPort)
	m.viper.SetDefault("ssh.connectTimeout", remote.DefaultConnectTimeout)
	m.viper.SetDefault("ssh.probeTimeout", probe.DefaultTimeout)
	m.viper.SetDefault("ssh.checkTimeout", remote.DefaultCheckTimeout)
	m.viper.SetDefault("ssh.changeTimeout", remote.DefaultChangeTimeout)
	m.viper.SetDefault("ssh.passwdCommand", remote.DefaultPasswdCommand)
	m.viper.SetDefault("ssh.strictHostKeyChecking", remote.DefaultHostKeyPolicy)
}

// BindFlags binds every known flag present in fs to its configuration key.
// Flags only override file and environment values when set explicitly.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := m.viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load loads the configuration from file, environment and bound flags
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Prefer ~/.pwrotate/config.yaml, fall back to ~/.pwrotate.yaml
		dirConfig := filepath.Join(home, defaultConfigDir, "config.yaml")
		if _, err := os.Stat(dirConfig); err == nil {
			m.viper.SetConfigFile(dirConfig)
		} else {
			m.viper.AddConfigPath(home)
			m.viper.SetConfigName(defaultConfigName)
			m.viper.SetConfigType("yaml")
		}
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// applyDefaults fills values left empty by the file or environment
func (m *Manager) applyDefaults() {
	c := m.config
	if c == nil {
		return
	}

	if c.Users == "" {
		c.Users = DefaultUsersFile
	}
	if c.Hosts == "" {
		c.Hosts = DefaultHostsFile
	}
	if c.Report == "" {
		c.Report = report.DefaultPath
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.SSH.Binary == "" {
		c.SSH.Binary = remote.DefaultBinary
	}
	if c.SSH.PasswdCommand == "" {
		c.SSH.PasswdCommand = remote.DefaultPasswdCommand
	}
	if c.SSH.StrictHostKeyChecking == "" {
		c.SSH.StrictHostKeyChecking = remote.DefaultHostKeyPolicy
	}
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	errs := &util.MultiError{}

	if c.Concurrency < 1 {
		errs.Add(util.NewValidationError("concurrency", c.Concurrency, "must be at least 1"))
	}
	if c.PasswordLength < password.MinLength {
		errs.Add(util.NewValidationError("passwordLength", c.PasswordLength,
			fmt.Sprintf("must be at least %d", password.MinLength)))
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		errs.Add(util.NewValidationError("ssh.port", c.SSH.Port, "must be between 1 and 65535"))
	}

	timeouts := []struct {
		key   string
		value time.Duration
	}{
		{"ssh.connectTimeout", c.SSH.ConnectTimeout},
		{"ssh.probeTimeout", c.SSH.ProbeTimeout},
		{"ssh.checkTimeout", c.SSH.CheckTimeout},
		{"ssh.changeTimeout", c.SSH.ChangeTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			errs.Add(util.NewValidationError(t.key, t.value, "must be positive"))
		}
	}

	switch c.Output {
	case "table", "json", "yaml":
	default:
		errs.Add(util.NewValidationError("output", c.Output, "must be one of table, json, yaml"))
	}

	return errs.ErrorOrNil()
}
