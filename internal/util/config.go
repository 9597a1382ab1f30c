// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package util

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when config.yaml is missing or leaves a value empty.
const (
	DefaultNetwork             = "local"
	DefaultWalletDaemonAddress = "http://127.0.0.1:12009"
	DefaultWaitTimeout         = 120 * time.Second
	DefaultSSHPort             = 22
	DefaultDataDirName         = ".tdeploy"
	DataDirEnvVar              = "TDEPLOY_DATA"
	ConfigFileName             = "config.yaml"
)

// SSHConfig holds SSH tunnel settings for reaching a remote wallet daemon.
// If nil on a network, the wallet daemon address is dialed directly.
type SSHConfig struct {
	Host           string `yaml:"host" description:"Remote host to SSH to (required)"`
	Port           int    `yaml:"port" description:"SSH port" default:"22"`
	User           string `yaml:"user" description:"SSH user name (defaults to $USER)"`
	IdentityFile   string `yaml:"identity_file" description:"SSH private key path (relative to data dir)" default:".ssh/id_ed25519"`
	KnownHostsPath string `yaml:"known_hosts_path" description:"Known hosts file path (relative to data dir)" default:".ssh/known_hosts"`
}

// NetworkConfig describes how to reach the wallet daemon of one network.
type NetworkConfig struct {
	WalletDaemonAddress string     `yaml:"wallet_daemon_jrpc_address" description:"Wallet daemon JSON-RPC URL"`
	SSH                 *SSHConfig `yaml:"ssh,omitempty" description:"SSH tunnel settings (omit for direct connection)"`
}

// Config holds tdeploy configuration settings
type Config struct {
	Network        string                   `yaml:"network" description:"Default network" default:"local"`
	DefaultAccount string                   `yaml:"default_account" description:"Fee account used when --account is omitted"`
	WaitTimeout    string                   `yaml:"wait_timeout" description:"How long to wait for transaction finality" default:"120s"`
	Networks       map[string]NetworkConfig `yaml:"networks" description:"Wallet daemon endpoints by network name"`
}

// DefaultConfig returns the default configuration: a single local network
// pointing at a wallet daemon on the default port.
func DefaultConfig() Config {
	return Config{
		Network:     DefaultNetwork,
		WaitTimeout: DefaultWaitTimeout.String(),
		Networks: map[string]NetworkConfig{
			DefaultNetwork: {WalletDaemonAddress: DefaultWalletDaemonAddress},
		},
	}
}

// DefaultSSHConfig returns default SSH settings (used when ssh block exists but fields are missing)
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		Port:           DefaultSSHPort,
		User:           os.Getenv("USER"),
		IdentityFile:   ".ssh/id_ed25519",
		KnownHostsPath: ".ssh/known_hosts",
	}
}

// GetDataDir returns the data directory.
// Resolution order: -d flag > TDEPLOY_DATA env var > ~/.tdeploy
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return ExpandPath(flagValue)
	}
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return ExpandPath(envDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultDataDirName)
}

// GetConfigPath returns the path to the config file in the data directory.
// Returns empty string if dataDir is empty.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, ConfigFileName)
}

// LoadConfig loads configuration from config.yaml in the data directory.
// Relative SSH paths are resolved against the data directory.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}

	for name, network := range config.Networks {
		if network.SSH == nil {
			continue
		}
		network.SSH.IdentityFile = ResolvePath(network.SSH.IdentityFile, dataDir)
		network.SSH.KnownHostsPath = ResolvePath(network.SSH.KnownHostsPath, dataDir)
		config.Networks[name] = network
	}

	return config, nil
}

// LoadConfigFromPath loads configuration from the specified path.
// If path is empty or the file doesn't exist, returns default config.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig overlays YAML data on the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Network == "" {
		config.Network = DefaultNetwork
	}
	if config.WaitTimeout == "" {
		config.WaitTimeout = DefaultWaitTimeout.String()
	}
	if _, err := config.ParsedWaitTimeout(); err != nil {
		return Config{}, err
	}

	sshDefaults := DefaultSSHConfig()
	for name, network := range config.Networks {
		if network.WalletDaemonAddress == "" {
			return Config{}, fmt.Errorf("network '%s': wallet_daemon_jrpc_address is required", name)
		}
		if err := validateDaemonAddress(network.WalletDaemonAddress); err != nil {
			return Config{}, fmt.Errorf("network '%s': %w", name, err)
		}

		if network.SSH != nil {
			if network.SSH.Host == "" {
				return Config{}, fmt.Errorf("network '%s': ssh.host is required when ssh block is present", name)
			}
			if network.SSH.Port == 0 {
				network.SSH.Port = sshDefaults.Port
			}
			if network.SSH.User == "" {
				network.SSH.User = sshDefaults.User
			}
			if network.SSH.IdentityFile == "" {
				network.SSH.IdentityFile = sshDefaults.IdentityFile
			}
			if network.SSH.KnownHostsPath == "" {
				network.SSH.KnownHostsPath = sshDefaults.KnownHostsPath
			}
		}
		config.Networks[name] = network
	}

	return config, nil
}

func validateDaemonAddress(address string) error {
	u, err := url.Parse(address)
	if err != nil {
		return fmt.Errorf("invalid wallet daemon address '%s': %w", address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid wallet daemon address '%s': scheme must be http or https", address)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid wallet daemon address '%s': missing host", address)
	}
	return nil
}

// ParsedWaitTimeout returns wait_timeout as a duration.
func (c *Config) ParsedWaitTimeout() (time.Duration, error) {
	if c.WaitTimeout == "" {
		return DefaultWaitTimeout, nil
	}
	d, err := time.ParseDuration(c.WaitTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid wait_timeout '%s': %w", c.WaitTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid wait_timeout '%s': must be positive", c.WaitTimeout)
	}
	return d, nil
}

// GetNetwork returns the settings for the named network.
func (c *Config) GetNetwork(name string) (*NetworkConfig, error) {
	network, ok := c.Networks[name]
	if !ok {
		return nil, fmt.Errorf("network not found in config: %s (known: %s)", name, strings.Join(c.NetworkNames(), ", "))
	}
	return &network, nil
}

// NetworkNames returns configured network names in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// ResolvePath resolves a possibly relative path against baseDir.
// Absolute and ~ paths are returned expanded but otherwise unchanged.
func ResolvePath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	path = ExpandPath(path)
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
