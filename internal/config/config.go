// Package config loads the static, process-wide configuration this
// HSS needs: the local node identity, the peer table, and the store
// connection strings. There is no hot reload — a changed config file
// requires a process restart.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Peers   []PeerConfig  `yaml:"peers"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// NodeConfig identifies this HSS on the Diameter network and where it
// listens for incoming peer connections.
type NodeConfig struct {
	Hostname        string   `yaml:"hostname"`
	Realm           string   `yaml:"realm"`
	ListenAddress   string   `yaml:"listen_address"`
	ListenPort      int      `yaml:"listen_port"`
	ListenTransport string   `yaml:"listen_transport"` // "tcp" or "sctp"; defaults to tcp
	ApplicationIDs  []uint32 `yaml:"application_ids"`
	VendorID        uint32   `yaml:"vendor_id"`
}

// PeerConfig describes one statically configured Diameter peer.
type PeerConfig struct {
	Hostname  string `yaml:"hostname"`
	Realm     string `yaml:"realm"`
	DialAddr  string `yaml:"dial_address"`
	Transport string `yaml:"transport"` // "tcp" or "sctp"
}

// StoreConfig holds the subscriber store connection string. An empty
// DSN selects the in-memory store, useful for development and tests.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// MetricsConfig holds the counter store connection string. An empty
// DSN selects the no-op counters backend.
type MetricsConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig mirrors internal/logger.Config so the whole process
// configuration lives in one file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

// Load reads and parses a YAML configuration file. It does not watch
// the file or support reload; callers needing a new configuration
// restart the process.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration invariants the process needs
// before it can start serving.
func (c *Config) Validate() error {
	if c.Node.Hostname == "" {
		return fmt.Errorf("node.hostname is required")
	}
	if c.Node.Realm == "" {
		return fmt.Errorf("node.realm is required")
	}
	if c.Node.ListenPort < 1 || c.Node.ListenPort > 65535 {
		return fmt.Errorf("invalid node.listen_port: %d", c.Node.ListenPort)
	}
	if len(c.Node.ApplicationIDs) == 0 {
		return fmt.Errorf("node.application_ids must list at least one application")
	}
	if c.Node.ListenTransport == "" {
		c.Node.ListenTransport = "tcp"
	}
	if c.Node.ListenTransport != "tcp" && c.Node.ListenTransport != "sctp" {
		return fmt.Errorf("node.listen_transport must be tcp or sctp, got %q", c.Node.ListenTransport)
	}
	for i, p := range c.Peers {
		if p.Hostname == "" {
			return fmt.Errorf("peers[%d].hostname is required", i)
		}
		if p.Transport != "tcp" && p.Transport != "sctp" {
			return fmt.Errorf("peers[%d].transport must be tcp or sctp, got %q", i, p.Transport)
		}
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Node.ListenAddress, c.Node.ListenPort)
}
