// Package config loads the optional YAML configuration file.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"netscout/internal/scan"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "netscout.yaml"

// Config mirrors the YAML file layout.
type Config struct {
	Scan struct {
		Network        string  `yaml:"network"`
		Ports          []int   `yaml:"ports"`
		TLSPorts       []int   `yaml:"tls_ports"`
		TimeoutSeconds float64 `yaml:"timeout_seconds"`
		Threads        int     `yaml:"threads"`
		VerifyTLS      bool    `yaml:"verify_tls"`
		UserAgent      string  `yaml:"user_agent"`
		RateLimit      float64 `yaml:"rate_limit"`
		PingFirst      bool    `yaml:"ping_first"`
		MaxBodyBytes   int64   `yaml:"max_body_bytes"`
	} `yaml:"scan"`

	Output struct {
		Dir  string `yaml:"dir"`
		Save bool   `yaml:"save"`
	} `yaml:"output"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Enrich struct {
		Enabled        bool    `yaml:"enabled"`
		TimeoutSeconds float64 `yaml:"timeout_seconds"`
	} `yaml:"enrich"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Scan.Network = "192.168.1.0/24"
	cfg.Scan.Ports = append([]int(nil), scan.DefaultPorts...)
	cfg.Scan.TLSPorts = append([]int(nil), scan.DefaultTLSPorts...)
	cfg.Scan.TimeoutSeconds = 2
	cfg.Scan.Threads = 50
	cfg.Scan.UserAgent = scan.DefaultUserAgent
	cfg.Scan.MaxBodyBytes = 2 << 20
	cfg.Output.Dir = "results"
	cfg.Enrich.TimeoutSeconds = 4
	return cfg
}

// Load reads the file at path over the defaults. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// ToScan converts the scan section into a scan.Config.
func (c *Config) ToScan() scan.Config {
	return scan.Config{
		Range:        c.Scan.Network,
		Ports:        append([]int(nil), c.Scan.Ports...),
		TLSPorts:     append([]int{}, c.Scan.TLSPorts...),
		Timeout:      Seconds(c.Scan.TimeoutSeconds),
		Concurrency:  c.Scan.Threads,
		VerifyTLS:    c.Scan.VerifyTLS,
		UserAgent:    c.Scan.UserAgent,
		RateLimit:    c.Scan.RateLimit,
		PingFirst:    c.Scan.PingFirst,
		MaxBodyBytes: c.Scan.MaxBodyBytes,
	}
}

// EnrichTimeout returns the per-host enrichment budget.
func (c *Config) EnrichTimeout() time.Duration {
	return Seconds(c.Enrich.TimeoutSeconds)
}

// Seconds converts fractional seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

const defaultFile = `# netscout configuration

scan:
  # target network in CIDR notation, or a single address
  network: 192.168.1.0/24
  # ports probed for web management interfaces
  ports: [80, 443, 8080, 8443, 8888, 8000, 8081]
  # ports tried over HTTPS before plain HTTP
  tls_ports: [443, 8443]
  timeout_seconds: 2
  threads: 50
  # most embedded devices serve self-signed certificates
  verify_tls: false
  user_agent: Mozilla/5.0 Network Scanner
  # connection attempts per second, 0 for unlimited
  rate_limit: 0
  # skip hosts that do not answer an ICMP echo
  ping_first: false
  max_body_bytes: 2097152

output:
  dir: results
  # reports are written whenever a scan finds something; true also reports empty scans
  save: false

store:
  # SQLite database path, empty to disable
  path: ""

enrich:
  # reverse DNS, mDNS and ARP lookups for every host with findings
  enabled: false
  timeout_seconds: 4
`

// WriteDefault writes a commented default configuration to path. It fails if
// the file already exists.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "create config")
	}
	if _, err := f.WriteString(defaultFile); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write config")
	}
	return f.Close()
}
