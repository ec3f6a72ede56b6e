/*
Package config holds the startup configuration of a peering broker. It can be read
from a YAML file and is then usually overridden by command line arguments.

	name: DC1
	peers: [DC2, DC3]
	workers: 3
	clients: 10
	poll_interval: 1s
	scheme: ipc
	ipc_dir: /run/peering
	loglevel: info
	monitor: true
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Identity of this broker; names its channels.
	Name  string   `yaml:"name"`
	Peers []string `yaml:"peers"`

	// Simulated workers and clients started next to the broker.
	Workers        int           `yaml:"workers"`
	Clients        int           `yaml:"clients"`
	ClientInterval time.Duration `yaml:"client_interval"`

	// Upper bound of a backend wait while workers are idle.
	PollInterval time.Duration `yaml:"poll_interval"`
	// One in OffloadOdds local requests is sent to a peer.
	OffloadOdds int `yaml:"offload_odds"`

	Scheme   string `yaml:"scheme"`
	IPCDir   string `yaml:"ipc_dir"`
	Loglevel string `yaml:"loglevel"`
	Monitor  bool   `yaml:"monitor"`
	// Wait for Enter before starting workers and clients.
	WaitForEnter bool `yaml:"wait_for_enter"`
}

// The classic peering simulation: 3 workers and 10 clients per
// broker, one request per client and second.
func Default() *Config {
	return &Config{
		Workers:        3,
		Clients:        10,
		ClientInterval: time.Second,
		PollInterval:   time.Second,
		OffloadOdds:    5,
		Scheme:         "ipc",
		Loglevel:       "info",
		Monitor:        true,
	}
}

// Reads path into a copy of Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	if err = yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

var ErrNoName = errors.New("config: broker name missing")

func (cfg *Config) Validate() error {
	if cfg.Name == "" {
		return ErrNoName
	}
	for _, p := range cfg.Peers {
		if p == "" {
			return errors.New("config: empty peer name")
		}
		if p == cfg.Name {
			return fmt.Errorf("config: broker %s lists itself as peer", cfg.Name)
		}
	}
	if cfg.Workers < 0 || cfg.Clients < 0 {
		return errors.New("config: negative number of workers or clients")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("config: poll_interval must be positive")
	}
	if cfg.OffloadOdds < 1 {
		return errors.New("config: offload_odds must be at least 1")
	}
	return nil
}
