// Package config loads run settings from YAML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/collcomm/allgather"
	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/results"
	"github.com/unixpickle/dist-sssp/sssp"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Workers    int      `yaml:"workers"`
	Seed       int64    `yaml:"seed"`
	Source     int      `yaml:"source"`
	Debug      bool     `yaml:"debug"`
	Algorithms []string `yaml:"algorithms"`
	Network    Network  `yaml:"network"`
	Protocol   Protocol `yaml:"protocol"`
	Retry      Retry    `yaml:"retry"`
	Results    Results  `yaml:"results"`
}

type Network struct {
	// Kind is "random", "constant" or "ordered".
	Kind    string  `yaml:"kind"`
	Latency float64 `yaml:"latency"`
}

type Protocol struct {
	// Allgather is "naive" or "tree".
	Allgather   string  `yaml:"allgather"`
	Pacing      float64 `yaml:"pacing"`
	OutboxSlots int     `yaml:"outbox_slots"`
}

type Retry struct {
	MaxAttempts     int     `yaml:"max_attempts"`
	InitialInterval float64 `yaml:"initial_interval"`
	Multiplier      float64 `yaml:"multiplier"`
}

type Results struct {
	// Backend is "file", "sqlite" or "none".
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// Default gets the settings used when nothing is
// configured.
func Default() *Config {
	return &Config{
		Workers: 2,
		Seed:    graph.DefaultSeed,
		Algorithms: []string{
			sssp.CoopDijkstra.String(),
			sssp.AsyncBellmanFord.String(),
			sssp.SyncBellmanFord.String(),
		},
		Network: Network{Kind: "random", Latency: 1e-3},
		Protocol: Protocol{
			Allgather:   "naive",
			Pacing:      sssp.DefaultPacing,
			OutboxSlots: collcomm.DefaultOutboxSlots,
		},
		Retry: Retry{
			MaxAttempts:     5,
			InitialInterval: 0.01,
			Multiplier:      2,
		},
		Results: Results{Backend: "file", Dir: "results"},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv overrides settings from SSSP_* environment
// variables. Setting DEBUG to anything enables debug
// logging.
func (c *Config) ApplyEnv() error {
	var err error
	if c.Workers, err = getEnvInt("SSSP_WORKERS", c.Workers); err != nil {
		return err
	}
	if c.Source, err = getEnvInt("SSSP_SOURCE", c.Source); err != nil {
		return err
	}
	seed, err := getEnvInt("SSSP_SEED", int(c.Seed))
	if err != nil {
		return err
	}
	c.Seed = int64(seed)
	c.Network.Kind = getEnv("SSSP_NETWORK", c.Network.Kind)
	c.Results.Dir = getEnv("SSSP_RESULTS_DIR", c.Results.Dir)
	c.Results.Backend = getEnv("SSSP_RESULTS_BACKEND", c.Results.Backend)
	if os.Getenv("DEBUG") != "" {
		c.Debug = true
	}
	return nil
}

// Validate checks settings that do not depend on the
// graph.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Source < 0 {
		return fmt.Errorf("source must not be negative, got %d", c.Source)
	}
	if _, err := sssp.NetworkByName(c.Network.Kind, c.Network.Latency); err != nil {
		return err
	}
	if c.Network.Latency < 0 {
		return errors.New("network latency must not be negative")
	}
	if _, ok := allgather.ByName(c.Protocol.Allgather); !ok {
		return fmt.Errorf("unknown allgather: %q", c.Protocol.Allgather)
	}
	if c.Protocol.Pacing < 0 {
		return errors.New("pacing must not be negative")
	}
	for _, name := range c.Algorithms {
		if _, err := sssp.ParseAlgorithm(name); err != nil {
			return err
		}
	}
	switch c.Results.Backend {
	case "file", "sqlite", "none":
	default:
		return fmt.Errorf("unknown results backend: %q", c.Results.Backend)
	}
	return nil
}

// ParsedAlgorithms gets the configured algorithms.
func (c *Config) ParsedAlgorithms() ([]sssp.Algorithm, error) {
	res := make([]sssp.Algorithm, len(c.Algorithms))
	for i, name := range c.Algorithms {
		alg, err := sssp.ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		res[i] = alg
	}
	return res, nil
}

// Options converts the settings into run options. The
// caller adds the logger and metrics.
func (c *Config) Options() (sssp.Options, error) {
	network, err := sssp.NetworkByName(c.Network.Kind, c.Network.Latency)
	if err != nil {
		return sssp.Options{}, err
	}
	gatherer, ok := allgather.ByName(c.Protocol.Allgather)
	if !ok {
		return sssp.Options{}, fmt.Errorf("unknown allgather: %q", c.Protocol.Allgather)
	}
	return sssp.Options{
		Workers:     c.Workers,
		Source:      c.Source,
		Network:     network,
		Allgatherer: gatherer,
		Pacing:      c.Protocol.Pacing,
		OutboxSlots: c.Protocol.OutboxSlots,
		Retry: collcomm.RetryPolicy{
			MaxAttempts:     c.Retry.MaxAttempts,
			InitialInterval: c.Retry.InitialInterval,
			Multiplier:      c.Retry.Multiplier,
		},
	}, nil
}

// OpenStore opens the configured result store. The store
// is nil for the "none" backend. The caller must call
// closer once done with the store.
func (c *Config) OpenStore() (store results.Store, closer func() error, err error) {
	noop := func() error { return nil }
	switch c.Results.Backend {
	case "none":
		return nil, noop, nil
	case "file":
		return &results.FileStore{Dir: c.Results.Dir}, noop, nil
	case "sqlite":
		if err := os.MkdirAll(c.Results.Dir, 0755); err != nil {
			return nil, nil, err
		}
		s, err := results.OpenSQLite(filepath.Join(c.Results.Dir, "results.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown results backend: %q", c.Results.Backend)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return intValue, nil
}
