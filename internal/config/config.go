// Package config provides configuration loading for arcprune.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/arcprune/internal/experiment"
	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/topology"
)

// FileName is the name of the resolved config written into an output
// directory.
const FileName = "config.yaml"

// Config contains every experiment setting. Keys follow the column
// names used in the result tables.
type Config struct {
	// Topology is the graph family: la, er, ba, ws, gr or sb.
	Topology string `json:"top" yaml:"top"`

	NumVertices   int     `json:"nvertices" yaml:"nvertices"`
	AverageDegree float64 `json:"avgdegree" yaml:"avgdegree"`

	// DegreeMode selects which arcs count towards a vertex degree: in, out or all.
	DegreeMode string `json:"degmode" yaml:"degmode"`

	Batches      int `json:"nbatches" yaml:"nbatches"`
	BatchSize    int `json:"batchsz" yaml:"batchsz"`
	Realizations int `json:"nrealizations" yaml:"nrealizations"`

	// TrimFraction of every simulation is discarded as burn-in.
	TrimFraction float64 `json:"trimrel" yaml:"trimrel"`

	WalkLength      int     `json:"wepochs" yaml:"wepochs"`
	FiringTicks     int     `json:"fepochs" yaml:"fepochs"`
	FiringThreshold int64   `json:"fthresh" yaml:"fthresh"`
	EpidemicTicks   int     `json:"eepochs" yaml:"eepochs"`
	InitialInfected float64 `json:"ei0" yaml:"ei0"`
	Beta            float64 `json:"ebeta" yaml:"ebeta"`
	Gamma           float64 `json:"egamma" yaml:"egamma"`

	OutDir  string `json:"outdir" yaml:"outdir"`
	Seed    int64  `json:"seed" yaml:"seed"`
	Workers int    `json:"workers" yaml:"workers"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the event trace in <outdir>/events.jsonl.
	// "trace" additionally logs every phase transition to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Topology:        string(topology.ErdosRenyi),
		NumVertices:     100,
		AverageDegree:   6,
		DegreeMode:      string(graph.DegreeAll),
		Batches:         10,
		BatchSize:       5,
		Realizations:    4,
		TrimFraction:    0.2,
		WalkLength:      2000,
		FiringTicks:     500,
		FiringThreshold: 5,
		EpidemicTicks:   500,
		InitialInfected: 0.1,
		Beta:            0.3,
		Gamma:           0.5,
		OutDir:          filepath.Join(os.TempDir(), "arcprune"),
		Seed:            0,
		Workers:         1,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load resolves the configuration.
// Order: defaults -> path (if not empty) -> environment variables
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys
// missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.OutDir = os.ExpandEnv(config.OutDir)
	return config, nil
}

// Save writes the configuration as YAML to dir/config.yaml.
func (c *Config) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := topology.ParseKind(c.Topology); err != nil {
		return err
	}
	if _, err := graph.ParseDegreeMode(c.DegreeMode); err != nil {
		return err
	}

	if c.NumVertices <= 0 {
		return fmt.Errorf("nvertices must be positive, got %d", c.NumVertices)
	}
	if c.AverageDegree <= 0 {
		return fmt.Errorf("avgdegree must be positive, got %g", c.AverageDegree)
	}
	if c.Batches < 0 || c.BatchSize < 0 {
		return fmt.Errorf("nbatches and batchsz must be non-negative, got %d and %d", c.Batches, c.BatchSize)
	}
	if c.Realizations < 1 {
		return fmt.Errorf("nrealizations must be at least 1, got %d", c.Realizations)
	}
	if c.TrimFraction < 0 || c.TrimFraction >= 1 {
		return fmt.Errorf("trimrel must be in [0, 1), got %g", c.TrimFraction)
	}
	if c.WalkLength <= 0 || c.FiringTicks <= 0 || c.EpidemicTicks <= 0 {
		return fmt.Errorf("wepochs, fepochs and eepochs must be positive, got %d, %d and %d",
			c.WalkLength, c.FiringTicks, c.EpidemicTicks)
	}
	if c.FiringThreshold <= 0 {
		return fmt.Errorf("fthresh must be positive, got %d", c.FiringThreshold)
	}
	probs := []struct {
		name string
		v    float64
	}{{"ei0", c.InitialInfected}, {"ebeta", c.Beta}, {"egamma", c.Gamma}}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", p.name, p.v)
		}
	}
	if c.OutDir == "" {
		return fmt.Errorf("outdir is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// Generator builds the topology generator the configuration names.
func (c *Config) Generator() (topology.Generator, error) {
	kind, err := topology.ParseKind(c.Topology)
	if err != nil {
		return nil, err
	}
	return topology.New(kind, c.NumVertices, c.AverageDegree)
}

// ToParams converts the configuration into realization parameters.
func (c *Config) ToParams() experiment.Params {
	return experiment.Params{
		Topology:        c.Topology,
		NumVertices:     c.NumVertices,
		DegreeMode:      graph.DegreeMode(c.DegreeMode),
		Batches:         c.Batches,
		BatchSize:       c.BatchSize,
		TrimFraction:    c.TrimFraction,
		WalkLength:      c.WalkLength,
		FiringTicks:     c.FiringTicks,
		FiringThreshold: c.FiringThreshold,
		EpidemicTicks:   c.EpidemicTicks,
		InitialInfected: c.InitialInfected,
		Beta:            c.Beta,
		Gamma:           c.Gamma,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("ARCPRUNE_OUTDIR"); v != "" {
		config.OutDir = v
	}

	if v := os.Getenv("ARCPRUNE_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ARCPRUNE_SEED: %w", err)
		}
		config.Seed = n
	}

	if v := os.Getenv("ARCPRUNE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARCPRUNE_WORKERS: %w", err)
		}
		config.Workers = n
	}

	if v := os.Getenv("ARCPRUNE_NREALIZATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARCPRUNE_NREALIZATIONS: %w", err)
		}
		config.Realizations = n
	}

	if v := os.Getenv("ARCPRUNE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	return nil
}
