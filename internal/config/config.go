// Package config loads run configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config enumerates every recognized option. Fields absent from the file
// keep their defaults; there is no implicit global state.
type Config struct {
	// StartSymbol is the sentinel tag used before the first position. It
	// must not collide with a corpus label.
	StartSymbol string     `yaml:"start_symbol"`
	Trainer     Trainer    `yaml:"trainer"`
	Featurizer  Featurizer `yaml:"featurizer"`
	Lexicon     Lexicon    `yaml:"lexicon"`
}

// Trainer holds optimization hyperparameters.
type Trainer struct {
	C1            float64 `yaml:"c1"`
	C2            float64 `yaml:"c2"`
	MaxIterations int     `yaml:"max_iterations"`
	Epsilon       float64 `yaml:"epsilon"`
	Workers       int     `yaml:"workers"`
}

// Featurizer holds surface featurizer options.
type Featurizer struct {
	AffixLen      int         `yaml:"affix_len"`
	RareThreshold int         `yaml:"rare_threshold"`
	Gazetteers    []Gazetteer `yaml:"gazetteers"`
}

// Gazetteer references a word-list file by name.
type Gazetteer struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Lexicon holds tag dictionary options.
type Lexicon struct {
	MinCount int `yaml:"min_count"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StartSymbol: "<S>",
		Trainer: Trainer{
			C1:            0.1,
			C2:            0.01,
			MaxIterations: 100,
			Epsilon:       1e-5,
		},
		Featurizer: Featurizer{
			AffixLen:      3,
			RareThreshold: 5,
		},
		Lexicon: Lexicon{
			MinCount: 5,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.StartSymbol == "" {
		return cfg, fmt.Errorf("config %s: start_symbol must not be empty", path)
	}
	return cfg, nil
}
