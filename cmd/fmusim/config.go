package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStepSize is used when neither the config file nor the
	// manifest suggests a communication step.
	DefaultStepSize = 0.01
	// DefaultStopTime is used when nothing else defines the horizon.
	DefaultStopTime = 10.0
)

// Config describes one simulation experiment.
type Config struct {
	StartTime float64            `yaml:"start_time"`
	StopTime  float64            `yaml:"stop_time"`
	StepSize  float64            `yaml:"step_size"`
	Tolerance float64            `yaml:"tolerance"`
	Outputs   []string           `yaml:"outputs"`
	Inputs    map[string]float64 `yaml:"inputs"`
	Strict    bool               `yaml:"strict"`
	EventMode bool               `yaml:"event_mode"`
}

func DefaultConfig() *Config {
	return &Config{
		Inputs: map[string]float64{},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildConfig merges the optional config file with command-line flags;
// flags win.
func buildConfig() (*Config, error) {
	cfg := DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
	}
	if startTime != 0 {
		cfg.StartTime = startTime
	}
	if stopTime != 0 {
		cfg.StopTime = stopTime
	}
	if stepSize != 0 {
		cfg.StepSize = stepSize
	}
	if tolerance != 0 {
		cfg.Tolerance = tolerance
	}
	if len(outputs) > 0 {
		cfg.Outputs = outputs
	}
	if strict {
		cfg.Strict = true
	}
	if eventMode {
		cfg.EventMode = true
	}
	for _, kv := range inputs {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --set %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed --set %q: %w", kv, err)
		}
		if cfg.Inputs == nil {
			cfg.Inputs = map[string]float64{}
		}
		cfg.Inputs[name] = v
	}
	return cfg, nil
}
