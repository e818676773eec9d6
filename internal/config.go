package internal

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlSpec mirrors Spec for YAML configuration. The check interval is a
// string so both Go durations ("45s") and bare seconds ("45") parse.
type yamlSpec struct {
	Driver        string            `yaml:"driver"`
	DSN           string            `yaml:"dsn"`
	Username      string            `yaml:"username"`
	Password      string            `yaml:"password"`
	Options       map[string]string `yaml:"options"`
	CheckInterval string            `yaml:"check_interval"`
}

// yamlConfig accepts either a databases mapping or, as a shorthand for
// the single-database case, a bare spec registered under DefaultName.
type yamlConfig struct {
	Databases map[string]yamlSpec `yaml:"databases"`
	yamlSpec  `yaml:",inline"`
}

// parseConfig turns one YAML block into named specs, sorted by name so
// registration order is deterministic.
func parseConfig(data []byte) ([]namedSpec, error) {
	var cfg yamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}

	if len(cfg.Databases) == 0 {
		if cfg.DSN == "" {
			return nil, nil
		}
		spec, err := cfg.yamlSpec.toSpec(DefaultName)
		if err != nil {
			return nil, err
		}
		return []namedSpec{{name: DefaultName, spec: spec}}, nil
	}

	specs := make([]namedSpec, 0, len(cfg.Databases))
	for _, name := range slices.Sorted(maps.Keys(cfg.Databases)) {
		spec, err := cfg.Databases[name].toSpec(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, namedSpec{name: name, spec: spec})
	}
	return specs, nil
}

func (y yamlSpec) toSpec(name string) (Spec, error) {
	interval, err := parseInterval(y.CheckInterval)
	if err != nil {
		return Spec{}, errors.Join(ErrParseConfig, fmt.Errorf("database %q: check_interval: %w", name, err))
	}
	return Spec{
		Driver:        y.Driver,
		DSN:           y.DSN,
		Username:      y.Username,
		Password:      y.Password,
		Options:       y.Options,
		CheckInterval: interval,
	}, nil
}

// parseInterval accepts a Go duration or an integer number of seconds.
// An explicit zero means probe on every access; empty means the default.
func parseInterval(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		secs, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, fmt.Errorf("invalid interval %q", v)
		}
		d = time.Duration(secs) * time.Second
	}

	switch {
	case d < 0:
		return 0, fmt.Errorf("negative interval %q", v)
	case d == 0:
		return CheckAlways, nil
	default:
		return d, nil
	}
}
