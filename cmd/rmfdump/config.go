package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type config struct {
	// Permissive reports header mismatches as diagnostics instead of
	// failing the load.
	Permissive bool

	// Format selects the trace output: "plain" writes lines to stdout,
	// "log" routes them through a zerolog console writer on stderr.
	Format string
}

type fileConfig struct {
	Permissive bool   `toml:"permissive"`
	Format     string `toml:"format"`
}

func defaultConfig() config {
	return config{Format: "plain"}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load rmfdump config: %w", err)
	}

	if meta.IsDefined("permissive") {
		cfg.Permissive = raw.Permissive
	}

	if meta.IsDefined("format") {
		switch raw.Format {
		case "plain", "log":
			cfg.Format = raw.Format
		default:
			return config{}, fmt.Errorf("unknown format %q", raw.Format)
		}
	}

	return cfg, nil
}
