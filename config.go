// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDriver      = "DDRAW_DRIVER"
	EnvNoEmulation = "DDRAW_NO_EMULATION"
	EnvDebug       = "DDRAW_DEBUG"
)

// Config holds the settings of a DirectDraw that can come from the
// environment.
type Config struct {
	// Driver is the id of the backend to use. Empty selects the best
	// available one.
	Driver string

	// NoEmulation restricts display modes to native formats.
	NoEmulation bool

	// Debug enables debug logging to stderr when no logger is set.
	Debug bool
}

// ConfigFromEnv reads a Config from the DDRAW_* environment variables.
// Unset variables keep their zero value; a malformed boolean is an error.
func ConfigFromEnv() (Config, error) {
	return configFrom(os.LookupEnv)
}

func configFrom(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	if v, ok := lookup(EnvDriver); ok {
		cfg.Driver = v
	}
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{EnvNoEmulation, &cfg.NoEmulation},
		{EnvDebug, &cfg.Debug},
	} {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("ddraw: %s=%q: %w", b.name, v, err)
		}
		*b.dst = on
	}
	return cfg, nil
}
