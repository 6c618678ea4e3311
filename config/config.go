// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// HostConfig is the set of host-level parameters a deployment supplies to
// drive an orchestrator.
type HostConfig struct {
	ChainID             uint64   `toml:"chain_id"`
	SendAndWaitTimeout  Duration `toml:"send_and_wait_timeout"`
	AllowedAppAddresses []string `toml:"allowed_app_addresses"`
}

// Duration parses TOML string values ("5s", "2m") into a time.Duration,
// the way a deployment's operator would write a timeout in its config file
// rather than as a raw nanosecond count.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads and validates a HostConfig from a TOML file at path.
func Load(path string) (HostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HostConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := HostConfig{SendAndWaitTimeout: Duration{30 * time.Second}}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return HostConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

// Validate checks that cfg is well-formed.
func Validate(cfg HostConfig) error {
	if cfg.ChainID == 0 {
		return fmt.Errorf("config: chain_id is required")
	}
	if cfg.SendAndWaitTimeout.Duration <= 0 {
		return fmt.Errorf("config: send_and_wait_timeout must be positive")
	}
	for i, a := range cfg.AllowedAppAddresses {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("config: allowed_app_addresses[%d] is empty", i)
		}
	}
	return nil
}
