// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the reconstruction configuration surface. A zero Config is
// usable; withDefaults fills the gaps. The tuning knobs are pointers so an
// explicit zero in a config file is distinguishable from unset.
type Config struct {
	// RegulationInnings controls ghost-runner activation: any half-inning
	// past this number starts with a placeholder runner on second. Nil means
	// DefaultRegulationInnings.
	RegulationInnings *int `koanf:"regulation_innings"`

	// KeyPlayThreshold is the minimum absolute win-probability swing for a
	// plate appearance to be flagged as a key play. Nil means
	// DefaultKeyPlayThreshold; an explicit 0 flags every play.
	KeyPlayThreshold *float64 `koanf:"key_play_threshold"`

	// Workers bounds the batch worker pool. Zero means NumCPU.
	Workers int `koanf:"workers"`

	DataDir    string `koanf:"data_dir"`
	Addr       string `koanf:"addr"`
	AuthSecret string `koanf:"auth_secret"`
}

func (c Config) withDefaults() Config {
	if c.RegulationInnings == nil {
		n := DefaultRegulationInnings
		c.RegulationInnings = &n
	}
	if c.KeyPlayThreshold == nil {
		th := DefaultKeyPlayThreshold
		c.KeyPlayThreshold = &th
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// LoadConfig reads the configuration from an optional YAML file and applies
// REKAP_* environment overrides on top (REKAP_KEY_PLAY_THRESHOLD=0.15 beats
// the file value). Unset keys fall back to the documented defaults.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	var cfg Config
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("REKAP_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "REKAP_"))
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = cfg.withDefaults()
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}
