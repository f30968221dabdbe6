package gossa

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/regioncheck/regioncheck/internal/maps"
)

// DefaultDomain is the isolation domain of functions not pinned by config.
const DefaultDomain = "nonisolated"

// Config is the front-end configuration surface. The zero value behaves like
// DefaultConfig without the built-in spawner table.
type Config struct {
	// Spawners lists task-spawning call targets in the form
	// "pkg/path.Func" or "pkg/path.Type.Method". The `go` statement is
	// always task-spawning and needs no entry here.
	Spawners []string `yaml:"spawners"`

	// Sendable and NonSendable override the structural sendability rules
	// for individual types, by printed type name.
	Sendable    []string `yaml:"sendable"`
	NonSendable []string `yaml:"nonsendable"`

	// Domains pins functions to named isolation domains. A call from one
	// domain into another is actor-entering.
	Domains map[string]string `yaml:"domains"`
}

// defaultSpawners covers the spawn APIs common in the wild. Everything else
// comes from config; the core analysis never sees this table.
var defaultSpawners = []string{
	"golang.org/x/sync/errgroup.Group.Go",
	"golang.org/x/sync/errgroup.Group.TryGo",
	"sync.WaitGroup.Go",
	"github.com/sourcegraph/conc.WaitGroup.Go",
	"github.com/sourcegraph/conc/pool.Pool.Go",
	"github.com/sourcegraph/conc/stream.Stream.Go",
}

func DefaultConfig() *Config {
	return &Config{Spawners: append([]string(nil), defaultSpawners...)}
}

// LoadConfig reads a yaml config file and merges it over the defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Spawners = append(cfg.Spawners, defaultSpawners...)
	return cfg, nil
}

// oracle builds the sendability oracle for this config.
func (c *Config) oracle() *Oracle {
	return &Oracle{
		sendable:    maps.FromKeys(c.Sendable),
		nonSendable: maps.FromKeys(c.NonSendable),
	}
}

// spawnerSet returns the normalized spawner names.
func (c *Config) spawnerSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Spawners))
	for _, s := range c.Spawners {
		set[normalizeFuncName(s)] = struct{}{}
	}
	return set
}

// domainOf returns the isolation domain a function body executes under.
func (c *Config) domainOf(funcName string) string {
	if d, ok := c.Domains[normalizeFuncName(funcName)]; ok {
		return d
	}
	return DefaultDomain
}

// pinnedDomain reports whether a callee is pinned to a domain by config. An
// unpinned callee executes in its caller's domain.
func (c *Config) pinnedDomain(funcName string) (string, bool) {
	d, ok := c.Domains[normalizeFuncName(funcName)]
	return d, ok
}

// normalizeFuncName strips the pointer-receiver decoration from ssa function
// names, so "(*pkg.T).M" and the config form "pkg.T.M" compare equal.
func normalizeFuncName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '*':
			return -1
		}
		return r
	}, name)
}
