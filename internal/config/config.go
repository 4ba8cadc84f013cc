package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/codegraph/internal/graph"
)

// DefaultMCPAddr is the listen address of serve-mcp when none is configured.
const DefaultMCPAddr = "localhost:8765"

// stateDir holds persisted graph databases, relative to the project root.
const stateDir = ".codegraph"

// ProjectConfig holds project-level settings loaded from codegraph.yml,
// overlaid with CODEGRAPH_* environment variables.
type ProjectConfig struct {
	ExcludeDirs      []string        `yaml:"excludeDirs,omitempty"`
	ExcludeGlobs     []string        `yaml:"excludeGlobs,omitempty"`
	RespectGitignore bool            `yaml:"respectGitignore,omitempty"`
	Workers          int             `yaml:"workers,omitempty"`
	Store            graph.StoreKind `yaml:"store,omitempty"`
	DBPath           string          `yaml:"dbPath,omitempty"`
	Verbose          bool            `yaml:"verbose,omitempty"`
	MCPAddr          string          `yaml:"mcpAddr,omitempty"`
}

// Load reads codegraph.yml or codegraph.yaml from dir and applies
// environment overrides. Variables already set in the process win over those
// in dir/.env. A missing config file is not an error.
func Load(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	for _, name := range []string{"codegraph.yml", "codegraph.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		break
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ProjectConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CODEGRAPH_STORE"); ok && v != "" {
		c.Store = graph.StoreKind(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("CODEGRAPH_DB_PATH"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup("CODEGRAPH_MCP_ADDR"); ok && v != "" {
		c.MCPAddr = v
	}
	if v, ok := lookup("CODEGRAPH_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CODEGRAPH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v, ok := lookup("CODEGRAPH_VERBOSE"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CODEGRAPH_VERBOSE: %w", err)
		}
		c.Verbose = b
	}
	return nil
}

// Validate rejects settings no component can honor.
func (c *ProjectConfig) Validate() error {
	switch c.Store {
	case "", graph.StoreKuzu, graph.StoreSQLite, graph.StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want kuzu, sqlite or memory)", c.Store)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// CollectorOptions returns the collector settings.
func (c *ProjectConfig) CollectorOptions() graph.CollectorOptions {
	return graph.CollectorOptions{
		ExcludeDirs:      c.ExcludeDirs,
		ExcludeGlobs:     c.ExcludeGlobs,
		RespectGitignore: c.RespectGitignore,
	}
}

// StoreKind returns the configured store, defaulting to KuzuDB.
func (c *ProjectConfig) StoreKind() graph.StoreKind {
	if c.Store == "" {
		return graph.StoreKuzu
	}
	return c.Store
}

// ResolveDBPath returns the database location for the configured store.
// A relative DBPath is resolved against root; an unset one defaults to a
// file under root/.codegraph. The memory store has no path.
func (c *ProjectConfig) ResolveDBPath(root string) string {
	kind := c.StoreKind()
	if kind == graph.StoreMemory {
		return ""
	}
	if c.DBPath != "" {
		if filepath.IsAbs(c.DBPath) {
			return c.DBPath
		}
		return filepath.Join(root, c.DBPath)
	}
	if kind == graph.StoreSQLite {
		return filepath.Join(root, stateDir, "graph.db")
	}
	return filepath.Join(root, stateDir, "graph")
}

// ListenAddr returns the MCP listen address.
func (c *ProjectConfig) ListenAddr() string {
	if c.MCPAddr == "" {
		return DefaultMCPAddr
	}
	return c.MCPAddr
}
