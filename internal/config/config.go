// Package config loads the server configuration from YAML with
// defaults applied for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Grid    GridConfig    `yaml:"grid"`
	Planner PlannerConfig `yaml:"planner"`
	Log     LogConfig     `yaml:"log"`
	Index   IndexConfig   `yaml:"index"`
}

type ServerConfig struct {
	Listen  string `yaml:"listen"`
	DataDir string `yaml:"data_dir"`
}

type GridConfig struct {
	Rows         int    `yaml:"rows"`
	Cols         int    `yaml:"cols"`
	BlockedCells []int  `yaml:"blocked_cells,omitempty"`
	SnapshotPath string `yaml:"snapshot_path,omitempty"`
}

type PlannerConfig struct {
	// ExpansionBudget bounds corner expansions per query; 0 means unbounded.
	ExpansionBudget int `yaml:"expansion_budget"`
}

type LogConfig struct {
	Dir     string `yaml:"dir"`
	Compact bool   `yaml:"compact"`
}

type IndexConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Listen:  ":8090",
			DataDir: "data",
		},
		Grid: GridConfig{
			Rows: 64,
			Cols: 64,
		},
		Planner: PlannerConfig{
			ExpansionBudget: 0,
		},
		Log: LogConfig{
			Compact: true,
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Server.DataDir) == "" {
		c.Server.DataDir = "data"
	}
	if strings.TrimSpace(c.Log.Dir) == "" {
		c.Log.Dir = filepath.Join(c.Server.DataDir, "logs")
	}
	if strings.TrimSpace(c.Index.Path) == "" {
		c.Index.Path = filepath.Join(c.Server.DataDir, "index.sqlite")
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return fmt.Errorf("grid dims must be positive, got %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	n := c.Grid.Rows * c.Grid.Cols
	for _, id := range c.Grid.BlockedCells {
		if id < 0 || id >= n {
			return fmt.Errorf("grid.blocked_cells id %d out of range [0,%d)", id, n)
		}
	}
	if c.Planner.ExpansionBudget < 0 {
		return fmt.Errorf("planner.expansion_budget must be >= 0")
	}
	return nil
}
