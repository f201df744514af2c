// Package config loads ARTEMIS configuration from YAML with environment
// overrides for secrets. The board taxonomy lives here and is handed to
// the assistant pipeline as an explicit snapshot, never as a global.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"artemis/internal/task"
)

// Config holds all ARTEMIS configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Board   BoardConfig   `yaml:"board"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	MaxConns        int    `yaml:"max_conns"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LLMConfig configures the completion service collaborator.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Timeout         string  `yaml:"timeout"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// StorageConfig configures the SQLite task store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// BoardConfig is the configurable taxonomy: the enumerations that
// constrain valid task field values and populate the board UI.
type BoardConfig struct {
	Statuses     []StatusConfig `yaml:"statuses"`
	Priorities   []string       `yaml:"priorities"`
	EffortSizes  []string       `yaml:"effort_sizes"`
	ProductAreas []string       `yaml:"product_areas"`
	TeamMembers  []TeamMember   `yaml:"team_members"`
}

// StatusConfig is one board lane. WIPLimit zero means unlimited.
type StatusConfig struct {
	Name     string `yaml:"name"`
	WIPLimit int    `yaml:"wip_limit,omitempty"`
}

// TeamMember is a configured assignee. Color is a UI hint carried
// through to the board client.
type TeamMember struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

// Taxonomy flattens the board configuration into the snapshot the
// assistant pipeline consumes.
func (b BoardConfig) Taxonomy() task.Taxonomy {
	tax := task.Taxonomy{
		Priorities:   append([]string(nil), b.Priorities...),
		EffortSizes:  append([]string(nil), b.EffortSizes...),
		ProductAreas: append([]string(nil), b.ProductAreas...),
	}
	for _, s := range b.Statuses {
		tax.Statuses = append(tax.Statuses, s.Name)
	}
	for _, m := range b.TeamMembers {
		tax.TeamMembers = append(tax.TeamMembers, m.Name)
	}
	return tax
}

// DefaultConfig returns the configuration the service runs with when no
// file is present. The board defaults mirror the seeded workspace.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8090",
			MaxConns:        256,
			ShutdownTimeout: "10s",
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.0-flash",
			Timeout:         "60s",
			Temperature:     0.3,
			MaxOutputTokens: 4096,
		},
		Storage: StorageConfig{
			DatabasePath: "data/artemis.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Board: BoardConfig{
			Statuses: []StatusConfig{
				{Name: "New"}, {Name: "Backlog"}, {Name: "To Do"},
				{Name: "In Progress"}, {Name: "In Review"},
				{Name: "Done"}, {Name: "Completed"},
			},
			Priorities:  []string{"Highest", "High", "Medium", "Low"},
			EffortSizes: []string{"XS", "S", "M", "L", "XL"},
			ProductAreas: []string{
				"Core Platform", "User Interface", "API",
				"Mobile Initiative", "Data Analytics", "Integrations",
			},
			TeamMembers: []TeamMember{
				{Name: "Alice", Color: "#3b82f6"},
				{Name: "Bob", Color: "#6366f1"},
				{Name: "Charlie", Color: "#a855f7"},
				{Name: "Diana", Color: "#14b8a6"},
				{Name: "Eve", Color: "#84cc16"},
			},
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets deployment environments inject secrets and
// endpoints without editing the config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if addr := os.Getenv("ARTEMIS_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if db := os.Getenv("ARTEMIS_DB"); db != "" {
		c.Storage.DatabasePath = db
	}
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Board.Statuses) == 0 {
		return fmt.Errorf("board.statuses must not be empty")
	}
	if len(c.Board.Priorities) == 0 {
		return fmt.Errorf("board.priorities must not be empty")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	return nil
}

// GetLLMTimeout parses the LLM timeout, defaulting to 60s.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetShutdownTimeout parses the shutdown timeout, defaulting to 10s.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
