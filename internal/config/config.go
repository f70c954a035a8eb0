// Package config resolves runtime configuration from a JSON file plus
// environment variables (a local .env is honored). Credentials only
// ever come from the environment; the file holds the non-secret rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env variable names for credentials and endpoint.
const (
	EnvBaseURL    = "FLASHDECK_API_URL"
	EnvToken      = "FLASHDECK_API_TOKEN"
	EnvAuthScheme = "FLASHDECK_AUTH_SCHEME"
)

// Error is a fatal configuration problem: nothing partial is produced
// when one of these surfaces.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is everything the commands need.
type Config struct {
	BaseURL    string `json:"-"`
	AuthScheme string `json:"-"`
	Token      string `json:"-"`

	ProjectIDs []string `json:"project_ids"`
	PageSize   int      `json:"page_size"`
	Workers    int      `json:"workers"`
	TimeoutSec int      `json:"timeout_seconds"`

	SnapshotDir  string `json:"snapshot_dir"`
	TemplatePath string `json:"template"`
	PositionMap  string `json:"position_map"`
	MappingPath  string `json:"mapping"`
	OutputPath   string `json:"output"`
	HistoryPath  string `json:"history"`
}

// Load reads the config file and overlays environment credentials.
// A missing .env is fine; missing credentials are not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PageSize:     100,
		Workers:      5,
		TimeoutSec:   30,
		SnapshotDir:  "data",
		TemplatePath: "templates/template.pptx",
		PositionMap:  "data/position_map.json",
		MappingPath:  "data/mapping.json",
		OutputPath:   "output/deck.pptx",
		HistoryPath:  "data/history.db",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.BaseURL = os.Getenv(EnvBaseURL)
	cfg.Token = os.Getenv(EnvToken)
	cfg.AuthScheme = os.Getenv(EnvAuthScheme)
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Token"
	}
	return cfg, nil
}

// ValidateFetch checks the fields the collector needs.
func (c *Config) ValidateFetch() error {
	if c.BaseURL == "" {
		return &Error{Field: EnvBaseURL, Reason: "not set"}
	}
	if c.Token == "" {
		return &Error{Field: EnvToken, Reason: "not set"}
	}
	if len(c.ProjectIDs) == 0 {
		return &Error{Field: "project_ids", Reason: "empty entity list"}
	}
	if c.PageSize <= 0 {
		return &Error{Field: "page_size", Reason: "must be positive, got " + strconv.Itoa(c.PageSize)}
	}
	return nil
}

// ValidateGenerate checks the fields the synchronizer needs.
func (c *Config) ValidateGenerate() error {
	for field, v := range map[string]string{
		"template":     c.TemplatePath,
		"position_map": c.PositionMap,
		"mapping":      c.MappingPath,
		"snapshot_dir": c.SnapshotDir,
	} {
		if v == "" {
			return &Error{Field: field, Reason: "not set"}
		}
	}
	return nil
}
