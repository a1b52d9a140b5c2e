package config

import (
	"os"
	"path/filepath"

	"github.com/m4xw311/codewright/errors"
	"gopkg.in/yaml.v3"
)

// FilesystemAccess holds glob patterns restricting what the file tools may
// touch inside the project root. Hidden paths are invisible to every tool;
// read-only paths reject writes, edits and deletes.
type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

// Commands extends the built-in command safety lists. Allowed entries are
// extra permitted leading executables; Denied entries are extra blocked
// substrings. The built-in deny list can not be removed from config.
type Commands struct {
	Allowed []string `yaml:"allowed"`
	Denied  []string `yaml:"denied"`
}

type Config struct {
	LLMClient        string           `yaml:"llm"`
	Model            string           `yaml:"model"`
	ProjectRoot      string           `yaml:"project_root"`
	MaxIterations    int              `yaml:"max_iterations"`
	ListenAddr       string           `yaml:"listen_addr"`
	DatabasePath     string           `yaml:"database"`
	GitTools         bool             `yaml:"git_tools"`
	Commands         Commands         `yaml:"commands"`
	FilesystemAccess FilesystemAccess `yaml:"filesystem_access"`
}

// ProviderEnv carries the environment-derived settings for one backend.
type ProviderEnv struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Env holds the recognized environment configuration for every backend.
// Recognized variables:
//
//	ANTHROPIC_API_KEY, ANTHROPIC_BASE_URL, ANTHROPIC_MODEL
//	OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL
//	GEMINI_API_KEY, GEMINI_MODEL
//	BEDROCK_MODEL_ID, BEDROCK_ENDPOINT_URL (credentials come from the
//	standard AWS environment/config chain)
type Env struct {
	Anthropic ProviderEnv
	OpenAI    ProviderEnv
	Gemini    ProviderEnv
	Bedrock   ProviderEnv
}

// LoadEnv reads the per-backend environment configuration.
func LoadEnv() Env {
	return Env{
		Anthropic: ProviderEnv{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			Model:   os.Getenv("ANTHROPIC_MODEL"),
		},
		OpenAI: ProviderEnv{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		Gemini: ProviderEnv{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  os.Getenv("GEMINI_MODEL"),
		},
		Bedrock: ProviderEnv{
			BaseURL: os.Getenv("BEDROCK_ENDPOINT_URL"),
			Model:   os.Getenv("BEDROCK_MODEL_ID"),
		},
	}
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// The agent's own state directory is never visible to the tools.
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ".codewright", ".codewright/**")

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".codewright", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".codewright", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	cfg.applyDefaults(wd)
	return cfg, nil
}

func (c *Config) applyDefaults(wd string) {
	if c.ProjectRoot == "" {
		c.ProjectRoot = wd
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 50
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(".codewright", "codewright.db")
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, which gives a simple
	// merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}
