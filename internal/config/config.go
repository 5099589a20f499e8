package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "https://semgrep.dev/api/v1"
	DefaultOutputFile = "findings.json"
	DefaultOutputDir  = "reports"
)

var ErrCredentialsRequired = errors.New("semgrep token and deployment slug are required")

type Config struct {
	Semgrep SemgrepConfig `yaml:"semgrep"`
	Output  OutputConfig  `yaml:"output"`
}

type SemgrepConfig struct {
	Token          string `yaml:"token"`
	DeploymentSlug string `yaml:"deployment_slug"`
	// StartDate is free-form, e.g. "January 1, 2024". Empty means all findings.
	StartDate string `yaml:"start_date"`
	APIURL    string `yaml:"api_url"`
}

type OutputConfig struct {
	File string `yaml:"file"`
	// Directory receives the summary reports.
	Directory string `yaml:"directory"`
}

func Default() *Config {
	return &Config{
		Semgrep: SemgrepConfig{APIURL: DefaultAPIURL},
		Output:  OutputConfig{File: DefaultOutputFile, Directory: DefaultOutputDir},
	}
}

// Load reads the optional YAML file at path and overlays environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Semgrep.Token = getEnvOrDefault("SEMGREP_API_TOKEN", cfg.Semgrep.Token)
	cfg.Semgrep.DeploymentSlug = getEnvOrDefault("SEMGREP_DEPLOYMENT_SLUG", cfg.Semgrep.DeploymentSlug)
	cfg.Semgrep.StartDate = getEnvOrDefault("SEMGREP_START_DATE", cfg.Semgrep.StartDate)
	cfg.Semgrep.APIURL = getEnvOrDefault("SEMGREP_API_URL", cfg.Semgrep.APIURL)
	cfg.Output.File = getEnvOrDefault("FINDINGS_OUTPUT", cfg.Output.File)
	cfg.Output.Directory = getEnvOrDefault("OUTPUT_DIR", cfg.Output.Directory)

	if cfg.Semgrep.APIURL == "" {
		cfg.Semgrep.APIURL = DefaultAPIURL
	}
	if cfg.Output.File == "" {
		cfg.Output.File = DefaultOutputFile
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Semgrep.Token) == "" || strings.TrimSpace(c.Semgrep.DeploymentSlug) == "" {
		return ErrCredentialsRequired
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
