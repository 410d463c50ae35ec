package bot

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "leavebot/core/config"
	coredatabase "leavebot/core/database"
)

// ReportConfig holds document rendering settings.
type ReportConfig struct {
	// FontPath points at a Unicode-capable TTF file. Checked at startup.
	FontPath string `yaml:"font_path" envconfig:"REPORT_FONT_PATH"`
}

// Config aggregates core settings with the bot's own sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Report   ReportConfig        `yaml:"report"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads YAML, applies environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Report.FontPath) == "" {
		return nil, fmt.Errorf("report.font_path is required")
	}
	return &cfg, nil
}
