package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/soderasen-au/go-common/util"
	"gopkg.in/yaml.v3"

	"github.com/soderasen-au/go-grouptable/dataset"
	"github.com/soderasen-au/go-grouptable/report"
)

type SystemConfig struct {
	LogFolder    string `yaml:"log_folder"`
	OutputFolder string `yaml:"output_folder"`
	// MetricsFile receives engine counters in the Prometheus text format
	MetricsFile string `yaml:"metrics_file"`
	AuditFile   string `yaml:"audit_file"`
	Concurrency int    `yaml:"concurrency"`
}

type TableConfig struct {
	Name         string         `yaml:"name"`
	Title        string         `yaml:"title"`
	Source       string         `yaml:"source"`
	Separator    string         `yaml:"separator"`
	Format       string         `yaml:"format"`
	OutputOffset *enigma.Rect   `yaml:"output_offset"`
	Layout       dataset.Layout `yaml:"layout"`
}

func (tc TableConfig) Comma() rune {
	if tc.Separator == "" {
		return 0
	}
	if tc.Separator == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(tc.Separator)
	return r
}

type Config struct {
	System SystemConfig  `yaml:"system"`
	Tables []TableConfig `yaml:"tables"`
}

func (cfg *Config) Validate() *util.Result {
	if len(cfg.Tables) == 0 {
		return util.MsgError("Tables", "no table configured")
	}
	names := make(map[string]bool)
	for i, tc := range cfg.Tables {
		step := fmt.Sprintf("tables[%d]", i)
		if tc.Name == "" {
			return util.MsgError(step, "table has no name")
		}
		if names[tc.Name] {
			return util.MsgError(step, fmt.Sprintf("duplicate table `%s`", tc.Name))
		}
		names[tc.Name] = true
		if tc.Source == "" {
			return util.MsgError(tc.Name, "table has no source")
		}
		if !report.ReportFormat(tc.Format).IsValid() {
			return util.MsgError(tc.Name, "unsupported format: "+tc.Format)
		}
		if tc.Separator != `\t` && utf8.RuneCountInString(tc.Separator) > 1 {
			return util.MsgError(tc.Name, "separator must be a single character")
		}
		if res := tc.Layout.Validate(); res != nil {
			return res.With(tc.Name).With("Layout")
		}
	}
	return nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	// Set defaults
	if cfg.System.LogFolder == "" {
		cfg.System.LogFolder = "."
	}
	if cfg.System.OutputFolder == "" {
		cfg.System.OutputFolder = "."
	}
	if cfg.System.Concurrency < 1 {
		cfg.System.Concurrency = 4
	}
	for i := range cfg.Tables {
		if cfg.Tables[i].Format == "" {
			cfg.Tables[i].Format = string(report.REPORT_FORMAT_XLSX)
		}
	}

	if res := cfg.Validate(); res != nil {
		return nil, res
	}
	return &cfg, nil
}
