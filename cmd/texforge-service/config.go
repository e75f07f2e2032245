package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"texforge/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultArchiveDir      = "archives"
	defaultMaxArchiveBytes = 50 << 20

	defaultEntryFileName    = "main.tex"
	defaultCompileTimeout   = 60 * time.Second
	defaultOutputMaxBytes   = 256 << 10
	defaultCompilerTemplate = "pdflatex -interaction=nonstopmode -output-directory={out} {src}"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// IntakeConfig holds archive intake settings.
type IntakeConfig struct {
	ArchiveDir      string `yaml:"archiveDir"`
	TempDir         string `yaml:"tempDir"`
	MaxArchiveBytes int64  `yaml:"maxArchiveBytes"`
}

// CompileConfig holds compile pipeline settings.
type CompileConfig struct {
	WorkRoot        string        `yaml:"workRoot"`
	EntryFileName   string        `yaml:"entryFileName"`
	CommandTemplate string        `yaml:"commandTemplate"`
	Timeout         time.Duration `yaml:"timeout"`
	OutputMaxBytes  int64         `yaml:"outputMaxBytes"`
}

// AppConfig holds texforge-service config.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Intake  IntakeConfig  `yaml:"intake"`
	Compile CompileConfig `yaml:"compile"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Intake.ArchiveDir == "" {
		cfg.Intake.ArchiveDir = defaultArchiveDir
	}
	if cfg.Intake.MaxArchiveBytes == 0 {
		cfg.Intake.MaxArchiveBytes = defaultMaxArchiveBytes
	}
	if cfg.Compile.WorkRoot == "" {
		cfg.Compile.WorkRoot = filepath.Join(os.TempDir(), "texforge")
	}
	if cfg.Compile.EntryFileName == "" {
		cfg.Compile.EntryFileName = defaultEntryFileName
	}
	if cfg.Compile.CommandTemplate == "" {
		cfg.Compile.CommandTemplate = defaultCompilerTemplate
	}
	if cfg.Compile.Timeout == 0 {
		cfg.Compile.Timeout = defaultCompileTimeout
	}
	if cfg.Compile.OutputMaxBytes == 0 {
		cfg.Compile.OutputMaxBytes = defaultOutputMaxBytes
	}
}
