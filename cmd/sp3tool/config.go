// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	m "github.com/mkhts/sp3"
)

// Optional YAML configuration. Command line flags take precedence.
type config struct {
	Logs struct {
		Directory  string `yaml:"directory"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxAgeDays int    `yaml:"max_age_days"`
		MaxBackups int    `yaml:"max_backups"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logs"`
	Policy  string `yaml:"policy"`  // first, second or reject
	Station string `yaml:"station"` // "lat lon hei" in [deg], [deg], [m]
	Metrics string `yaml:"metrics"` // Textfile path
	Debug   int    `yaml:"debug"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	return cfg, nil
}

// Fill options not given on the command line
func (cfg *config) apply(a *cmdOpt) error {
	if len(cfg.Policy) > 0 && !a.setFlags["policy"] {
		p, err := m.ParseMergePolicy(cfg.Policy)
		if err != nil {
			return err
		}
		a.policy = p
	}
	if len(cfg.Station) > 0 && !a.setFlags["l"] {
		if err := a.station.Set(cfg.Station); err != nil {
			return fmt.Errorf("station: %w", err)
		}
	}
	if len(cfg.Metrics) > 0 && !a.setFlags["metrics"] {
		a.metricsFn = cfg.Metrics
	}
	if cfg.Debug > 0 && !a.setFlags["x"] {
		m.DBG_ = cfg.Debug
	}
	return nil
}

// Route debug output and the standard logger through a rotating file
func setupLogging(cfg config) (io.Writer, error) {
	if len(cfg.Logs.Directory) == 0 {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(cfg.Logs.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Logs.Directory, "sp3tool.log"),
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxAge:     cfg.Logs.MaxAgeDays,
		MaxBackups: cfg.Logs.MaxBackups,
		Compress:   cfg.Logs.Compress,
	}
	w := io.MultiWriter(os.Stderr, rotator)
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	m.SetLogOutput(w)
	return w, nil
}

func applyConfig(a *cmdOpt) error {
	if len(a.configFn) == 0 {
		return nil
	}
	cfg, err := loadConfig(a.configFn)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.apply(a); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}
	log.Printf("sp3tool %s %v (policy=%s)", a.cmd, a.files, a.policy)
	return nil
}
