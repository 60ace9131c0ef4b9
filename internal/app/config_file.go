package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the optional YAML configuration file. Nested sections
// map naturally to flags and env variables; zero values mean "not set" so the
// usual precedence (flags over env over file) applies.
type FileConfig struct {
	Port int `yaml:"port"`

	Layout struct {
		CanvasWidth        float64 `yaml:"canvasWidth"`
		CanvasHeight       float64 `yaml:"canvasHeight"`
		Margin             float64 `yaml:"margin"`
		MinTextLenForMixed int     `yaml:"minTextLenForMixed"`
		ImageGridMinCount  int     `yaml:"imageGridMinCount"`
		ImageFitTolerance  float64 `yaml:"imageFitTolerance"`
	} `yaml:"layout"`

	Fetch struct {
		UserAgent string `yaml:"userAgent"`
		// Timeout is a Go duration string like "15s".
		Timeout     string `yaml:"timeout"`
		MaxAttempts int    `yaml:"maxAttempts"`
		MaxImages   int    `yaml:"maxConcurrentImages"`
	} `yaml:"fetch"`

	Cache struct {
		Dir    string `yaml:"dir"`
		MaxAge string `yaml:"maxAge"`
		Clear  bool   `yaml:"clear"`
	} `yaml:"cache"`

	EnablePDF   bool `yaml:"enablePDF"`
	DebugLogs   bool `yaml:"debugLogs"`
	DebugSlides bool `yaml:"debugSlides"`
	Verbose     bool `yaml:"verbose"`
}

// LoadConfigFile reads and parses a YAML config file.
func LoadConfigFile(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

// MergeFileConfig fills unset cfg fields from the file config.
func MergeFileConfig(cfg *Config, fc *FileConfig) {
	if cfg == nil || fc == nil {
		return
	}
	if cfg.Port == 0 {
		cfg.Port = fc.Port
	}
	if cfg.CanvasWidth == 0 {
		cfg.CanvasWidth = fc.Layout.CanvasWidth
	}
	if cfg.CanvasHeight == 0 {
		cfg.CanvasHeight = fc.Layout.CanvasHeight
	}
	if cfg.Margin == 0 {
		cfg.Margin = fc.Layout.Margin
	}
	if cfg.MinTextLenForMixed == 0 {
		cfg.MinTextLenForMixed = fc.Layout.MinTextLenForMixed
	}
	if cfg.ImageGridMinCount == 0 {
		cfg.ImageGridMinCount = fc.Layout.ImageGridMinCount
	}
	if cfg.ImageFitTolerance == 0 {
		cfg.ImageFitTolerance = fc.Layout.ImageFitTolerance
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.FetchTimeout == 0 && fc.Fetch.Timeout != "" {
		if d, err := time.ParseDuration(fc.Fetch.Timeout); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if cfg.MaxConcurrentImages == 0 {
		cfg.MaxConcurrentImages = fc.Fetch.MaxImages
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge != "" {
		if d, err := time.ParseDuration(fc.Cache.MaxAge); err == nil {
			cfg.CacheMaxAge = d
		}
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.EnablePDF = cfg.EnablePDF || fc.EnablePDF
	cfg.DebugLogs = cfg.DebugLogs || fc.DebugLogs
	cfg.DebugSlides = cfg.DebugSlides || fc.DebugSlides
	cfg.Verbose = cfg.Verbose || fc.Verbose
}
