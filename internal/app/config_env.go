package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from HTML2PPTX_* environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Port == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("HTML2PPTX_PORT"))); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("HTML2PPTX_CACHE_DIR")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = os.Getenv("HTML2PPTX_USER_AGENT")
	}

	if cfg.MinTextLenForMixed == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("HTML2PPTX_MIN_TEXT_LEN_FOR_MIXED"))); err == nil && n > 0 {
			cfg.MinTextLenForMixed = n
		}
	}
	if cfg.ImageGridMinCount == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("HTML2PPTX_IMAGE_GRID_MIN_COUNT"))); err == nil && n > 0 {
			cfg.ImageGridMinCount = n
		}
	}

	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("HTML2PPTX_CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DebugLogs, "HTML2PPTX_DEBUG_LOGS")
	setBool(&cfg.DebugSlides, "HTML2PPTX_DEBUG_SLIDES")
	setBool(&cfg.EnablePDF, "HTML2PPTX_ENABLE_PDF")
	setBool(&cfg.Verbose, "HTML2PPTX_VERBOSE")
	setBool(&cfg.CacheClear, "HTML2PPTX_CACHE_CLEAR")
}
