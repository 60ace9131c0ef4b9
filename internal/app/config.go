package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Port int

	// Layout
	CanvasWidth        float64
	CanvasHeight       float64
	Margin             float64
	MinTextLenForMixed int
	ImageGridMinCount  int
	ImageFitTolerance  float64

	// Fetching
	UserAgent           string
	FetchTimeout        time.Duration
	MaxAttempts         int
	MaxConcurrentImages int

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	// Behavior
	EnablePDF   bool
	DebugLogs   bool
	DebugSlides bool
	Verbose     bool
}
