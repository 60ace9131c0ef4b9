package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/maximecaruchet/html2pptx/internal/app"
	"github.com/maximecaruchet/html2pptx/internal/geometry"
	"github.com/maximecaruchet/html2pptx/internal/layout"
	"github.com/maximecaruchet/html2pptx/internal/server"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load .env if present; real environment still wins.
	_ = godotenv.Load()

	var (
		configPath  string
		port        int
		oneShotURL  string
		selector    string
		outputPath  string
		canvasW     float64
		canvasH     float64
		margin      float64
		minTextLen  int
		gridMin     int
		fitTol      float64
		userAgent   string
		fetchTO     time.Duration
		attempts    int
		imageFanout int
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		enablePDF   bool
		debugSlides bool
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to optional YAML config file")
	flag.IntVar(&port, "port", 0, "HTTP port to serve on (default 8080)")
	flag.StringVar(&oneShotURL, "url", "", "Convert this URL once and exit instead of serving")
	flag.StringVar(&selector, "selector", "", "CSS selector of the deck root element (one-shot mode)")
	flag.StringVar(&outputPath, "output", "presentation.pptx", "Output path for one-shot mode")
	flag.Float64Var(&canvasW, "canvas.width", 0, "Slide canvas width in points (default 720)")
	flag.Float64Var(&canvasH, "canvas.height", 0, "Slide canvas height in points (default 540)")
	flag.Float64Var(&margin, "canvas.margin", 0, fmt.Sprintf("Slide margin in points (default %g)", geometry.DefaultMargin))
	flag.IntVar(&minTextLen, "layout.minTextLenForMixed", 0, fmt.Sprintf("Char count at which text next to images is substantial (default %d)", layout.DefaultMinTextLenForMixed))
	flag.IntVar(&gridMin, "layout.imageGridMinCount", 0, fmt.Sprintf("Image count at which the grid template applies (default %d)", layout.DefaultImageGridMinCount))
	flag.Float64Var(&fitTol, "layout.imageFitTolerance", 0, fmt.Sprintf("Acceptable image aspect distortion (default %g)", geometry.DefaultImageFitTolerance))
	flag.StringVar(&userAgent, "fetch.ua", "", "Custom User-Agent for page and image requests")
	flag.DurationVar(&fetchTO, "fetch.timeout", 0, "Per-request fetch timeout (default 15s)")
	flag.IntVar(&attempts, "fetch.attempts", 0, "Fetch attempts including the first (default 2)")
	flag.IntVar(&imageFanout, "fetch.maxImages", 0, "Concurrent image fetches (default 4)")
	flag.StringVar(&cacheDir, "cache.dir", "", "Cache directory for fetched bodies; empty disables")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge; 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&enablePDF, "enable.pdf", false, "Also write a PDF rendition in one-shot mode")
	flag.BoolVar(&debugSlides, "debug.slides", false, "Fill text boxes red in the output for layout debugging")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.Config{
		Port:                port,
		CanvasWidth:         canvasW,
		CanvasHeight:        canvasH,
		Margin:              margin,
		MinTextLenForMixed:  minTextLen,
		ImageGridMinCount:   gridMin,
		ImageFitTolerance:   fitTol,
		UserAgent:           userAgent,
		FetchTimeout:        fetchTO,
		MaxAttempts:         attempts,
		MaxConcurrentImages: imageFanout,
		CacheDir:            cacheDir,
		CacheMaxAge:         cacheMaxAge,
		CacheClear:          cacheClear,
		EnablePDF:           enablePDF,
		DebugSlides:         debugSlides,
		Verbose:             verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config file")
		}
		app.MergeFileConfig(&cfg, fc)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	if cfg.Verbose || cfg.DebugLogs {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}

	if strings.TrimSpace(oneShotURL) != "" {
		if err := convertOnce(a, cfg, oneShotURL, selector, outputPath); err != nil {
			log.Error().Err(err).Msg("conversion failed")
			os.Exit(1)
		}
		return
	}

	h := &server.Handler{App: a}
	if err := server.ListenAndServe(cfg.Port, h); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func convertOnce(a *app.App, cfg app.Config, pageURL, selector, outputPath string) error {
	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("one-shot mode requires -selector")
	}
	res, err := a.Convert(context.Background(), pageURL, selector)
	if err != nil {
		return err
	}
	for _, issue := range res.Build.Issues {
		log.Warn().Int("slide", issue.SlideIndex).Str("stage", issue.Stage).Msg(issue.Message)
	}
	if err := os.WriteFile(outputPath, res.PPTX, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", outputPath).Int("slides", len(res.Build.Slides)).Msg("wrote presentation")
	if cfg.EnablePDF && len(res.PDF) > 0 {
		pdfPath := strings.TrimSuffix(outputPath, ".pptx") + ".pdf"
		if err := os.WriteFile(pdfPath, res.PDF, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", pdfPath).Msg("wrote pdf rendition")
	}
	return nil
}
