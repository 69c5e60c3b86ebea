package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"geocrawl/internal/config"
	"geocrawl/internal/worker"
)

func main() {
	// .env is optional; environment always wins over its contents.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file (optional)")
	jobID := flag.String("job-id", "", "crawl job id (required)")
	apiURL := flag.String("api-url", "", "ingestion API base URL (required unless --output-dir is set)")
	projectID := flag.String("project-id", "", "override the job's project id")
	domain := flag.String("domain", "", "override the job's start domain")
	scope := flag.String("scope", "", "override scope: subdomain|domain|subfolder|subdomain+subfolder")
	jsMode := flag.String("js-mode", "", "override rendering: off|auto|full")
	maxPages := flag.Int("max-pages", -1, "override page cap (0 crawls nothing)")
	maxDepth := flag.Int("max-depth", -1, "override link depth")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	outputDir := flag.String("output-dir", "", "write page results to files instead of shipping")
	browserURL := flag.String("browser-url", "", "DevTools control URL for rendered fetches")
	flag.Parse()

	if *jobID == "" {
		log.Fatalf("--job-id is required")
	}
	if *apiURL == "" {
		*apiURL = os.Getenv("CRAWLER_API_URL")
	}
	if *apiURL == "" && *outputDir == "" {
		log.Fatalf("--api-url is required unless --output-dir is set")
	}

	appCfg := config.Load(*configPath)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(*logLevel),
	}))

	cfg := worker.Config{
		JobID:  *jobID,
		APIURL: *apiURL,
		APIKey: os.Getenv("API_KEY"),

		OutputDir:  *outputDir,
		FileOutput: *outputDir != "",

		Concurrency: appCfg.Crawler.Concurrency,
		PerHost:     appCfg.Crawler.PerHost,
		Delay:       time.Duration(appCfg.Crawler.DelaySeconds * float64(time.Second)),
		UserAgent:   appCfg.Crawler.UserAgent,

		BrowserURL: firstNonEmpty(*browserURL, appCfg.Browser.ControlURL),
		Stealth:    true,
		Markdown:   appCfg.Extract.Markdown,
		LinkCheck:  appCfg.Extract.CheckLinks,

		Domain: *domain,
		Scope:  *scope,
		JSMode: *jsMode,
	}
	if *projectID != "" {
		cfg.ProjectID = *projectID
	}
	if *maxPages >= 0 {
		cfg.MaxPages = maxPages
	}
	if *maxDepth >= 0 {
		cfg.MaxDepth = maxDepth
	}

	var backend worker.Backend
	if *apiURL == "" {
		// File-output run with no job API: the job definition comes
		// from the command line.
		if *domain == "" {
			log.Fatalf("--domain is required when running without --api-url")
		}
		backend = worker.LocalBackend{}
	} else {
		backend = worker.NewAPIBackend(*apiURL, cfg.APIKey)
	}
	w := worker.New(cfg, logger, backend)

	if err := w.Run(context.Background()); err != nil {
		logger.Error("crawl failed", "job_id", *jobID, "error", err)
		os.Exit(1)
	}
}

func slogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
