package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"geocrawl/internal/config"
	server "geocrawl/internal/http"
	"geocrawl/internal/migrate"
	"geocrawl/internal/store"
	"geocrawl/internal/supervisor"
)

func main() {
	// .env is optional; environment always wins over its contents.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file (optional)")
	port := flag.Int("port", 0, "control surface port")
	apiURL := flag.String("api-url", "", "ingestion API base URL passed to workers")
	supabaseURL := flag.String("supabase-url", "", "Supabase project URL for the job queue")
	supabaseKey := flag.String("supabase-key", "", "Supabase service key")
	apiKey := flag.String("api-key", "", "bearer key protecting the control surface")
	noWatcher := flag.Bool("no-watcher", false, "disable the queue poller")
	noRetry := flag.Bool("no-retry", false, "disable the retry scheduler")
	runMigrations := flag.Bool("migrate", false, "apply dev migrations before starting")
	flag.Parse()

	cfg := config.Load(*configPath)

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if v := firstNonEmpty(*apiURL, os.Getenv("CRAWLER_API_URL")); v != "" {
		cfg.Worker.APIURL = v
	}
	if v := firstNonEmpty(*apiKey, os.Getenv("API_KEY")); v != "" {
		cfg.Auth.APIKey = v
	}

	sbURL := firstNonEmpty(*supabaseURL, os.Getenv("SUPABASE_URL"), os.Getenv("VITE_SUPABASE_URL"))
	sbKey := firstNonEmpty(*supabaseKey, os.Getenv("SUPABASE_SERVICE_KEY"), os.Getenv("VITE_SUPABASE_ANON_KEY"))
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.DSN == "" && sbURL != "" {
		dsn, err := supabaseDSN(sbURL, sbKey)
		if err != nil {
			log.Fatalf("invalid supabase url: %v", err)
		}
		cfg.Database.DSN = dsn
	}
	if cfg.Database.DSN == "" {
		log.Fatalf("no job queue configured: set database.dsn, DATABASE_URL, or --supabase-url")
	}

	if *runMigrations {
		if err := migrate.Run(cfg.Database.DSN); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	// Create a shared *sql.DB with pooling for the queue store
	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db failed: %v", err)
	}
	// Basic pool settings; adjust as needed
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	st := store.New(db)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	mgr := supervisor.NewManager(logger, cfg.Worker.Bin, cfg.Worker.APIURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Poller.Enabled && !*noWatcher {
		poller := supervisor.NewPoller(st, mgr, logger, cfg.Worker.LogLevel, cfg.Poller.BatchSize)
		go poller.Run(ctx)
	} else {
		logger.Info("queue poller disabled")
	}

	if cfg.Retry.Enabled && !*noRetry {
		retry := supervisor.NewRetryScheduler(st, mgr, logger, cfg.Worker.LogLevel, cfg.Retry.MaxRetries)
		go retry.Run(ctx)
	} else {
		logger.Info("retry scheduler disabled")
	}

	s := server.NewServer(cfg, mgr, db, logger)
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	logger.Info("supervisor listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
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

// supabaseDSN derives the direct Postgres connection string from a
// Supabase project URL (https://<ref>.supabase.co) and service key.
func supabaseDSN(projectURL, key string) (string, error) {
	u, err := url.Parse(projectURL)
	if err != nil {
		return "", err
	}
	ref, _, ok := strings.Cut(u.Hostname(), ".")
	if !ok || ref == "" {
		return "", fmt.Errorf("no project ref in host %q", u.Hostname())
	}
	return fmt.Sprintf("postgresql://postgres:%s@db.%s.supabase.co:5432/postgres", url.QueryEscape(key), ref), nil
}
