package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/pipeline"
	"pulse-job-scraper/internal/runlog"
	"pulse-job-scraper/internal/telegram"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	fixture := flag.String("fixture", "", "read jobs from this fixture instead of the live listing")
	fixtureFallback := flag.String("fixture-fallback", "", "fixture used when the live listing fails (overrides config)")
	disableFallback := flag.Bool("disable-fallback", false, "fail the run instead of using the fallback fixture")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	//load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if *fixture != "" {
		cfg.Fallback.ForceFixture = *fixture
	}
	if *fixtureFallback != "" {
		cfg.Fallback.FixturePath = *fixtureFallback
	}
	if *disableFallback {
		cfg.Fallback.Disabled = true
	}

	//per-run log file
	run, err := runlog.Open(cfg.LogDir, time.Now())
	if err != nil {
		run.Printf("⚠️ Logging to stderr only: %v", err)
	}
	defer run.Close()
	run.Printf("🔧 Config loaded. Tenant: %s (%s)", cfg.Tenant.Name, cfg.Tenant.ListingURL)

	var opts []pipeline.Option
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			run.Printf("⚠️ Telegram disabled: %v", err)
		} else {
			run.Println("🤖 Telegram Bot initialized.")
			opts = append(opts, pipeline.WithNotifier(bot))
		}
	}

	//setup context with timeout, cancelled on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	run.Println("🚀 Starting Pulse scrape...")
	if _, err := pipeline.New(cfg, run.Logger, opts...).Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			run.Printf("⏭️ %v", err)
		}
		run.Close()
		os.Exit(1)
	}
	run.Println("🏁 Execution finished.")
}
