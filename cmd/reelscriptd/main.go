// Command reelscriptd runs the reelscript HTTP API and scrape schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"reelscript/internal/config"
	"reelscript/internal/daemonrun"
	"reelscript/internal/services"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override logging.level")
	development := flag.Bool("dev", false, "Human-readable development logging")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:    *logLevel,
		Development: *development,
		Version:     version,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("reelscriptd: %v", err)
		os.Exit(services.ExitCode(err))
	}
}
