package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"falcon-lights/internal/agent"
	"falcon-lights/internal/config"
)

// These variables will be set by the build script
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	// Print the version information on startup
	log.Printf("Starting Falcon Lights Controller version: %s, commit: %s, built: %s", version, commit, date)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := agent.NewAgent(cfg)
	if err != nil {
		log.Fatalf("Failed to create agent: %v", err)
	}

	go a.Run()

	// Wait for termination signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down agent...")
	a.Shutdown()
	log.Println("Agent shut down gracefully.")
}
