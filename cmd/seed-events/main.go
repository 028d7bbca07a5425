package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rift/internal/seedevents"
)

// Default configuration constants.
const (
	defaultNumEvents  = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		secret     = flag.String("secret", os.Getenv("RIFT_WEBHOOK_SECRET"), "Webhook secret")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated events (default: seeded_events_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedevents.ShowHelp()
		return
	}

	if *secret == "" {
		os.Stderr.WriteString("a webhook secret is required (-secret or RIFT_WEBHOOK_SECRET)\n")
		return
	}

	// Setup logging
	if err := seedevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seedevents.Config{
		BaseURL:    *baseURL,
		Secret:     *secret,
		NumEvents:  *numEvents,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := seedevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
