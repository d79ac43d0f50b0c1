package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/lucid/internal/testsamples"
)

// Default configuration constants.
const (
	defaultNumSamples  = 5000
	defaultBatchSize   = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultPollTimeout = 2 * time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numSamples  = flag.Int("samples", defaultNumSamples, "Number of samples to generate and submit")
		batchSize   = flag.Int("batch", defaultBatchSize, "Number of samples per submission batch")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollTimeout = flag.Duration("poll", defaultPollTimeout, "How long to keep polling for scored results")
		outputFile  = flag.String("output", "", "Output file for generated samples (default: generated_samples_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testsamples.ShowHelp()
		return
	}

	// Setup logging
	if err := testsamples.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testsamples.Config{
		BaseURL:     *baseURL,
		NumSamples:  *numSamples,
		BatchSize:   *batchSize,
		Workers:     *workers,
		Timeout:     *timeout,
		PollTimeout: *pollTimeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the test
	if err := testsamples.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
