package testsamples

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveResults polls the service for scored results concurrently.
// Samples still unscored when the poll deadline passes are counted as
// missing rather than failing the run.
func retrieveResults(ctx context.Context, config *Config, samples []Sample, stats *Stats) ([]ScoredSample, error) {
	log.Printf("📥 Retrieving results for %d samples with %d workers...", len(samples), config.Workers)

	client := newHTTPClient(config.Timeout)
	deadline := time.Now().Add(config.PollTimeout)

	// Results storage
	results := make([]ScoredSample, len(samples))
	var (
		retrieved int64
		missing   int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	sampleChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of IDs
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range sampleChan {
				select {
				case <-ctx.Done():
					return
				default:
					sample := samples[index]
					scored, err := pollSingleResult(ctx, client, config.BaseURL, sample.ID, deadline)

					if err != nil {
						atomic.AddInt64(&missing, 1)
						if config.Verbose {
							log.Printf("⚠️  No result for %s: %v", sample.ID, err)
						}
					} else {
						scored.Profile = sample.Profile
						results[index] = scored
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&missing)
						ret := atomic.LoadInt64(&retrieved)
						miss := atomic.LoadInt64(&missing)

						if config.Verbose {
							log.Printf("📊 Result progress: %d/%d polled (retrieved: %d, missing: %d)",
								total, len(samples), ret, miss)
						} else {
							fmt.Printf("\r📥 Results: %d/%d polled (retrieved: %d, missing: %d)",
								total, len(samples), ret, miss)
						}
					}
				}
			}
		}()
	}

	// Send sample indices to workers
	go func() {
		defer close(sampleChan)
		for i := range samples {
			select {
			case <-ctx.Done():
				return
			case sampleChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Filter out empty entries (missing results)
	validResults := make([]ScoredSample, 0, len(results))
	for _, scored := range results {
		if scored.ID != "" { // Empty ID indicates a missing result
			validResults = append(validResults, scored)
		}
	}

	// Update stats
	stats.ResultsRetrieved = len(validResults)
	stats.ResultsMissing = int(atomic.LoadInt64(&missing))

	log.Printf(`✅ Result retrieval completed:
   Retrieved: %d
   Missing: %d
`, len(validResults), stats.ResultsMissing)

	return validResults, nil
}

// pollSingleResult retrieves one scored sample, retrying on 404 until
// the deadline. A sample sits in the queue until a worker scores it,
// so the first polls routinely miss.
func pollSingleResult(ctx context.Context, client *HTTPClient, baseURL, sampleID string, deadline time.Time) (ScoredSample, error) {
	url := fmt.Sprintf("%s/v1/samples/%s", baseURL, sampleID)

	for {
		scored, retry, err := fetchResult(ctx, client, url)
		if err == nil {
			return scored, nil
		}
		if !retry || time.Now().After(deadline) {
			return ScoredSample{}, err
		}

		select {
		case <-ctx.Done():
			return ScoredSample{}, ctx.Err()
		case <-time.After(ResultPollInterval):
		}
	}
}

// fetchResult performs one retrieval attempt. retry reports whether the
// failure is worth another attempt.
func fetchResult(ctx context.Context, client *HTTPClient, url string) (ScoredSample, bool, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return ScoredSample{}, false, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return ScoredSample{}, false, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case StatusOK:
		var scored ScoredSample
		if err := unmarshalJSON(body, &scored); err != nil {
			return ScoredSample{}, false, fmt.Errorf("failed to parse response: %w", err)
		}
		return scored, false, nil
	case StatusNotFound:
		// Not scored yet
		return ScoredSample{}, true, fmt.Errorf("not scored before deadline")
	default:
		return ScoredSample{}, false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
}

// getInsights retrieves the fatigue insights document. A non-zero probe
// score is placed against the current window.
func getInsights(ctx context.Context, config *Config, probeScore float64) (*Insights, error) {
	log.Printf("🔎 Getting fatigue insights...")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/v1/insights"
	if probeScore > 0 {
		url = fmt.Sprintf("%s?score=%.2f", url, probeScore)
	}

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var insights Insights
	if err := unmarshalJSON(body, &insights); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	log.Printf("✅ Retrieved insights with %d bands", len(insights.Bands))

	return &insights, nil
}
