package testsamples

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// batchPayload mirrors the JSON schema for batch submission
type batchPayload struct {
	Samples []Sample `json:"samples"`
}

// submitSamples submits samples in batches using worker pools
func submitSamples(ctx context.Context, config *Config, samples []Sample, stats *Stats) error {
	batches := chunkSamples(samples, config.BatchSize)
	log.Printf("📤 Submitting %d samples in %d batches with %d workers...", len(samples), len(batches), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/v1/samples"

	// Counters for statistics
	var (
		accepted      int64
		duplicate     int64
		rejected      int64
		submitted     int64
		failedBatches int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	batchChan := make(chan []Sample, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
					ack, err := submitSingleBatch(ctx, client, url, batch)

					// Update counters
					atomic.AddInt64(&submitted, int64(len(batch)))
					if err != nil {
						atomic.AddInt64(&failedBatches, 1)
						atomic.AddInt64(&rejected, int64(len(batch)))
						if config.Verbose {
							log.Printf("⚠️  Batch submission failed: %v", err)
						}
					} else {
						atomic.AddInt64(&accepted, int64(ack.Accepted))
						atomic.AddInt64(&duplicate, int64(ack.Duplicate))
						atomic.AddInt64(&rejected, int64(ack.Rejected))
					}

					// Progress reporting
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						rej := atomic.LoadInt64(&rejected)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(samples), acc, dup, rej)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(samples), acc, dup, rej)
						}
					}
				}
			}
		}()
	}

	// Send batches to workers
	go func() {
		defer close(batchChan)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- batch:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.SamplesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SamplesAccepted = int(atomic.LoadInt64(&accepted))
	stats.SamplesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SamplesRejected = int(atomic.LoadInt64(&rejected))
	stats.BatchesFailed = int(atomic.LoadInt64(&failedBatches))

	log.Printf(`✅ Sample submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
   Failed batches: %d
`, stats.SamplesAccepted, stats.SamplesDuplicate, stats.SamplesRejected, stats.BatchesFailed)

	return nil
}

// submitSingleBatch submits one batch and returns the acknowledgment.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch []Sample) (BatchAck, error) {
	resp, err := client.Post(ctx, url, batchPayload{Samples: batch})
	if err != nil {
		return BatchAck{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return BatchAck{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusAccepted {
		return BatchAck{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var ack BatchAck
	if err := unmarshalJSON(body, &ack); err != nil {
		return BatchAck{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return ack, nil
}

// chunkSamples splits samples into batches of at most size each.
func chunkSamples(samples []Sample, size int) [][]Sample {
	if size <= 0 {
		size = len(samples)
	}
	batches := make([][]Sample, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := start + size
		if end > len(samples) {
			end = len(samples)
		}
		batches = append(batches, samples[start:end])
	}
	return batches
}
