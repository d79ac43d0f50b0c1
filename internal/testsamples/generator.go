package testsamples

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/lucid/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 3
	percentDivisor     = 100
	expressionDivisor  = 2
)

// Dropout rates, in percent. A dropped modality imitates a client that
// never granted camera access or ran without pointer capture.
const (
	facialDropoutPercent = 15
	mouseDropoutPercent  = 5
)

// metricRange bounds one metric's generated values for a profile.
type metricRange struct {
	lo, hi float64
}

// Per-profile metric ranges. Each range keeps the modality sub-score
// inside the profile's target band under the default heuristic, so the
// expected level holds even when a modality is dropped.
var (
	restedRanges = map[string]metricRange{
		"typing.speed":                  {58, 70},
		"typing.error_rate":             {0, 4},
		"typing.pause_frequency":        {0, 2},
		"typing.key_press_duration":     {85, 115},
		"mouse.reaction_time":           {280, 380},
		"mouse.accuracy":                {82, 95},
		"mouse.movement_speed":          {125, 160},
		"mouse.click_frequency":         {8, 14},
		"mouse.target_hits":             {12, 18},
		"facial.blink_rate":             {14, 18},
		"facial.eye_closure_duration":   {130, 200},
		"facial.eye_aspect_ratio":       {0.28, 0.34},
		"facial.head_movement_variance": {40, 160},
	}

	strainedRanges = map[string]metricRange{
		"typing.speed":                  {40, 52},
		"typing.error_rate":             {7, 11},
		"typing.pause_frequency":        {3, 5},
		"typing.key_press_duration":     {115, 150},
		"mouse.reaction_time":           {440, 590},
		"mouse.accuracy":                {60, 75},
		"mouse.movement_speed":          {100, 130},
		"mouse.click_frequency":         {5, 9},
		"mouse.target_hits":             {7, 12},
		"facial.blink_rate":             {11, 14},
		"facial.eye_closure_duration":   {240, 320},
		"facial.eye_aspect_ratio":       {0.22, 0.28},
		"facial.head_movement_variance": {160, 300},
	}

	exhaustedRanges = map[string]metricRange{
		"typing.speed":                  {22, 38},
		"typing.error_rate":             {13, 22},
		"typing.pause_frequency":        {6, 9},
		"typing.key_press_duration":     {150, 210},
		"mouse.reaction_time":           {640, 900},
		"mouse.accuracy":                {28, 50},
		"mouse.movement_speed":          {45, 85},
		"mouse.click_frequency":         {1, 5},
		"mouse.target_hits":             {0, 6},
		"facial.blink_rate":             {5, 9},
		"facial.eye_closure_duration":   {340, 440},
		"facial.eye_aspect_ratio":       {0.15, 0.22},
		"facial.head_movement_variance": {300, 480},
	}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomPercent returns a random integer in [0, 100) using crypto/rand.
func getRandomPercent() int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(percentDivisor))
	return n.Int64()
}

// generateSamples creates the specified number of samples with unique IDs.
func generateSamples(ctx context.Context, config *Config, stats *Stats) ([]Sample, error) {
	logger.Get().Info(ctx, "generating samples with unique IDs", logger.Int("numSamples", config.NumSamples))

	samples := make([]Sample, config.NumSamples)

	// Pre-allocate sample IDs to ensure uniqueness
	sampleIDs := make([]string, config.NumSamples)
	for i := 0; i < config.NumSamples; i++ {
		sampleIDs[i] = uuid.New().String()
	}

	// Generate samples concurrently
	type sampleResult struct {
		index  int
		sample Sample
		err    error
	}

	resultChan := make(chan sampleResult, config.NumSamples)

	// Use worker pool for sample generation
	workerCount := minInt(config.Workers, config.NumSamples)
	samplesPerWorker := config.NumSamples / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * samplesPerWorker
		end := start + samplesPerWorker
		if worker == workerCount-1 {
			end = config.NumSamples // Last worker gets remaining samples
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- sampleResult{index: i, err: ctx.Err()}
					return
				default:
					sample := generateSingleSample(sampleIDs[i])
					resultChan <- sampleResult{index: i, sample: sample, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumSamples; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during sample generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate sample %d: %w", result.index, result.err)
			}
			samples[result.index] = result.sample
		}
	}

	stats.SamplesGenerated = len(samples)
	logger.Get().Info(ctx, "generated samples successfully", logger.Int("count", len(samples)))

	return samples, nil
}

// generateSingleSample creates a single sample with the given ID.
func generateSingleSample(id string) Sample {
	profile := pickProfile()
	ranges, expression := profileShape(profile)

	metrics := make(map[string]float64, len(ranges))
	for key, r := range ranges {
		metrics[key] = r.lo + getRandomFloat()*(r.hi-r.lo)
	}

	// Occasionally drop a whole modality to exercise partial scoring
	if getRandomPercent() < facialDropoutPercent {
		dropModality(metrics, "facial.")
		expression = ""
	}
	if getRandomPercent() < mouseDropoutPercent {
		dropModality(metrics, "mouse.")
	}

	return Sample{
		ID:         id,
		Metrics:    metrics,
		Expression: expression,
		Profile:    profile,
	}
}

// pickProfile selects a fatigue profile with equal probability.
func pickProfile() Profile {
	n, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch n.Int64() {
	case 0:
		return ProfileRested
	case 1:
		return ProfileStrained
	default:
		return ProfileExhausted
	}
}

// profileShape returns the metric ranges and expression label for a profile.
func profileShape(profile Profile) (map[string]metricRange, string) {
	switch profile {
	case ProfileRested:
		return restedRanges, "focused"
	case ProfileExhausted:
		return exhaustedRanges, "tired"
	default:
		n, _ := rand.Int(rand.Reader, big.NewInt(expressionDivisor))
		if n.Int64() == 0 {
			return strainedRanges, "neutral"
		}
		return strainedRanges, "distracted"
	}
}

// dropModality removes every metric carrying the given key prefix.
func dropModality(metrics map[string]float64, prefix string) {
	for key := range metrics {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(metrics, key)
		}
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
