package testsamples

import "time"

// Config holds configuration for the sample test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumSamples  int           // Number of samples to generate
	BatchSize   int           // Samples per submission batch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	PollTimeout time.Duration // How long to keep polling for scored results
	OutputFile  string        // Output file for samples
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Profile names the fatigue shape a generated sample imitates.
type Profile string

// Generated sample profiles.
const (
	ProfileRested    Profile = "rested"
	ProfileStrained  Profile = "strained"
	ProfileExhausted Profile = "exhausted"
)

// ExpectedLevel returns the fatigue level a sample of this profile
// should score into under the default heuristic.
func (p Profile) ExpectedLevel() string {
	switch p {
	case ProfileRested:
		return "low"
	case ProfileExhausted:
		return "high"
	default:
		return "moderate"
	}
}

// Sample represents a behavioral sample to be submitted.
// Profile is the generator's expectation and is never sent.
type Sample struct {
	ID         string             `json:"id"`
	Metrics    map[string]float64 `json:"metrics"`
	Expression string             `json:"expression,omitempty"`

	Profile Profile `json:"-"`
}

// BatchAck represents the response from a batch submission
type BatchAck struct {
	Accepted  int      `json:"accepted"`
	Rejected  int      `json:"rejected"`
	Duplicate int      `json:"duplicate"`
	IDs       []string `json:"ids"`
}

// ModalityScore is one modality's contribution inside a result
type ModalityScore struct {
	Modality string  `json:"modality"`
	Score    float64 `json:"score"`
	Quality  float64 `json:"quality"`
	Present  bool    `json:"present"`
}

// Result is the scored outcome for one sample
type Result struct {
	OverallScore     float64         `json:"overall_score"`
	Confidence       float64         `json:"confidence"`
	Level            string          `json:"level"`
	ModalityScores   []ModalityScore `json:"modality_scores"`
	DominantModality string          `json:"dominant_modality"`
	ModelUsed        string          `json:"model_used"`
}

// ScoredSample represents a retrieved sample with its result.
// Profile is carried over from the submitted sample for verification.
type ScoredSample struct {
	ID     string `json:"id"`
	Result Result `json:"result"`

	Profile Profile `json:"-"`
}

// Band is one fatigue band in the insights document
type Band struct {
	Level    string  `json:"level"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Guidance string  `json:"guidance"`
}

// Distribution summarizes the scores held in the service window
type Distribution struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Placement locates one score against the window population
type Placement struct {
	Score      float64  `json:"score"`
	Level      string   `json:"level"`
	Percentile *float64 `json:"percentile,omitempty"`
}

// Insights is the response from the insights endpoint
type Insights struct {
	Bands        []Band        `json:"bands"`
	Distribution *Distribution `json:"distribution,omitempty"`
	Placement    *Placement    `json:"placement,omitempty"`
}

// Stats holds test statistics
type Stats struct {
	SamplesGenerated int
	SamplesSubmitted int
	SamplesAccepted  int
	SamplesDuplicate int
	SamplesRejected  int
	BatchesFailed    int
	ResultsRetrieved int
	ResultsMissing   int
	LevelMatches     int
	LevelMismatches  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
