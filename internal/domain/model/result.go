package model

import "time"

// ModalityScore is the fatigue sub-score computed from one modality.
// Quality is the fraction of the modality's scored metrics actually
// supplied. When Present is false the Score is undefined and fusion skips
// the modality entirely.
type ModalityScore struct {
	Modality Modality `json:"modality"`
	Score    float64  `json:"score"`
	Quality  float64  `json:"quality"`
	Present  bool     `json:"present"`
}

// ModelMode records which predictor produced the overall score.
type ModelMode string

// Predictor provenance values.
const (
	ModeTrained   ModelMode = "trained"
	ModeHeuristic ModelMode = "heuristic"
	ModeHybrid    ModelMode = "hybrid"
)

// Level is the coarse fatigue band derived from the overall score.
type Level string

// Fatigue bands.
const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// Band boundaries: [0, LowBandMax) low, [LowBandMax, HighBandMin) moderate,
// [HighBandMin, 100] high.
const (
	LowBandMax  = 30.0
	HighBandMin = 60.0
)

// LevelForScore maps an overall score to its fatigue band.
func LevelForScore(score float64) Level {
	switch {
	case score < LowBandMax:
		return LevelLow
	case score < HighBandMin:
		return LevelModerate
	default:
		return LevelHigh
	}
}

// Priority orders recommendations.
type Priority string

// Recommendation priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is one actionable suggestion derived from a result.
type Recommendation struct {
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
}

// FatigueResult is the value returned to the caller for one scoring call.
// It is created once and never mutated afterwards.
type FatigueResult struct {
	OverallScore     float64          `json:"overall_score"`
	Confidence       float64          `json:"confidence"`
	Level            Level            `json:"level"`
	ModalityScores   []ModalityScore  `json:"modality_scores"`
	DominantModality Modality         `json:"dominant_modality"`
	ModelUsed        ModelMode        `json:"model_used"`
	Recommendations  []Recommendation `json:"recommendations,omitempty"`
}

// ModelInfo describes the predictor currently answering scoring calls.
type ModelInfo struct {
	Loaded   bool      `json:"loaded"`
	Mode     ModelMode `json:"mode"`
	Features int       `json:"features"`
	Path     string    `json:"path,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}
