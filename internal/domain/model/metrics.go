// Package model contains domain values passed between layers: the metric
// registry, feature records, and scoring results.
package model

// Modality identifies one of the three behavioral signal sources.
type Modality string

// Recognized modalities, in result order.
const (
	ModalityTyping Modality = "typing"
	ModalityMouse  Modality = "mouse"
	ModalityFacial Modality = "facial"

	// ModalityNone marks the absence of a dominant modality.
	ModalityNone Modality = "none"
)

// Recognized metric keys, grouped by modality prefix.
const (
	MetricTypingSpeed            = "typing.speed"
	MetricTypingErrorRate        = "typing.error_rate"
	MetricTypingPauseFrequency   = "typing.pause_frequency"
	MetricTypingKeyPressDuration = "typing.key_press_duration"

	MetricMouseReactionTime   = "mouse.reaction_time"
	MetricMouseAccuracy       = "mouse.accuracy"
	MetricMouseMovementSpeed  = "mouse.movement_speed"
	MetricMouseClickFrequency = "mouse.click_frequency"
	MetricMouseTargetHits     = "mouse.target_hits"

	MetricFacialBlinkRate          = "facial.blink_rate"
	MetricFacialEyeClosureDuration = "facial.eye_closure_duration"
	MetricFacialExpression         = "facial.expression"
	MetricFacialEyeAspectRatio     = "facial.eye_aspect_ratio"
	MetricFacialHeadMovementVar    = "facial.head_movement_variance"
)

// FeatureCount is the fixed input arity of the trained model.
const FeatureCount = 14

// ExpectedPrimaryCount is the number of scored metrics per modality; it is
// the denominator of the quality fraction.
const ExpectedPrimaryCount = 3

// featureOrder is the canonical feature-vector order shared with model
// artifacts. Never reorder: deployed artifacts record coefficients in this
// sequence.
var featureOrder = []string{
	MetricTypingSpeed,
	MetricTypingErrorRate,
	MetricTypingPauseFrequency,
	MetricTypingKeyPressDuration,
	MetricMouseReactionTime,
	MetricMouseAccuracy,
	MetricMouseMovementSpeed,
	MetricMouseClickFrequency,
	MetricMouseTargetHits,
	MetricFacialBlinkRate,
	MetricFacialEyeClosureDuration,
	MetricFacialExpression,
	MetricFacialEyeAspectRatio,
	MetricFacialHeadMovementVar,
}

// primaryMetrics lists the scored metrics per modality. Metrics outside
// these sets are secondary: they feed the trained model's feature vector but
// carry no heuristic weight and do not count toward quality.
var primaryMetrics = map[Modality][]string{
	ModalityTyping: {MetricTypingSpeed, MetricTypingErrorRate, MetricTypingPauseFrequency},
	ModalityMouse:  {MetricMouseReactionTime, MetricMouseAccuracy, MetricMouseMovementSpeed},
	ModalityFacial: {MetricFacialBlinkRate, MetricFacialEyeClosureDuration, MetricFacialExpression},
}

// metricModality maps every recognized key to its modality.
var metricModality = func() map[string]Modality {
	m := make(map[string]Modality, FeatureCount)
	for _, key := range featureOrder {
		switch {
		case len(key) > len("typing.") && key[:len("typing.")] == "typing.":
			m[key] = ModalityTyping
		case len(key) > len("mouse.") && key[:len("mouse.")] == "mouse.":
			m[key] = ModalityMouse
		default:
			m[key] = ModalityFacial
		}
	}
	return m
}()

// Modalities returns the three modalities in result order.
func Modalities() []Modality {
	return []Modality{ModalityTyping, ModalityMouse, ModalityFacial}
}

// FeatureOrder returns the canonical feature-vector order as a copy.
func FeatureOrder() []string {
	out := make([]string, len(featureOrder))
	copy(out, featureOrder)
	return out
}

// PrimaryMetrics returns the scored metric keys for a modality.
func PrimaryMetrics(m Modality) []string {
	keys, ok := primaryMetrics[m]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsRecognized reports whether key names one of the 14 recognized metrics.
func IsRecognized(key string) bool {
	_, ok := metricModality[key]
	return ok
}

// MetricModality returns the modality owning key, if recognized.
func MetricModality(key string) (Modality, bool) {
	m, ok := metricModality[key]
	return m, ok
}
