package model

import (
	"fmt"
	"math"
	"strings"
)

// FeatureRecord maps metric keys to raw values for a single scoring call.
// Absent keys mean the metric was not collected. Unrecognized keys are
// carried but ignored by every stage. Callers must not mutate a record
// while a scoring call is in flight.
type FeatureRecord map[string]float64

// NormalizedRecord holds direction-consistent values in [0,1] where 1.0 is
// most fatigue-indicative. Produced by the normalizer, consumed by scorers.
type NormalizedRecord map[string]float64

// Validate rejects malformed values (NaN or infinity) on recognized keys.
// Out-of-range finite values are legal; downstream stages clamp them.
func (r FeatureRecord) Validate() error {
	for key, v := range r {
		if !IsRecognized(key) {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrMalformedMetric, key)
		}
	}
	return nil
}

// Has reports whether key carries a value in this record.
func (r FeatureRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// PresentPrimary counts how many of a modality's scored metrics are present.
func (r FeatureRecord) PresentPrimary(m Modality) int {
	n := 0
	for _, key := range primaryMetrics[m] {
		if _, ok := r[key]; ok {
			n++
		}
	}
	return n
}

// Complete reports whether all 14 recognized metrics are present, the
// precondition for the trained model path.
func (r FeatureRecord) Complete() bool {
	for _, key := range featureOrder {
		if _, ok := r[key]; !ok {
			return false
		}
	}
	return true
}

// Expression is a categorical facial state label supplied by the collection
// layer.
type Expression string

// Recognized expression labels.
const (
	ExpressionFocused    Expression = "focused"
	ExpressionNeutral    Expression = "neutral"
	ExpressionDistracted Expression = "distracted"
	ExpressionTired      Expression = "tired"
)

// expressionCodes maps labels to fatigue-contribution codes in [0,1].
var expressionCodes = map[Expression]float64{
	ExpressionFocused:    0.10,
	ExpressionNeutral:    0.30,
	ExpressionDistracted: 0.60,
	ExpressionTired:      0.90,
}

// EncodeExpression translates a label into the numeric code stored under
// facial.expression. Labels are matched case-insensitively.
func EncodeExpression(label string) (float64, error) {
	code, ok := expressionCodes[Expression(strings.ToLower(strings.TrimSpace(label)))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownExpression, label)
	}
	return code, nil
}

// Sample is one scoring request flowing through the async pipeline: a
// sample ID plus the metrics captured for it.
type Sample struct {
	ID     string        `json:"id"`
	Record FeatureRecord `json:"record"`
}
