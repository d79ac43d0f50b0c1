// Package recommend turns a fatigue result into an ordered list of
// actionable suggestions.
package recommend

import "github.com/okian/lucid/internal/domain/model"

// targetedSuggestions maps a dominant modality to the remedy for it.
var targetedSuggestions = map[model.Modality]string{
	model.ModalityTyping: "Stretch your hands and fingers",
	model.ModalityMouse:  "Take a short walk to improve circulation",
	model.ModalityFacial: "Practice the 20-20-20 rule",
}

// Generator produces suggestion lists. Stateless; the same result always
// yields the same list.
type Generator struct{}

// New creates a Generator.
func New() *Generator {
	return &Generator{}
}

// Recommend returns suggestions for the result, most urgent first. When one
// modality dominates, its targeted remedy leads the list at high priority;
// the rest follow from the fatigue level.
func (g *Generator) Recommend(res model.FatigueResult) []model.Recommendation {
	out := make([]model.Recommendation, 0, 4)
	if text, ok := targetedSuggestions[res.DominantModality]; ok {
		out = append(out, model.Recommendation{Text: text, Priority: model.PriorityHigh})
	}
	return append(out, baseForLevel(res.Level)...)
}

func baseForLevel(level model.Level) []model.Recommendation {
	switch level {
	case model.LevelHigh:
		return []model.Recommendation{
			{Text: "Take a short break (15-20 minutes)", Priority: model.PriorityHigh},
			{Text: "Consider taking a power nap", Priority: model.PriorityHigh},
			{Text: "Stay hydrated and have a light snack", Priority: model.PriorityMedium},
		}
	case model.LevelModerate:
		return []model.Recommendation{
			{Text: "Take a 10-minute break and step away from your screen", Priority: model.PriorityMedium},
			{Text: "Do some light stretching to improve circulation", Priority: model.PriorityMedium},
			{Text: "Hydrate and have a nutritious snack like nuts or fruit", Priority: model.PriorityLow},
		}
	default:
		return []model.Recommendation{
			{Text: "Keep up your current pace", Priority: model.PriorityLow},
			{Text: "Drink a glass of water and have a small healthy snack", Priority: model.PriorityLow},
		}
	}
}
