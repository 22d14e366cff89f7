package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// NeutralScore is used for every score that is missing or invalid
const NeutralScore = 50.0

// Canned defaults for verdict text fields
const (
	DefaultNutritionEvaluation   = "No detailed evaluation available"
	DefaultOverallRecommendation = "No specific recommendation available"
	DefaultOverallSafety         = "No safety analysis available"
	DefaultDetailedAnalysis      = "No detailed analysis available"
	DefaultSeverity              = "unknown"
)

// Defaultify turns any decoded analysis document, including nil or an empty
// map, into a complete verdict: scores are finite and within [0,100], lists
// are lists, and text fields are non-empty. It is the only place defaulting
// rules live.
func Defaultify(raw map[string]any) domain.Verdict {
	return domain.Verdict{
		Ingredients: stringList(raw["ingredients"]),
		IngredientAnalysis: domain.IngredientAnalysis{
			ExtractedText:      optionalText(raw["extractedText"]),
			SafetyScore:        score(raw["safetyScore"]),
			HarmfulIngredients: harmfulList(raw["harmfulIngredients"]),
			SafeIngredients:    stringList(raw["safeIngredients"]),
			UnknownIngredients: stringList(raw["unknownIngredients"]),
			OverallSafety:      text(raw["overallSafety"], DefaultOverallSafety),
			DetailedAnalysis:   text(raw["detailedAnalysis"], DefaultDetailedAnalysis),
		},
		Analysis: domain.Analysis{
			NutritionScore:        score(raw["nutritionScore"]),
			NutritionEvaluation:   text(raw["nutritionEvaluation"], DefaultNutritionEvaluation),
			Allergens:             stringList(raw["allergens"]),
			Additives:             stringList(raw["additives"]),
			SustainabilityScore:   score(raw["sustainabilityScore"]),
			ProcessingLevel:       processingLevel(raw["processingLevel"]),
			OverallRecommendation: text(raw["overallRecommendation"], DefaultOverallRecommendation),
		},
	}
}

// DefaultifyAnalysis applies Defaultify to a product-level analysis
func DefaultifyAnalysis(a domain.Analysis) domain.Analysis {
	return Defaultify(a.Fields()).Analysis
}

// DefaultifyIngredientAnalysis applies Defaultify to an ingredient analysis
func DefaultifyIngredientAnalysis(a domain.IngredientAnalysis) domain.IngredientAnalysis {
	return Defaultify(a.Fields()).IngredientAnalysis
}

func score(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return NeutralScore
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return NeutralScore
		}
		f = parsed
	default:
		return NeutralScore
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 100 {
		return NeutralScore
	}
	return f
}

// stringList keeps the non-empty strings of a list. Anything that is not a
// list becomes an empty list; a stray scalar is discarded.
func stringList(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range items {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func harmfulList(v any) []domain.HarmfulIngredient {
	out := []domain.HarmfulIngredient{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		switch x := item.(type) {
		case string:
			if name := strings.TrimSpace(x); name != "" {
				out = append(out, domain.HarmfulIngredient{Name: name, Severity: DefaultSeverity})
			}
		case map[string]any:
			name := optionalText(x["name"])
			if name == "" {
				continue
			}
			out = append(out, domain.HarmfulIngredient{
				Name:     name,
				Reason:   optionalText(x["reason"]),
				Severity: text(x["severity"], DefaultSeverity),
			})
		}
	}
	return out
}

func text(v any, fallback string) string {
	if s := optionalText(v); s != "" {
		return s
	}
	return fallback
}

func optionalText(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func processingLevel(v any) string {
	level := strings.ToLower(optionalText(v))
	for _, valid := range domain.ProcessingLevels {
		if level == valid {
			return valid
		}
	}
	return domain.ProcessingDefault
}
