package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// Text used for verdicts that were not produced by the reasoning service
const (
	NoIngredientsSafety   = "No ingredients information available for analysis"
	NoIngredientsAnalysis = "No ingredient image or ingredient text was provided, so no ingredients could be analyzed"
	IncompleteSafety      = "Unable to perform full analysis on ingredients; the analysis was incomplete"
)

// Fallback stages reported to Metrics
const (
	StageOCR       = "ocr"
	StageReasoning = "reasoning"
	StageProduct   = "product"
)

// IngredientInput is an ingredient list to analyze, either as a photo or as
// typed text. The photo wins when both are supplied.
type IngredientInput struct {
	ImagePath string
	Text      string
}

// HasInput reports whether there is anything to analyze
func (in IngredientInput) HasInput() bool {
	return in.ImagePath != "" || strings.TrimSpace(in.Text) != ""
}

// IngredientAnalysisConfig holds configuration for the orchestrator
type IngredientAnalysisConfig struct {
	// StripOCRPreamble is set when the OCR provider is itself a reasoning
	// model whose output may start with commentary.
	StripOCRPreamble   bool
	EnableDebugLogging bool
}

// IngredientAnalysisOrchestrator produces a complete ingredient verdict for
// any input. Upstream failures are converted into a conservative fallback
// verdict and never returned to the caller.
type IngredientAnalysisOrchestrator struct {
	ocr              domain.OCRProvider
	reasoning        domain.ReasoningClient
	normalizer       *TextNormalizer
	metrics          Metrics
	stripOCRPreamble bool
}

// NewIngredientAnalysisOrchestrator creates a new orchestrator with dependencies
func NewIngredientAnalysisOrchestrator(
	ocr domain.OCRProvider,
	reasoning domain.ReasoningClient,
	metrics Metrics,
	config IngredientAnalysisConfig,
) *IngredientAnalysisOrchestrator {
	return &IngredientAnalysisOrchestrator{
		ocr:              ocr,
		reasoning:        reasoning,
		normalizer:       NewTextNormalizer(config.EnableDebugLogging),
		metrics:          metricsOrNoop(metrics),
		stripOCRPreamble: config.StripOCRPreamble,
	}
}

// Analyze runs OCR -> normalization -> reasoning -> defaulting.
// The returned verdict is always complete.
func (o *IngredientAnalysisOrchestrator) Analyze(ctx context.Context, in IngredientInput) domain.Verdict {
	opts := NormalizeOptions{}
	text := in.Text

	if in.ImagePath != "" {
		recognized, err := o.ocr.Recognize(ctx, in.ImagePath)
		if err != nil {
			log.Printf("[ORCH] OCR via %s failed for %q: %v", o.ocr.Name(), in.ImagePath, err)
			o.metrics.FallbackUsed(StageOCR)
			return Defaultify(fallbackFields(o.normalizer.Normalize(in.Text, opts), err))
		}
		text = recognized
		opts.StripPreamble = o.stripOCRPreamble
	}

	normalized := o.normalizer.Normalize(text, opts)
	if normalized.Text == "" || len(normalized.Tokens) == 0 {
		return Defaultify(noIngredientsFields())
	}

	raw, err := o.reasoning.AnalyzeIngredients(ctx, domain.IngredientPrompt{
		Text:   normalized.Text,
		Tokens: normalized.Tokens,
	})
	if err != nil {
		log.Printf("[ORCH] Reasoning failed, using fallback verdict: %v", err)
		o.metrics.FallbackUsed(StageReasoning)
		return Defaultify(fallbackFields(normalized, err))
	}

	return Defaultify(o.completeFields(raw, normalized))
}

// completeFields fills extractedText and ingredients from the normalized input
// when the reasoning service left them out.
func (o *IngredientAnalysisOrchestrator) completeFields(raw map[string]any, normalized Normalized) map[string]any {
	fields := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		fields[k] = v
	}

	preamble := NormalizeOptions{StripPreamble: true}
	extracted, _ := fields["extractedText"].(string)
	extracted = o.normalizer.Clean(extracted, preamble)
	if extracted == "" {
		extracted = normalized.Text
	}
	fields["extractedText"] = extracted

	if len(stringList(fields["ingredients"])) == 0 {
		tokens := o.normalizer.Tokenize(extracted, preamble)
		if len(tokens) == 0 {
			tokens = normalized.Tokens
		}
		fields["ingredients"] = tokens
	}

	return fields
}

func noIngredientsFields() map[string]any {
	return map[string]any{
		"extractedText":         "",
		"ingredients":           []string{},
		"safetyScore":           NeutralScore,
		"harmfulIngredients":    []any{},
		"safeIngredients":       []string{},
		"unknownIngredients":    []string{},
		"overallSafety":         NoIngredientsSafety,
		"detailedAnalysis":      NoIngredientsAnalysis,
		"nutritionScore":        NeutralScore,
		"sustainabilityScore":   NeutralScore,
		"processingLevel":       domain.ProcessingDefault,
		"nutritionEvaluation":   DefaultNutritionEvaluation,
		"overallRecommendation": DefaultOverallRecommendation,
	}
}

// fallbackFields builds the conservative verdict used when OCR or reasoning
// failed: every known token is listed as safe and all scores are neutral.
func fallbackFields(normalized Normalized, cause error) map[string]any {
	return map[string]any{
		"extractedText":       normalized.Text,
		"ingredients":         normalized.Tokens,
		"safetyScore":         NeutralScore,
		"harmfulIngredients":  []any{},
		"safeIngredients":     normalized.Tokens,
		"unknownIngredients":  []string{},
		"overallSafety":       IncompleteSafety,
		"nutritionScore":      NeutralScore,
		"sustainabilityScore": NeutralScore,
		"processingLevel":     domain.ProcessingDefault,
		"detailedAnalysis": fmt.Sprintf("Could not complete analysis due to: %v. The product contains: %s",
			cause, strings.Join(normalized.Tokens, ", ")),
		"nutritionEvaluation":   fmt.Sprintf("Unable to evaluate nutrition. Reason: %v", cause),
		"overallRecommendation": fmt.Sprintf("Analysis could not be completed. Reason: %v", cause),
	}
}
