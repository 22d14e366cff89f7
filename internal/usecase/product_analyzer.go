package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/nutriscan/backend/internal/domain"
)

// ProductAnalyzer scores a whole-product photo together with catalog metadata
type ProductAnalyzer struct {
	reasoning domain.ReasoningClient
	metrics   Metrics
}

// NewProductAnalyzer creates a new product analyzer
func NewProductAnalyzer(reasoning domain.ReasoningClient, metrics Metrics) *ProductAnalyzer {
	return &ProductAnalyzer{
		reasoning: reasoning,
		metrics:   metricsOrNoop(metrics),
	}
}

// Analyze never fails: a reasoning failure yields a neutral analysis that
// carries the failure reason.
func (a *ProductAnalyzer) Analyze(ctx context.Context, imagePath string, productData map[string]any) domain.Analysis {
	raw, err := a.reasoning.AnalyzeProduct(ctx, domain.ProductPrompt{
		ImagePath:   imagePath,
		ProductData: productData,
	})
	if err != nil {
		log.Printf("[PRODUCT] Analysis of %q failed, using default analysis: %v", imagePath, err)
		a.metrics.FallbackUsed(StageProduct)
		raw = map[string]any{
			"nutritionEvaluation":   fmt.Sprintf("Unable to evaluate nutrition. Reason: %v", err),
			"overallRecommendation": fmt.Sprintf("Analysis could not be completed. Reason: %v", err),
		}
	}
	return Defaultify(raw).Analysis
}
