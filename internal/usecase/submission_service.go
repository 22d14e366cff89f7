package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Submission is one scan of a product. Image paths refer to the image store.
type Submission struct {
	Barcode                 string
	Name                    string
	Source                  string
	ProductImagePath        string
	IngredientsImagePath    string
	NutritionLabelImagePath string
	IngredientsText         string
}

func (s Submission) hasImages() bool {
	return s.ProductImagePath != "" || s.IngredientsImagePath != "" || s.NutritionLabelImagePath != ""
}

// SubmissionService turns a submission into a persisted product record
type SubmissionService struct {
	barcodes    *BarcodeService
	products    *ProductAnalyzer
	ingredients *IngredientAnalysisOrchestrator
	store       *ProductStore
}

// NewSubmissionService creates a new submission service with dependencies
func NewSubmissionService(
	barcodes *BarcodeService,
	products *ProductAnalyzer,
	ingredients *IngredientAnalysisOrchestrator,
	store *ProductStore,
) *SubmissionService {
	return &SubmissionService{
		barcodes:    barcodes,
		products:    products,
		ingredients: ingredients,
		store:       store,
	}
}

// Submit looks up catalog metadata, runs the product and ingredient analyses
// concurrently and upserts the merged result. Nothing is written once ctx is
// done.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission) (*domain.ProductRecord, error) {
	barcode := strings.TrimSpace(sub.Barcode)
	if barcode == "" && !sub.hasImages() && strings.TrimSpace(sub.IngredientsText) == "" {
		return nil, fmt.Errorf("%w: a barcode, an image or ingredient text is required", domain.ErrInvalidRequest)
	}

	ingredientInput := IngredientInput{ImagePath: sub.IngredientsImagePath, Text: sub.IngredientsText}

	entry, err := s.lookup(ctx, barcode, sub.ProductImagePath != "", ingredientInput.HasInput())
	if err != nil {
		return nil, err
	}

	if !ingredientInput.HasInput() && entry != nil {
		ingredientInput.Text = entry.IngredientsText
	}

	var productData map[string]any
	if entry != nil {
		productData = entry.Raw
		if productData == nil {
			productData = map[string]any{"product_name": entry.Name, "nutriments": entry.Nutriments}
		}
	}

	var (
		analysis *domain.Analysis
		verdict  *domain.Verdict
	)
	g, gctx := errgroup.WithContext(ctx)
	if sub.ProductImagePath != "" {
		g.Go(func() error {
			result := s.products.Analyze(gctx, sub.ProductImagePath, productData)
			analysis = &result
			return nil
		})
	}
	if ingredientInput.HasInput() {
		g.Go(func() error {
			result := s.ingredients.Analyze(gctx, ingredientInput)
			verdict = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		log.Printf("[SUBMIT] Submission for %q abandoned before write: %v", barcode, err)
		return nil, err
	}

	fields := ProductFields{
		Analysis:    analysis,
		ProductData: productData,
	}
	if name := submissionName(sub, entry); name != "" {
		fields.Name = &name
	}
	if sub.hasImages() {
		fields.ImagePaths = &domain.ImagePaths{
			Product:        sub.ProductImagePath,
			Ingredients:    sub.IngredientsImagePath,
			NutritionLabel: sub.NutritionLabelImagePath,
		}
	}
	if verdict != nil {
		fields.Ingredients = verdict.Ingredients
		fields.IngredientAnalysis = &verdict.IngredientAnalysis
		if analysis == nil {
			fields.SeedAnalysis = &verdict.Analysis
		}
	}

	return s.store.Upsert(ctx, barcode, fields, UpsertOptions{Source: submissionSource(sub)})
}

// lookup fetches catalog metadata. A catalog miss is an error when a product
// photo must be analyzed against the entry or when the entry is all there is
// to store. A catalog outage is only tolerated when there is something else
// to analyze.
func (s *SubmissionService) lookup(ctx context.Context, barcode string, needsProduct, hasIngredients bool) (*domain.CatalogEntry, error) {
	if barcode == "" {
		return nil, nil
	}

	entry, err := s.barcodes.LookupProduct(ctx, barcode)
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, domain.ErrBadBarcodeFormat):
		return nil, err
	case errors.Is(err, domain.ErrProductNotFound):
		if needsProduct || !hasIngredients {
			return nil, err
		}
		return nil, nil
	case !needsProduct && !hasIngredients:
		return nil, err
	default:
		log.Printf("[SUBMIT] Catalog unavailable for %s, continuing without metadata: %v", barcode, err)
		return nil, nil
	}
}

func submissionName(sub Submission, entry *domain.CatalogEntry) string {
	if name := strings.TrimSpace(sub.Name); name != "" {
		return name
	}
	if entry != nil {
		return entry.Name
	}
	return ""
}

func submissionSource(sub Submission) string {
	if sub.Source == domain.SourceManual || sub.Source == domain.SourceOCR {
		return sub.Source
	}
	if !sub.hasImages() {
		return domain.SourceManual
	}
	return domain.SourceOCR
}
