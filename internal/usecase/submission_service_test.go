package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type submissionFixture struct {
	ocr       *MockOCRProvider
	reasoning *MockReasoningClient
	catalog   *MockProductCatalog
	repo      *MemoryProductRepository
	metrics   *MockMetrics
	service   *SubmissionService
	store     *ProductStore
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		ocr:       NewMockOCRProvider(),
		reasoning: &MockReasoningClient{},
		catalog:   NewMockProductCatalog(),
		repo:      NewMemoryProductRepository(),
		metrics:   NewMockMetrics(),
	}
	f.store = NewProductStore(f.repo, f.metrics)
	f.store.now = steppingClock()
	f.service = NewSubmissionService(
		NewBarcodeService(f.ocr, f.catalog, NewMockCacheRepository(), BarcodeServiceConfig{}),
		NewProductAnalyzer(f.reasoning, f.metrics),
		NewIngredientAnalysisOrchestrator(f.ocr, f.reasoning, f.metrics, IngredientAnalysisConfig{}),
		f.store,
	)
	f.catalog.products["3017620422003"] = &domain.CatalogResponse{
		Status: 1,
		Product: &domain.CatalogProduct{
			ProductName:     "Hazelnut Spread",
			IngredientsText: "Sugar, Palm Oil, Hazelnuts 13%",
		},
		RawProduct: map[string]any{"product_name": "Hazelnut Spread", "brands": "Acme"},
	}
	return f
}

func TestSubmit_FullSubmission(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newSubmissionFixture()
	f.ocr.text["back.jpg"] = "Sugar, Palm Oil"
	f.reasoning.productResult = map[string]any{"nutritionScore": 20.0, "allergens": []any{"hazelnut"}}
	f.reasoning.ingredientResult = map[string]any{"safetyScore": 35.0, "nutritionScore": 90.0}

	record, err := f.service.Submit(context.Background(), Submission{
		Barcode:              "3017620422003",
		ProductImagePath:     "front.jpg",
		IngredientsImagePath: "back.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, "3017620422003", record.Barcode)
	assert.Equal(t, "Hazelnut Spread", record.Name)
	assert.Equal(t, domain.ImagePaths{Product: "front.jpg", Ingredients: "back.jpg"}, record.ImagePaths)
	assert.Equal(t, domain.ImagePaths{Product: "hazelnut_spread", Ingredients: "hazelnut_spread"}, record.FormattedImageNames)
	assert.Equal(t, 20.0, record.Analysis.NutritionScore)
	assert.Equal(t, []string{"hazelnut"}, record.Analysis.Allergens)
	require.NotNil(t, record.IngredientAnalysis)
	assert.Equal(t, 35.0, record.IngredientAnalysis.SafetyScore)
	assert.Equal(t, []string{"Sugar", "Palm Oil"}, record.Ingredients)
	assert.Equal(t, "Acme", record.ProductData["brands"])
	assert.Equal(t, "front.jpg", f.reasoning.lastProduct.ImagePath)
	assert.Equal(t, "Acme", f.reasoning.lastProduct.ProductData["brands"])
}

func TestSubmit_RunsAnalysesConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newSubmissionFixture()
	f.ocr.text["back.jpg"] = "Sugar"
	f.reasoning.productResult = map[string]any{"nutritionScore": 20.0}
	f.reasoning.ingredientResult = map[string]any{"safetyScore": 35.0}

	productStarted := make(chan struct{})
	ingredientsStarted := make(chan struct{})
	waitFor := func(ch <-chan struct{}) error {
		select {
		case <-ch:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("analyses did not overlap")
		}
	}
	f.reasoning.onAnalyzeProduct = func(ctx context.Context) error {
		close(productStarted)
		return waitFor(ingredientsStarted)
	}
	f.reasoning.onAnalyzeIngredients = func(ctx context.Context) error {
		close(ingredientsStarted)
		return waitFor(productStarted)
	}

	record, err := f.service.Submit(context.Background(), Submission{
		Barcode:              "3017620422003",
		ProductImagePath:     "front.jpg",
		IngredientsImagePath: "back.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, 20.0, record.Analysis.NutritionScore)
	assert.Equal(t, 35.0, record.IngredientAnalysis.SafetyScore)
	assert.Empty(t, f.metrics.fallbacks)
}

func TestSubmit_IngredientsOnlyLeavesProductImage(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	f.reasoning.productResult = map[string]any{"nutritionScore": 20.0}
	f.reasoning.ingredientResult = map[string]any{"safetyScore": 64.0, "nutritionScore": 99.0}

	first, err := f.service.Submit(ctx, Submission{Barcode: "3017620422003", ProductImagePath: "front.jpg"})
	require.NoError(t, err)

	f.ocr.text["back.jpg"] = "Sugar, Palm Oil"
	second, err := f.service.Submit(ctx, Submission{Barcode: "3017620422003", IngredientsImagePath: "back.jpg"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "front.jpg", second.ImagePaths.Product)
	assert.Equal(t, "back.jpg", second.ImagePaths.Ingredients)
	assert.Equal(t, 20.0, second.Analysis.NutritionScore)
	assert.Equal(t, 64.0, second.IngredientAnalysis.SafetyScore)
	assert.Equal(t, 1, f.repo.count())
}

func TestSubmit_CatalogIngredientsUsedWithoutInput(t *testing.T) {
	f := newSubmissionFixture()
	f.reasoning.ingredientResult = map[string]any{"safetyScore": 41.0}

	record, err := f.service.Submit(context.Background(), Submission{Barcode: "3017620422003"})

	require.NoError(t, err)
	assert.Equal(t, "Sugar, Palm Oil, Hazelnuts 13%", f.reasoning.lastIngredients.Text)
	assert.Equal(t, []string{"Sugar", "Palm Oil", "Hazelnuts"}, record.Ingredients)
	assert.Equal(t, 41.0, record.IngredientAnalysis.SafetyScore)
	assert.Equal(t, 1, f.reasoning.ingredientCalls)
	assert.Equal(t, 0, f.reasoning.productCalls)
}

func TestSubmit_CatalogMiss(t *testing.T) {
	t.Run("fails when a product photo needs analysis", func(t *testing.T) {
		f := newSubmissionFixture()

		_, err := f.service.Submit(context.Background(), Submission{Barcode: "999", ProductImagePath: "front.jpg"})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Equal(t, 0, f.repo.count())
	})

	t.Run("fails when the barcode is all there is", func(t *testing.T) {
		f := newSubmissionFixture()

		_, err := f.service.Submit(context.Background(), Submission{Barcode: "999"})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Equal(t, 0, f.repo.count())
	})

	t.Run("outage fails a bare barcode", func(t *testing.T) {
		f := newSubmissionFixture()
		f.catalog.err = errors.New("connection refused")

		_, err := f.service.Submit(context.Background(), Submission{Barcode: "3017620422003"})

		assert.Error(t, err)
		assert.Equal(t, 0, f.repo.count())
	})

	t.Run("only means no metadata otherwise", func(t *testing.T) {
		f := newSubmissionFixture()

		record, err := f.service.Submit(context.Background(), Submission{
			Barcode:         "999",
			Name:            "Local Bread",
			IngredientsText: "Flour, Water, Salt",
		})

		require.NoError(t, err)
		assert.Equal(t, "999", record.Barcode)
		assert.Equal(t, "Local Bread", record.Name)
		assert.Equal(t, []string{"Flour", "Water", "Salt"}, record.Ingredients)
		assert.Nil(t, record.ProductData)
	})
}

func TestSubmit_BadBarcode(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.service.Submit(context.Background(), Submission{Barcode: "12AB", IngredientsText: "Salt"})

	assert.ErrorIs(t, err, domain.ErrBadBarcodeFormat)
	assert.Equal(t, 0, f.repo.count())
}

func TestSubmit_SyntheticBarcodeSource(t *testing.T) {
	tests := []struct {
		name       string
		submission Submission
		wantPrefix string
	}{
		{
			name:       "typed text only",
			submission: Submission{Name: "Soup", IngredientsText: "Water, Carrot"},
			wantPrefix: domain.SourceManual + "_",
		},
		{
			name:       "ingredient photo",
			submission: Submission{Name: "Soup", IngredientsImagePath: "back.jpg"},
			wantPrefix: domain.SourceOCR + "_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture()
			f.ocr.text["back.jpg"] = "Water, Carrot"

			record, err := f.service.Submit(context.Background(), tt.submission)

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(record.Barcode, tt.wantPrefix), "barcode %q", record.Barcode)
		})
	}
}

func TestSubmit_SeedsAnalysisFromIngredients(t *testing.T) {
	f := newSubmissionFixture()
	f.reasoning.ingredientResult = map[string]any{"nutritionScore": 77.0, "processingLevel": "minimally processed"}

	record, err := f.service.Submit(context.Background(), Submission{IngredientsText: "Oats"})

	require.NoError(t, err)
	assert.Equal(t, 77.0, record.Analysis.NutritionScore)
	assert.Equal(t, domain.ProcessingMinimal, record.Analysis.ProcessingLevel)
}

func TestSubmit_CancelledBeforeWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newSubmissionFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.reasoning.onAnalyzeIngredients = func(callCtx context.Context) error {
		cancel()
		<-callCtx.Done()
		return callCtx.Err()
	}

	record, err := f.service.Submit(ctx, Submission{IngredientsText: "Water, Sugar"})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.repo.count())
}

func TestSubmit_EmptySubmission(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.service.Submit(context.Background(), Submission{Name: "Nothing"})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
