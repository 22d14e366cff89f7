package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBarcodeService(t *testing.T) {
	service := NewBarcodeService(NewMockOCRProvider(), NewMockProductCatalog(), NewMockCacheRepository(), BarcodeServiceConfig{})

	if service.cacheTTL == 0 {
		t.Error("expected default cache TTL to be set")
	}
}

func TestValidateBarcode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain digits", input: "5449000000996", want: "5449000000996"},
		{name: "surrounding whitespace", input: " 0123456789012 \n", want: "0123456789012"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "  \t", wantErr: true},
		{name: "inner space", input: "12 34", wantErr: true},
		{name: "model commentary", input: "The barcode is 123", wantErr: true},
		{name: "full-width digits", input: "１２３", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBarcode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrBadBarcodeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBarcode(t *testing.T) {
	t.Run("returns trimmed digits", func(t *testing.T) {
		ocr := NewMockOCRProvider()
		ocr.text["code.jpg"] = "5449000000996\n"
		service := NewBarcodeService(ocr, NewMockProductCatalog(), NewMockCacheRepository(), BarcodeServiceConfig{})

		barcode, err := service.ExtractBarcode(context.Background(), "code.jpg")

		require.NoError(t, err)
		assert.Equal(t, "5449000000996", barcode)
	})

	t.Run("rejects non-numeric text", func(t *testing.T) {
		ocr := NewMockOCRProvider()
		ocr.text["code.jpg"] = "No barcode found"
		service := NewBarcodeService(ocr, NewMockProductCatalog(), NewMockCacheRepository(), BarcodeServiceConfig{})

		_, err := service.ExtractBarcode(context.Background(), "code.jpg")

		assert.ErrorIs(t, err, domain.ErrBadBarcodeFormat)
	})

	t.Run("passes provider errors through", func(t *testing.T) {
		ocr := NewMockOCRProvider()
		ocr.err = fmt.Errorf("%w: deadline", domain.ErrProviderTimeout)
		service := NewBarcodeService(ocr, NewMockProductCatalog(), NewMockCacheRepository(), BarcodeServiceConfig{})

		_, err := service.ExtractBarcode(context.Background(), "code.jpg")

		assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	})
}

func TestLookupProduct(t *testing.T) {
	catalogWithList := func() *MockProductCatalog {
		catalog := NewMockProductCatalog()
		catalog.products["3017620422003"] = &domain.CatalogResponse{
			Status: 1,
			Product: &domain.CatalogProduct{
				ProductName: "Hazelnut Spread",
				Ingredients: []domain.CatalogIngredient{
					{Text: "Sugar"},
					{ID: "en:palm-oil"},
				},
			},
		}
		return catalog
	}

	t.Run("normalizes structured ingredients and caches", func(t *testing.T) {
		catalog := catalogWithList()
		cache := NewMockCacheRepository()
		service := NewBarcodeService(NewMockOCRProvider(), catalog, cache, BarcodeServiceConfig{})

		entry, err := service.LookupProduct(context.Background(), "3017620422003")
		require.NoError(t, err)
		assert.Equal(t, "Hazelnut Spread", entry.Name)
		assert.Equal(t, "Sugar, palm oil", entry.IngredientsText)
		assert.True(t, cache.setCalled)

		again, err := service.LookupProduct(context.Background(), "3017620422003")
		require.NoError(t, err)
		assert.Equal(t, entry, again)
		assert.Equal(t, 1, catalog.calls)
	})

	t.Run("catalog miss", func(t *testing.T) {
		cache := NewMockCacheRepository()
		service := NewBarcodeService(NewMockOCRProvider(), catalogWithList(), cache, BarcodeServiceConfig{})

		_, err := service.LookupProduct(context.Background(), "000")

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.False(t, cache.setCalled)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		catalog := NewMockProductCatalog()
		catalog.err = fmt.Errorf("%w: status 502", domain.ErrProviderUnavailable)
		service := NewBarcodeService(NewMockOCRProvider(), catalog, NewMockCacheRepository(), BarcodeServiceConfig{})

		_, err := service.LookupProduct(context.Background(), "123")

		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("invalid barcode never reaches the catalog", func(t *testing.T) {
		catalog := catalogWithList()
		service := NewBarcodeService(NewMockOCRProvider(), catalog, NewMockCacheRepository(), BarcodeServiceConfig{})

		_, err := service.LookupProduct(context.Background(), "abc")

		assert.ErrorIs(t, err, domain.ErrBadBarcodeFormat)
		assert.Equal(t, 0, catalog.calls)
	})

	t.Run("evicts an unreadable cached value", func(t *testing.T) {
		catalog := NewMockProductCatalog()
		catalog.err = fmt.Errorf("%w: status 502", domain.ErrProviderUnavailable)
		cache := NewMockCacheRepository()
		cache.data["catalog:123"] = "not an entry"
		service := NewBarcodeService(NewMockOCRProvider(), catalog, cache, BarcodeServiceConfig{})

		_, err := service.LookupProduct(context.Background(), "123")

		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
		assert.Equal(t, []string{"catalog:123"}, cache.deleted)
		assert.NotContains(t, cache.data, "catalog:123")
	})

	t.Run("replaces an unreadable cached value", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data["catalog:3017620422003"] = (*domain.CatalogEntry)(nil)
		service := NewBarcodeService(NewMockOCRProvider(), catalogWithList(), cache, BarcodeServiceConfig{})

		entry, err := service.LookupProduct(context.Background(), "3017620422003")

		require.NoError(t, err)
		assert.Equal(t, []string{"catalog:3017620422003"}, cache.deleted)
		assert.Equal(t, entry, cache.data["catalog:3017620422003"])
	})

	t.Run("cache errors do not fail the lookup", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = errors.New("cache down")
		cache.setError = errors.New("cache down")
		service := NewBarcodeService(NewMockOCRProvider(), catalogWithList(), cache, BarcodeServiceConfig{})

		entry, err := service.LookupProduct(context.Background(), "3017620422003")

		require.NoError(t, err)
		assert.Equal(t, "Hazelnut Spread", entry.Name)
	})
}
