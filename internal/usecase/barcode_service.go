package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/openfoodfacts"
)

// BarcodeServiceConfig holds configuration for the barcode service
type BarcodeServiceConfig struct {
	CacheTTL time.Duration
}

// BarcodeService reads barcodes from photos and resolves them in the catalog
type BarcodeService struct {
	ocr      domain.OCRProvider
	catalog  domain.ProductCatalog
	cache    domain.CacheRepository
	cacheTTL time.Duration
}

// NewBarcodeService creates a new barcode service with dependencies
func NewBarcodeService(
	ocr domain.OCRProvider,
	catalog domain.ProductCatalog,
	cache domain.CacheRepository,
	config BarcodeServiceConfig,
) *BarcodeService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &BarcodeService{
		ocr:      ocr,
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ExtractBarcode recognizes the barcode digits in an image. Recognized text
// that is empty or not purely numeric is rejected with ErrBadBarcodeFormat.
func (s *BarcodeService) ExtractBarcode(ctx context.Context, imagePath string) (string, error) {
	text, err := s.ocr.Recognize(ctx, imagePath)
	if err != nil {
		return "", err
	}

	barcode, err := ValidateBarcode(text)
	if err != nil {
		log.Printf("[BARCODE] Rejected recognized text %q from %s", text, imagePath)
		return "", err
	}
	return barcode, nil
}

// ValidateBarcode trims text and checks that only digits remain
func ValidateBarcode(text string) (string, error) {
	barcode := strings.TrimSpace(text)
	if barcode == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrBadBarcodeFormat)
	}
	for _, r := range barcode {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", domain.ErrBadBarcodeFormat, barcode)
		}
	}
	return barcode, nil
}

// LookupProduct resolves a barcode in the catalog.
// Flow: check cache -> fetch catalog -> normalize ingredients -> cache -> return
func (s *BarcodeService) LookupProduct(ctx context.Context, barcode string) (*domain.CatalogEntry, error) {
	barcode, err := ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	cacheKey := generateCatalogCacheKey(barcode)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	resp, err := s.catalog.GetProduct(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog lookup for %s failed: %w", barcode, err)
	}
	if resp == nil || resp.Product == nil {
		return nil, domain.ErrProductNotFound
	}

	entry := openfoodfacts.MapToCatalogEntry(barcode, resp)

	if err := s.cache.Set(ctx, cacheKey, entry, s.cacheTTL); err != nil {
		log.Printf("[BARCODE] Failed to cache catalog entry for %s: %v", barcode, err)
	}

	return entry, nil
}

// generateCatalogCacheKey returns "catalog:{barcode}"
func generateCatalogCacheKey(barcode string) string {
	return fmt.Sprintf("catalog:%s", barcode)
}

func (s *BarcodeService) getFromCache(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	entry, ok := value.(*domain.CatalogEntry)
	if !ok || entry == nil {
		log.Printf("[BARCODE] Evicting unreadable cache entry %s (%T)", key, value)
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[BARCODE] Failed to evict %s: %v", key, err)
		}
		return nil, domain.ErrCacheMiss
	}
	return entry, nil
}
