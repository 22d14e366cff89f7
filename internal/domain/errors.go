package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrImageNotFound is returned when an image path does not resolve in the image store
	ErrImageNotFound = errors.New("image not found")

	// ErrBadBarcodeFormat is returned when recognized barcode text is empty or not numeric
	ErrBadBarcodeFormat = errors.New("barcode is not a numeric code")

	// ErrProviderTimeout is returned when an OCR, catalog or reasoning call exceeds its timeout
	ErrProviderTimeout = errors.New("provider call timed out")

	// ErrProviderUnavailable is returned when an external provider call fails
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrAnalysisParse is returned when a reasoning response carries no parseable JSON object
	ErrAnalysisParse = errors.New("failed to parse analysis from reasoning response")

	// ErrRecordNotFound is returned when a product record does not exist in the store
	ErrRecordNotFound = errors.New("product record not found")

	// ErrDuplicateBarcode is returned when creation is requested for a barcode that already exists
	ErrDuplicateBarcode = errors.New("product with this barcode already exists")

	// ErrProductNotFound is returned when the external catalog has no product for a barcode
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ProviderError classifies a failed external call as ErrProviderTimeout when
// the call's deadline expired and ErrProviderUnavailable otherwise.
func ProviderError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
