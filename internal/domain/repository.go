package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ImageStore reads and stores product photos
type ImageStore interface {
	// Read returns the image bytes or ErrImageNotFound
	Read(ctx context.Context, path string) ([]byte, error)
	// Put stores data under name and returns the path to read it back
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// OCRProvider turns an image into plain text
type OCRProvider interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// ProductCatalog looks up product metadata by barcode
type ProductCatalog interface {
	GetProduct(ctx context.Context, barcode string) (*CatalogResponse, error)
}

// IngredientPrompt is the reasoning input for an ingredient list
type IngredientPrompt struct {
	Text   string
	Tokens []string
}

// ProductPrompt is the reasoning input for a whole-product photo
type ProductPrompt struct {
	ImagePath   string
	ProductData map[string]any
}

// ReasoningClient delegates analysis to an external reasoning service. The
// returned map is the JSON object found in the response, unvalidated.
type ReasoningClient interface {
	AnalyzeIngredients(ctx context.Context, prompt IngredientPrompt) (map[string]any, error)
	AnalyzeProduct(ctx context.Context, prompt ProductPrompt) (map[string]any, error)
}

// AssistantPrompt is a free-form question about food, optionally about a
// stored photo
type AssistantPrompt struct {
	Question  string
	ImagePath string
}

// AssistantClient answers food questions in plain text
type AssistantClient interface {
	Reply(ctx context.Context, prompt AssistantPrompt) (string, error)
}

// StoredAnalysis is the analysis document of a record exactly as persisted
type StoredAnalysis struct {
	RecordID string
	Fields   map[string]any
}

// ProductRepository defines persistence for product records
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*ProductRecord, error)
	FindByBarcode(ctx context.Context, barcode string) (*ProductRecord, error)
	FindLatestByImageName(ctx context.Context, kind ImageKind, name string) (*ProductRecord, error)
	List(ctx context.Context, limit, offset int) ([]*ProductRecord, error)
	Create(ctx context.Context, record *ProductRecord) error
	Save(ctx context.Context, record *ProductRecord) error
	StoredAnalyses(ctx context.Context) ([]StoredAnalysis, error)
	SaveAnalysis(ctx context.Context, recordID string, analysis Analysis) error
}
