package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutriscan/backend/internal/domain"
)

// List page bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]`)

// ProductFields are the fields an upsert writes. Nil fields are left
// untouched on an existing record.
type ProductFields struct {
	Name               *string
	ImagePaths         *domain.ImagePaths
	Ingredients        []string
	IngredientAnalysis *domain.IngredientAnalysis
	Analysis           *domain.Analysis
	// SeedAnalysis is only used when the upsert creates the record
	SeedAnalysis *domain.Analysis
	ProductData  map[string]any
}

// UpsertOptions controls how an upsert treats existing records
type UpsertOptions struct {
	// CreateOnly rejects the write with ErrDuplicateBarcode when the barcode
	// already exists.
	CreateOnly bool
	// Source tags synthetic barcodes: domain.SourceManual or domain.SourceOCR
	Source string
}

// ProductStore owns the product record lifecycle. Every record it writes or
// returns carries a defaulted analysis.
type ProductStore struct {
	repo    domain.ProductRepository
	metrics Metrics
	now     func() time.Time
}

// NewProductStore creates a new product store
func NewProductStore(repo domain.ProductRepository, metrics Metrics) *ProductStore {
	return &ProductStore{
		repo:    repo,
		metrics: metricsOrNoop(metrics),
		now:     time.Now,
	}
}

// Slugify lower-cases name and replaces every non-alphanumeric rune with '_'
func Slugify(name string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(name), "_")
}

// SyntheticBarcode builds an identifier for a record that has no barcode
func SyntheticBarcode(source string) string {
	if source != domain.SourceManual {
		source = domain.SourceOCR
	}
	return fmt.Sprintf("%s_%s", source, uuid.New().String())
}

// FindByID returns the record with the given id or ErrRecordNotFound
func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return present(record), nil
}

// FindByBarcode returns the record with the given barcode or ErrRecordNotFound
func (s *ProductStore) FindByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	record, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return present(record), nil
}

// FindByImageName returns the most recently updated record whose formatted
// image name for kind equals name. Products whose names slugify alike collide.
func (s *ProductStore) FindByImageName(ctx context.Context, kind domain.ImageKind, name string) (*domain.ProductRecord, error) {
	if !domain.ValidImageKind(kind) {
		return nil, fmt.Errorf("%w: unknown image kind %q", domain.ErrInvalidRequest, kind)
	}
	record, err := s.repo.FindLatestByImageName(ctx, kind, Slugify(name))
	if err != nil {
		return nil, err
	}
	return present(record), nil
}

// List returns records newest first
func (s *ProductStore) List(ctx context.Context, limit, offset int) ([]*domain.ProductRecord, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, record := range records {
		records[i] = present(record)
	}
	return records, nil
}

// Upsert writes fields to the record identified by barcode. An empty barcode
// always creates a record under a synthetic barcode.
func (s *ProductStore) Upsert(
	ctx context.Context,
	barcode string,
	fields ProductFields,
	opts UpsertOptions,
) (*domain.ProductRecord, error) {
	if barcode == "" {
		return s.create(ctx, SyntheticBarcode(opts.Source), fields)
	}

	existing, err := s.repo.FindByBarcode(ctx, barcode)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		record, createErr := s.create(ctx, barcode, fields)
		if createErr == nil || opts.CreateOnly || !errors.Is(createErr, domain.ErrDuplicateBarcode) {
			return record, createErr
		}
		// Lost a race with a concurrent create: fall through to an update.
		existing, err = s.repo.FindByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case opts.CreateOnly:
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateBarcode, barcode)
	}

	return s.update(ctx, existing, fields)
}

// RepairAll re-applies defaulting to every stored analysis and persists the
// ones that changed. Running it twice in a row repairs nothing the second time.
func (s *ProductStore) RepairAll(ctx context.Context) (int, error) {
	stored, err := s.repo.StoredAnalyses(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, doc := range stored {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}

		analysis := Defaultify(doc.Fields).Analysis
		if sameDocument(doc.Fields, analysis.Fields()) {
			continue
		}
		if err := s.repo.SaveAnalysis(ctx, doc.RecordID, analysis); err != nil {
			return repaired, fmt.Errorf("failed to repair record %s: %w", doc.RecordID, err)
		}
		repaired++
	}

	log.Printf("[STORE] Repaired %d of %d records", repaired, len(stored))
	s.metrics.RecordsRepaired(repaired)
	return repaired, nil
}

func (s *ProductStore) create(ctx context.Context, barcode string, fields ProductFields) (*domain.ProductRecord, error) {
	now := s.now()
	record := &domain.ProductRecord{
		ID:          uuid.New().String(),
		Barcode:     barcode,
		Ingredients: []string{},
		Analysis:    Defaultify(nil).Analysis,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fields.Analysis == nil && fields.SeedAnalysis != nil {
		record.Analysis = *fields.SeedAnalysis
	}
	apply(record, fields)

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("[STORE] Created record %s for barcode %s", record.ID, record.Barcode)
	return record, nil
}

func (s *ProductStore) update(ctx context.Context, record *domain.ProductRecord, fields ProductFields) (*domain.ProductRecord, error) {
	apply(record, fields)
	record.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("[STORE] Updated record %s for barcode %s", record.ID, record.Barcode)
	return record, nil
}

// apply merges the present fields into record, defaults the analyses and
// re-derives the formatted image names.
func apply(record *domain.ProductRecord, fields ProductFields) {
	restore(record)
	if fields.Name != nil {
		record.Name = strings.TrimSpace(*fields.Name)
	}
	if fields.ImagePaths != nil {
		record.ImagePaths = record.ImagePaths.Merge(*fields.ImagePaths)
	}
	if fields.Ingredients != nil {
		record.Ingredients = append([]string{}, fields.Ingredients...)
	}
	if fields.IngredientAnalysis != nil {
		analysis := *fields.IngredientAnalysis
		record.IngredientAnalysis = &analysis
	}
	if fields.Analysis != nil {
		record.Analysis = *fields.Analysis
	}
	if fields.ProductData != nil {
		record.ProductData = fields.ProductData
	}

	normalize(record)
	record.FormattedImageNames = formattedImageNames(record.Name, record.ImagePaths)
}

func present(record *domain.ProductRecord) *domain.ProductRecord {
	normalize(record)
	return record
}

// restore replaces the typed analyses of a record read from storage with
// its stored documents run through Defaultify, which is what RepairAll
// would persist for them.
func restore(record *domain.ProductRecord) {
	stored := record.Stored
	if stored == nil {
		return
	}
	record.Stored = nil

	record.Analysis = Defaultify(stored.Analysis).Analysis
	record.IngredientAnalysis = nil
	if stored.IngredientAnalysis != nil {
		analysis := Defaultify(stored.IngredientAnalysis).IngredientAnalysis
		record.IngredientAnalysis = &analysis
	}
}

// normalize defaults the analyses of record. A typed score of 0 is kept.
func normalize(record *domain.ProductRecord) {
	restore(record)
	record.Analysis = DefaultifyAnalysis(record.Analysis)
	if record.IngredientAnalysis != nil {
		analysis := DefaultifyIngredientAnalysis(*record.IngredientAnalysis)
		record.IngredientAnalysis = &analysis
	}
	if record.Ingredients == nil {
		record.Ingredients = []string{}
	}
}

func formattedImageNames(name string, paths domain.ImagePaths) domain.ImagePaths {
	slug := Slugify(name)
	if slug == "" {
		return domain.ImagePaths{}
	}

	var names domain.ImagePaths
	if paths.Product != "" {
		names.Product = slug
	}
	if paths.Ingredients != "" {
		names.Ingredients = slug
	}
	if paths.NutritionLabel != "" {
		names.NutritionLabel = slug
	}
	return names
}

// sameDocument compares two analysis documents by their JSON encoding, which
// sorts keys and normalizes number types.
func sameDocument(stored, repaired map[string]any) bool {
	if stored == nil {
		return false
	}
	a, err := json.Marshal(stored)
	if err != nil {
		return false
	}
	b, err := json.Marshal(repaired)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}
