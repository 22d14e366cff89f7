package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductRepository implements domain.ProductRepository on GORM
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByID retrieves a record by its id
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByBarcode retrieves a record by its barcode
func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	return r.first(ctx, "barcode = ?", barcode)
}

// FindLatestByImageName retrieves the most recently updated record whose
// formatted image name for kind equals name.
func (r *ProductRepository) FindLatestByImageName(ctx context.Context, kind domain.ImageKind, name string) (*domain.ProductRecord, error) {
	column := imageNameColumn(kind)
	if column == "" || name == "" {
		return nil, fmt.Errorf("%w: image kind %q, name %q", domain.ErrInvalidRequest, kind, name)
	}

	var m productModel
	err := r.db.WithContext(ctx).
		Where(column+" = ?", name).
		Order("updated_at DESC").
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "find product by image name")
	}
	return toRecord(&m), nil
}

// List retrieves records newest first
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.ProductRecord, error) {
	var models []productModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	records := make([]*domain.ProductRecord, 0, len(models))
	for i := range models {
		records = append(records, toRecord(&models[i]))
	}
	return records, nil
}

// Create inserts a new record. A taken barcode returns ErrDuplicateBarcode.
func (r *ProductRepository) Create(ctx context.Context, record *domain.ProductRecord) error {
	m, err := toModel(record)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "create product")
	}
	return nil
}

// Save overwrites every column of an existing record
func (r *ProductRepository) Save(ctx context.Context, record *domain.ProductRecord) error {
	m, err := toModel(record)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("id = ?", record.ID).
		Select("*").
		Updates(m)
	if result.Error != nil {
		return translate(result.Error, "update product")
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// StoredAnalyses returns every analysis document as persisted. A column
// that does not hold a JSON object is reported with nil Fields.
func (r *ProductRepository) StoredAnalyses(ctx context.Context) ([]domain.StoredAnalysis, error) {
	var rows []productModel
	err := r.db.WithContext(ctx).
		Select("id", "analysis").
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}

	out := make([]domain.StoredAnalysis, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StoredAnalysis{
			RecordID: row.ID,
			Fields:   decodeDocument(row.Analysis),
		})
	}
	return out, nil
}

// SaveAnalysis replaces only the analysis document of a record
func (r *ProductRepository) SaveAnalysis(ctx context.Context, recordID string, analysis domain.Analysis) error {
	b, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("id = ?", recordID).
		Update("analysis", datatypes.JSON(b))
	if result.Error != nil {
		return fmt.Errorf("failed to save analysis: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *ProductRepository) first(ctx context.Context, query string, arg any) (*domain.ProductRecord, error) {
	var m productModel
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&m).Error; err != nil {
		return nil, translate(err, "find product")
	}
	return toRecord(&m), nil
}

func translate(err error, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return domain.ErrDuplicateBarcode
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
