package persistence

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"gorm.io/datatypes"
)

// jsonNull is written instead of SQL NULL for absent documents
var jsonNull = datatypes.JSON("null")

// productModel is the row layout of a product record. The analysis documents
// are stored as JSON so legacy rows are read back exactly as written.
type productModel struct {
	ID      string `gorm:"primarykey;size:36"`
	Barcode string `gorm:"size:64;not null;uniqueIndex"`
	Name    string `gorm:"size:255"`

	ProductImagePath        string
	IngredientsImagePath    string
	NutritionLabelImagePath string

	ProductImageName        string `gorm:"index"`
	IngredientsImageName    string `gorm:"index"`
	NutritionLabelImageName string `gorm:"index"`

	Ingredients        datatypes.JSONSlice[string] `gorm:"not null"`
	IngredientAnalysis datatypes.JSON              `gorm:"not null"`
	Analysis           datatypes.JSON              `gorm:"not null"`
	ProductData        datatypes.JSON              `gorm:"not null"`

	CreatedAt time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime:false"`
}

// TableName returns the table name for productModel
func (productModel) TableName() string {
	return "product_records"
}

// imageNameColumn maps an image kind to its formatted-name column
func imageNameColumn(kind domain.ImageKind) string {
	switch kind {
	case domain.ImageProduct:
		return "product_image_name"
	case domain.ImageIngredients:
		return "ingredients_image_name"
	case domain.ImageNutritionLabel:
		return "nutrition_label_image_name"
	}
	return ""
}

func toModel(record *domain.ProductRecord) (*productModel, error) {
	analysis, err := json.Marshal(record.Analysis)
	if err != nil {
		return nil, err
	}

	ingredientAnalysis := jsonNull
	if record.IngredientAnalysis != nil {
		b, err := json.Marshal(record.IngredientAnalysis)
		if err != nil {
			return nil, err
		}
		ingredientAnalysis = datatypes.JSON(b)
	}

	productData := jsonNull
	if record.ProductData != nil {
		b, err := json.Marshal(record.ProductData)
		if err != nil {
			return nil, err
		}
		productData = datatypes.JSON(b)
	}

	ingredients := record.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	return &productModel{
		ID:                      record.ID,
		Barcode:                 record.Barcode,
		Name:                    record.Name,
		ProductImagePath:        record.ImagePaths.Product,
		IngredientsImagePath:    record.ImagePaths.Ingredients,
		NutritionLabelImagePath: record.ImagePaths.NutritionLabel,
		ProductImageName:        record.FormattedImageNames.Product,
		IngredientsImageName:    record.FormattedImageNames.Ingredients,
		NutritionLabelImageName: record.FormattedImageNames.NutritionLabel,
		Ingredients:             datatypes.JSONSlice[string](ingredients),
		IngredientAnalysis:      ingredientAnalysis,
		Analysis:                datatypes.JSON(analysis),
		ProductData:             productData,
		CreatedAt:               record.CreatedAt,
		UpdatedAt:               record.UpdatedAt,
	}, nil
}

// toRecord decodes a row. Documents that do not match the typed shape are
// decoded as far as possible, and the raw documents travel along in Stored
// so the store defaults reads exactly as the repair pass does.
func toRecord(m *productModel) *domain.ProductRecord {
	record := &domain.ProductRecord{
		ID:      m.ID,
		Barcode: m.Barcode,
		Name:    m.Name,
		ImagePaths: domain.ImagePaths{
			Product:        m.ProductImagePath,
			Ingredients:    m.IngredientsImagePath,
			NutritionLabel: m.NutritionLabelImagePath,
		},
		FormattedImageNames: domain.ImagePaths{
			Product:        m.ProductImageName,
			Ingredients:    m.IngredientsImageName,
			NutritionLabel: m.NutritionLabelImageName,
		},
		Ingredients: []string(m.Ingredients),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Stored: &domain.StoredDocuments{
			Analysis:           decodeDocument(m.Analysis),
			IngredientAnalysis: decodeDocument(m.IngredientAnalysis),
		},
	}

	if err := json.Unmarshal(m.Analysis, &record.Analysis); err != nil {
		log.Printf("[DB] Record %s has a malformed analysis: %v", m.ID, err)
	}

	if isDocument(m.IngredientAnalysis) {
		var analysis domain.IngredientAnalysis
		if err := json.Unmarshal(m.IngredientAnalysis, &analysis); err != nil {
			log.Printf("[DB] Record %s has a malformed ingredient analysis: %v", m.ID, err)
		}
		record.IngredientAnalysis = &analysis
	}

	if isDocument(m.ProductData) {
		var data map[string]any
		if err := json.Unmarshal(m.ProductData, &data); err == nil {
			record.ProductData = data
		}
	}

	return record
}

// decodeDocument returns the stored JSON object, or nil when the column holds
// anything else.
func decodeDocument(raw datatypes.JSON) map[string]any {
	if !isDocument(raw) {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

func isDocument(raw datatypes.JSON) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
