package domain

import "time"

// Processing levels accepted in Analysis.ProcessingLevel
const (
	ProcessingMinimal = "minimally processed"
	ProcessingDefault = "processed"
	ProcessingHigh    = "highly processed"
	ProcessingUltra   = "ultra-processed"
)

// ProcessingLevels lists every valid processing level
var ProcessingLevels = []string{ProcessingMinimal, ProcessingDefault, ProcessingHigh, ProcessingUltra}

// ImageKind identifies which photo of a product an image path refers to
type ImageKind string

const (
	ImageProduct        ImageKind = "product"
	ImageIngredients    ImageKind = "ingredients"
	ImageNutritionLabel ImageKind = "nutritionLabel"
)

// Provenance tags used for synthetic barcodes
const (
	SourceManual = "manual"
	SourceOCR    = "ocr"
)

// ProductRecord is the unit of persistence for a scanned product
type ProductRecord struct {
	ID                  string              `json:"id"`
	Barcode             string              `json:"barcode"`
	Name                string              `json:"name"`
	ImagePaths          ImagePaths          `json:"imagePaths"`
	FormattedImageNames ImagePaths          `json:"formattedImageNames"`
	Ingredients         []string            `json:"ingredients"`
	IngredientAnalysis  *IngredientAnalysis `json:"ingredientAnalysis,omitempty"`
	Analysis            Analysis            `json:"analysis"`
	ProductData         map[string]any      `json:"productData,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`

	// Stored carries the analysis documents exactly as a repository read
	// them. It is nil on records that were not loaded from storage.
	Stored *StoredDocuments `json:"-"`
}

// StoredDocuments are the persisted analysis documents of a record before
// defaulting. A nil map means the column held no JSON object.
type StoredDocuments struct {
	Analysis           map[string]any
	IngredientAnalysis map[string]any
}

// ImagePaths holds one value per image kind. It is used both for storage
// paths and for the slugs derived from the product name.
type ImagePaths struct {
	Product        string `json:"product,omitempty"`
	Ingredients    string `json:"ingredients,omitempty"`
	NutritionLabel string `json:"nutritionLabel,omitempty"`
}

// Get returns the value stored for kind
func (p ImagePaths) Get(kind ImageKind) string {
	switch kind {
	case ImageProduct:
		return p.Product
	case ImageIngredients:
		return p.Ingredients
	case ImageNutritionLabel:
		return p.NutritionLabel
	}
	return ""
}

// Merge overwrites only the non-empty values of other
func (p ImagePaths) Merge(other ImagePaths) ImagePaths {
	if other.Product != "" {
		p.Product = other.Product
	}
	if other.Ingredients != "" {
		p.Ingredients = other.Ingredients
	}
	if other.NutritionLabel != "" {
		p.NutritionLabel = other.NutritionLabel
	}
	return p
}

// ValidImageKind reports whether kind names a known image kind
func ValidImageKind(kind ImageKind) bool {
	return kind == ImageProduct || kind == ImageIngredients || kind == ImageNutritionLabel
}

// Analysis is the product-level nutrition verdict. Every field must hold a
// valid value after any write.
type Analysis struct {
	NutritionScore        float64  `json:"nutritionScore"`
	NutritionEvaluation   string   `json:"nutritionEvaluation"`
	Allergens             []string `json:"allergens"`
	Additives             []string `json:"additives"`
	SustainabilityScore   float64  `json:"sustainabilityScore"`
	ProcessingLevel       string   `json:"processingLevel"`
	OverallRecommendation string   `json:"overallRecommendation"`
}

// HarmfulIngredient is an ingredient flagged by the reasoning service
type HarmfulIngredient struct {
	Name     string `json:"name"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// IngredientAnalysis is the ingredient-level safety verdict
type IngredientAnalysis struct {
	ExtractedText      string              `json:"extractedText"`
	SafetyScore        float64             `json:"safetyScore"`
	HarmfulIngredients []HarmfulIngredient `json:"harmfulIngredients"`
	SafeIngredients    []string            `json:"safeIngredients"`
	UnknownIngredients []string            `json:"unknownIngredients"`
	OverallSafety      string              `json:"overallSafety"`
	DetailedAnalysis   string              `json:"detailedAnalysis"`
}

// Verdict is the complete result of an analysis run: the ingredient tokens,
// the ingredient-level verdict and the product-level scores.
type Verdict struct {
	Ingredients        []string           `json:"ingredients"`
	IngredientAnalysis IngredientAnalysis `json:"ingredientAnalysis"`
	Analysis           Analysis           `json:"analysis"`
}

// Fields flattens the analysis into the loosely typed shape returned by the
// reasoning service.
func (a Analysis) Fields() map[string]any {
	return map[string]any{
		"nutritionScore":        a.NutritionScore,
		"nutritionEvaluation":   a.NutritionEvaluation,
		"allergens":             stringsToAny(a.Allergens),
		"additives":             stringsToAny(a.Additives),
		"sustainabilityScore":   a.SustainabilityScore,
		"processingLevel":       a.ProcessingLevel,
		"overallRecommendation": a.OverallRecommendation,
	}
}

// Fields flattens the ingredient analysis into the loosely typed shape
// returned by the reasoning service.
func (a IngredientAnalysis) Fields() map[string]any {
	harmful := make([]any, 0, len(a.HarmfulIngredients))
	for _, h := range a.HarmfulIngredients {
		harmful = append(harmful, map[string]any{
			"name":     h.Name,
			"reason":   h.Reason,
			"severity": h.Severity,
		})
	}
	return map[string]any{
		"extractedText":      a.ExtractedText,
		"safetyScore":        a.SafetyScore,
		"harmfulIngredients": harmful,
		"safeIngredients":    stringsToAny(a.SafeIngredients),
		"unknownIngredients": stringsToAny(a.UnknownIngredients),
		"overallSafety":      a.OverallSafety,
		"detailedAnalysis":   a.DetailedAnalysis,
	}
}

// Fields flattens the verdict into a single map
func (v Verdict) Fields() map[string]any {
	fields := v.Analysis.Fields()
	for k, val := range v.IngredientAnalysis.Fields() {
		fields[k] = val
	}
	fields["ingredients"] = stringsToAny(v.Ingredients)
	return fields
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
