package openfoodfacts

import (
	"testing"

	"github.com/nutriscan/backend/internal/domain"
)

func TestIngredientsText(t *testing.T) {
	tests := []struct {
		name    string
		product *domain.CatalogProduct
		want    string
	}{
		{
			name:    "plain ingredients string",
			product: &domain.CatalogProduct{IngredientsText: "Water, Sugar", IngredientsTextEn: "ignored"},
			want:    "Water, Sugar",
		},
		{
			name:    "localized variant",
			product: &domain.CatalogProduct{IngredientsText: "  ", IngredientsTextEn: "Milk, Cocoa"},
			want:    "Milk, Cocoa",
		},
		{
			name: "structured list",
			product: &domain.CatalogProduct{Ingredients: []domain.CatalogIngredient{
				{Text: "Sugar", ID: "en:sugar"},
				{Name: "Palm oil"},
				{ID: "en:citric-acid"},
				{},
			}},
			want: "Sugar, Palm oil, citric acid",
		},
		{
			name:    "nothing available",
			product: &domain.CatalogProduct{ProductName: "Mystery"},
			want:    "",
		},
		{
			name:    "nil product",
			product: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IngredientsText(tt.product); got != tt.want {
				t.Errorf("IngredientsText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapToCatalogEntry(t *testing.T) {
	resp := &domain.CatalogResponse{
		Status: 1,
		Product: &domain.CatalogProduct{
			ProductName:     " Oat Drink ",
			IngredientsText: "Water, Oats 10%",
			Nutriments:      map[string]any{"energy-kcal_100g": 46.0},
		},
		RawProduct: map[string]any{"product_name": " Oat Drink "},
	}

	entry := MapToCatalogEntry("7394376616228", resp)

	if entry.Barcode != "7394376616228" {
		t.Errorf("Barcode = %q", entry.Barcode)
	}
	if entry.Name != "Oat Drink" {
		t.Errorf("Name = %q, want %q", entry.Name, "Oat Drink")
	}
	if entry.IngredientsText != "Water, Oats 10%" {
		t.Errorf("IngredientsText = %q", entry.IngredientsText)
	}
	if entry.Nutriments["energy-kcal_100g"] != 46.0 {
		t.Errorf("Nutriments = %v", entry.Nutriments)
	}
	if entry.Raw["product_name"] != " Oat Drink " {
		t.Errorf("Raw = %v", entry.Raw)
	}

	empty := MapToCatalogEntry("1", nil)
	if empty.Barcode != "1" || empty.Name != "" {
		t.Errorf("MapToCatalogEntry(nil) = %+v", empty)
	}
}
