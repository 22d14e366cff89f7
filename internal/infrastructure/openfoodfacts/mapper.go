package openfoodfacts

import (
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// MapToCatalogEntry converts a catalog response to a CatalogEntry with the
// ingredients resolved to one string.
func MapToCatalogEntry(barcode string, resp *domain.CatalogResponse) *domain.CatalogEntry {
	entry := &domain.CatalogEntry{Barcode: barcode}
	if resp == nil || resp.Product == nil {
		return entry
	}

	product := resp.Product
	entry.Name = strings.TrimSpace(product.ProductName)
	entry.IngredientsText = IngredientsText(product)
	entry.Nutriments = product.Nutriments
	entry.Raw = resp.RawProduct
	return entry
}

// IngredientsText picks the first available ingredient source:
// ingredients_text, then ingredients_text_en, then the structured list.
func IngredientsText(product *domain.CatalogProduct) string {
	if product == nil {
		return ""
	}
	if text := strings.TrimSpace(product.IngredientsText); text != "" {
		return text
	}
	if text := strings.TrimSpace(product.IngredientsTextEn); text != "" {
		return text
	}

	names := make([]string, 0, len(product.Ingredients))
	for _, ingredient := range product.Ingredients {
		if name := ingredientName(ingredient); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// ingredientName resolves a list entry: text, else name, else the taxonomy
// id without its language prefix ("en:citric-acid" -> "citric acid").
func ingredientName(ingredient domain.CatalogIngredient) string {
	if text := strings.TrimSpace(ingredient.Text); text != "" {
		return text
	}
	if name := strings.TrimSpace(ingredient.Name); name != "" {
		return name
	}

	id := strings.TrimSpace(ingredient.ID)
	if idx := strings.Index(id, ":"); idx >= 0 {
		id = id[idx+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(id, "-", " "))
}
