package domain

// CatalogResponse is the Open Food Facts product lookup payload
type CatalogResponse struct {
	Code          string          `json:"code"`
	Status        int             `json:"status"`
	StatusVerbose string          `json:"status_verbose,omitempty"`
	Product       *CatalogProduct `json:"product,omitempty"`
	// RawProduct is the undecoded product object as sent by the catalog
	RawProduct map[string]any `json:"-"`
}

// CatalogProduct is the subset of an Open Food Facts product the analysis needs
type CatalogProduct struct {
	ProductName       string              `json:"product_name"`
	Brands            string              `json:"brands,omitempty"`
	IngredientsText   string              `json:"ingredients_text,omitempty"`
	IngredientsTextEn string              `json:"ingredients_text_en,omitempty"`
	Ingredients       []CatalogIngredient `json:"ingredients,omitempty"`
	Nutriments        map[string]any      `json:"nutriments,omitempty"`
}

// CatalogIngredient is one entry of the structured ingredient list. Only one
// of the fields is usually populated.
type CatalogIngredient struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// CatalogEntry is a catalog product resolved for a barcode, with its
// ingredient text normalized to a single string.
type CatalogEntry struct {
	Barcode         string         `json:"barcode"`
	Name            string         `json:"name"`
	IngredientsText string         `json:"ingredientsText"`
	Nutriments      map[string]any `json:"nutriments,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
}
