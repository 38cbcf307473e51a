package domain

// Product represents a catalog product in its client-side shape
type Product struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Brand         string   `json:"brand"`
	Price         float64  `json:"price"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images"`
	Description   string   `json:"description,omitempty"`
	CategoryID    *int64   `json:"categoryId,omitempty"`
	SubcategoryID *int64   `json:"subCategoryId,omitempty"`
}

// Category represents a product category
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryRef is the denormalized parent category carried by a subcategory
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Subcategory represents a product subcategory belonging to one category
type Subcategory struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Slug       string       `json:"slug"`
	CategoryID int64        `json:"categoryId"`
	Category   *CategoryRef `json:"category,omitempty"`
}
