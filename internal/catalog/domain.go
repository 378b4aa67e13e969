package catalog

import (
	"io"
	"time"
)

// AllCategories is the category selector value that disables category filtering.
const AllCategories = "all"

// Category is a node of the two-level category tree.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryOption is a selectable leaf category with its composed label.
type CategoryOption struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Product is a catalog row.
type Product struct {
	ID          string     `json:"id"`
	CategoryID  *string    `json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Variant is a sellable size of a product. Price is in whole rupiah.
type Variant struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Size      string    `json:"size"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	SKU       *string   `json:"sku,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductWithDetails joins a product with its category and variants for display.
type ProductWithDetails struct {
	Product
	Category *Category `json:"category,omitempty"`
	Variants []Variant `json:"variants"`
}

// Stock summarises the variants of p.
func (p ProductWithDetails) Stock() StockSummary {
	return SummarizeStock(p.Variants)
}

// ImageUpload is a file attached to a product form.
type ImageUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// ProductForm is the submitted create/edit payload.
type ProductForm struct {
	ID          string
	Name        string
	Description string
	CategoryID  string
	Image       *ImageUpload
}

// ProductRecord is the full field set written by ProductRepository.Upsert.
type ProductRecord struct {
	ID          string
	Name        string
	Description *string
	CategoryID  *string
	ImageURL    *string
	UpdatedAt   time.Time
}
