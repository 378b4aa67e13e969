package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository persists products.
type ProductRepository interface {
	List(ctx context.Context) ([]ProductWithDetails, error)
	// ImageURL returns the stored image of a product. A missing row or
	// image yields an empty string.
	ImageURL(ctx context.Context, id string) (string, error)
	Upsert(ctx context.Context, rec ProductRecord) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository reads categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
}

// VariantRepository manages product variants.
type VariantRepository interface {
	DeleteByProduct(ctx context.Context, productID string) error
}

// Querier is the subset of pgxpool.Pool the repositories use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type productRepo struct {
	db Querier
}

// NewProductRepository returns a Postgres backed ProductRepository.
func NewProductRepository(db Querier) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) List(ctx context.Context) ([]ProductWithDetails, error) {
	query := `SELECT p.id, p.category_id, p.name, p.description, p.image_url, p.created_at, p.updated_at,
	                 c.id, c.name, c.description, c.parent_id, c.created_at
	          FROM products p
	          LEFT JOIN categories c ON c.id = p.category_id
	          ORDER BY p.created_at DESC, p.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]ProductWithDetails, 0)
	index := make(map[string]int)
	ids := make([]string, 0)
	for rows.Next() {
		var (
			p         ProductWithDetails
			catID     *string
			catName   *string
			catDesc   *string
			catParent *string
			catAt     *time.Time
		)
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
			&catID, &catName, &catDesc, &catParent, &catAt); err != nil {
			return nil, err
		}
		if catID != nil {
			p.Category = &Category{ID: *catID, Description: catDesc, ParentID: catParent}
			if catName != nil {
				p.Category.Name = *catName
			}
			if catAt != nil {
				p.Category.CreatedAt = *catAt
			}
		}
		p.Variants = []Variant{}
		index[p.ID] = len(products)
		ids = append(ids, p.ID)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return products, nil
	}

	vrows, err := r.db.Query(ctx, `SELECT id, product_id, size, price, stock, sku, created_at
	          FROM product_variants WHERE product_id = ANY($1::uuid[]) ORDER BY price, size`, ids)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var v Variant
		if err := vrows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Price, &v.Stock, &v.SKU, &v.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return products, vrows.Err()
}

func (r *productRepo) ImageURL(ctx context.Context, id string) (string, error) {
	var url *string
	err := r.db.QueryRow(ctx, `SELECT image_url FROM products WHERE id = $1`, id).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return derefString(url), nil
}

func (r *productRepo) Upsert(ctx context.Context, rec ProductRecord) error {
	query := `INSERT INTO products (id, name, description, category_id, image_url, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET
	              name = EXCLUDED.name,
	              description = EXCLUDED.description,
	              category_id = EXCLUDED.category_id,
	              image_url = EXCLUDED.image_url,
	              updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query, rec.ID, rec.Name, rec.Description, rec.CategoryID, rec.ImageURL, rec.UpdatedAt)
	return err
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

type categoryRepo struct {
	db Querier
}

// NewCategoryRepository returns a Postgres backed CategoryRepository.
func NewCategoryRepository(db Querier) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, parent_id, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type variantRepo struct {
	db Querier
}

// NewVariantRepository returns a Postgres backed VariantRepository.
func NewVariantRepository(db Querier) VariantRepository {
	return &variantRepo{db: db}
}

func (r *variantRepo) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID)
	return err
}
