package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
)

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	c.CreatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, slug, description, created_at) VALUES (?, ?, ?, ?)",
		c.Name, c.Slug, c.Description, c.CreatedAt)
	if err != nil {
		return duplicate(err, shop.ErrConflict)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) CategoryByID(ctx context.Context, id int64) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, COALESCE(description, ''), created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	return c, notFound(err)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, slug, COALESCE(description, ''), created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	query := `
		INSERT INTO products
			(category_id, name, description, sku, image_url, price, discounted_price,
			 stock_quantity, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		p.CategoryID, p.Name, p.Description, p.SKU, p.ImageURL, p.Price, p.DiscountedPrice,
		p.StockQuantity, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return duplicate(err, shop.ErrConflict)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = s.now()
	query := `
		UPDATE products SET
			category_id = ?, name = ?, description = ?, sku = ?, image_url = ?,
			price = ?, discounted_price = ?, stock_quantity = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query,
		p.CategoryID, p.Name, p.Description, p.SKU, p.ImageURL,
		p.Price, p.DiscountedPrice, p.StockQuantity, p.IsActive, p.UpdatedAt, p.ID)
	return duplicate(err, shop.ErrConflict)
}

func (s *Store) ProductByID(ctx context.Context, id int64) (models.Product, error) {
	var p models.Product
	query := "SELECT " + productColumns + `, COALESCE(c.name, '')
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`
	err := scanProduct(s.db.QueryRowContext(ctx, query, id), &p, &p.CategoryName)
	return p, notFound(err)
}

var productOrder = map[string]string{
	shop.SortNewest:    "p.created_at DESC, p.id DESC",
	shop.SortPriceLow:  "p.price ASC, p.id ASC",
	shop.SortPriceHigh: "p.price DESC, p.id ASC",
	shop.SortName:      "p.name ASC, p.id ASC",
}

func (s *Store) ListProducts(ctx context.Context, f shop.ProductFilter) ([]models.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeInactive {
		where = append(where, "p.is_active = TRUE")
	}
	if f.CategoryID != 0 {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.DiscountedOnly {
		where = append(where, "p.discounted_price IS NOT NULL AND p.discounted_price < p.price")
	}
	if f.Search != "" {
		where = append(where, "(p.name LIKE ? OR p.description LIKE ?)")
		pattern := likePattern(f.Search)
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order, ok := productOrder[f.Sort]
	if !ok {
		order = productOrder[shop.SortNewest]
	}
	query := "SELECT " + productColumns + `, COALESCE(c.name, '')
		FROM products p LEFT JOIN categories c ON c.id = p.category_id` +
		clause + " ORDER BY " + order + " LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, query, append(args, f.Page.PerPage, f.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	return products, total, err
}

func (s *Store) RelatedProducts(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	query := "SELECT " + productColumns + `, COALESCE(c.name, '')
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = ? AND p.id <> ? AND p.is_active = TRUE
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, p.CategoryID, p.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("related products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p, &p.CategoryName); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
