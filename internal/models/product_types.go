package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// Optional columns are pointers (or NullDecimal) so they serialize as null.
type Product struct {
	ID          int64   `json:"id" db:"id"`
	CategoryID  int64   `json:"categoryId" db:"category_id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	SKU         *string `json:"sku,omitempty" db:"sku"`
	ImageURL    *string `json:"imageUrl,omitempty" db:"image_url"`

	// --- Pricing & Stock ---
	Price           decimal.Decimal     `json:"price" db:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discountedPrice" db:"discounted_price"`
	StockQuantity   int                 `json:"stock" db:"stock_quantity"`
	IsActive        bool                `json:"isActive" db:"is_active"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	CategoryName string `json:"categoryName,omitempty" db:"-"`
}

// EffectivePrice is the price a buyer pays right now: the discounted price
// when one is set and lower than the base price, otherwise the base price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

// HasDiscount reports whether the discounted price is set and below the base price.
func (p Product) HasDiscount() bool {
	return p.DiscountedPrice.Valid && p.DiscountedPrice.Decimal.LessThan(p.Price)
}

// DiscountPercentage returns the whole-number percentage saved, or 0.
func (p Product) DiscountPercentage() int {
	if !p.HasDiscount() || p.Price.IsZero() {
		return 0
	}
	saved := p.Price.Sub(p.DiscountedPrice.Decimal)
	return int(saved.Div(p.Price).Mul(decimal.NewFromInt(100)).IntPart())
}
