package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/shopspring/decimal"
)

// CartStore manages each user's product → quantity mapping.
type CartStore struct {
	carts    CartRepo
	products ProductReader
	now      func() time.Time
}

func NewCartStore(carts CartRepo, products ProductReader) *CartStore {
	return &CartStore{carts: carts, products: products, now: time.Now}
}

// CartSummary is the priced content of a cart.
type CartSummary struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Add puts qty units of a product in the caller's cart, merging with an
// existing line. The merged quantity must still fit the product's stock.
func (s *CartStore) Add(ctx context.Context, caller access.Caller, productID int64, qty int) (models.CartItem, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.CartItem{}, err
	}

	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return models.CartItem{}, err
	}
	if !product.IsActive {
		return models.CartItem{}, ErrNotFound
	}
	if qty < 1 || qty > product.StockQuantity {
		return models.CartItem{}, outOfStock(product, qty)
	}

	existing, err := s.carts.CartItemFor(ctx, caller.UserID, productID)
	switch {
	case err == nil:
		total := existing.Quantity + qty
		if total > product.StockQuantity {
			return models.CartItem{}, outOfStock(product, total)
		}
		if err := s.carts.SetCartItemQuantity(ctx, existing.ID, total); err != nil {
			return models.CartItem{}, err
		}
		existing.Quantity = total
		return existing, nil
	case errors.Is(err, ErrNotFound):
		item := models.CartItem{
			UserID:    caller.UserID,
			ProductID: productID,
			Quantity:  qty,
			AddedAt:   s.now(),
		}
		if err := s.carts.InsertCartItem(ctx, &item); err != nil {
			return models.CartItem{}, err
		}
		return item, nil
	default:
		return models.CartItem{}, err
	}
}

// SetQuantity changes a line's quantity. Anything below 1 removes the line;
// the returned bool reports whether the line still exists.
func (s *CartStore) SetQuantity(ctx context.Context, caller access.Caller, itemID int64, qty int) (bool, error) {
	item, err := s.ownedItem(ctx, caller, itemID)
	if err != nil {
		return false, err
	}

	if qty < 1 {
		if err := s.carts.DeleteCartItem(ctx, item.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	product, err := s.products.ProductByID(ctx, item.ProductID)
	if err != nil {
		return false, err
	}
	if qty > product.StockQuantity {
		return true, outOfStock(product, qty)
	}
	if err := s.carts.SetCartItemQuantity(ctx, item.ID, qty); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes a line from the caller's cart.
func (s *CartStore) Remove(ctx context.Context, caller access.Caller, itemID int64) error {
	item, err := s.ownedItem(ctx, caller, itemID)
	if err != nil {
		return err
	}
	return s.carts.DeleteCartItem(ctx, item.ID)
}

// Totals prices every line at the product's current effective price.
func (s *CartStore) Totals(ctx context.Context, caller access.Caller) (CartSummary, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return CartSummary{}, err
	}

	lines, err := s.carts.CartLines(ctx, caller.UserID)
	if err != nil {
		return CartSummary{}, fmt.Errorf("load cart: %w", err)
	}

	summary := CartSummary{Lines: lines, Total: decimal.Zero}
	if summary.Lines == nil {
		summary.Lines = []CartLine{}
	}
	for _, l := range lines {
		summary.Total = summary.Total.Add(l.LineTotal())
		summary.Count += l.Item.Quantity
	}
	return summary, nil
}

func (s *CartStore) ownedItem(ctx context.Context, caller access.Caller, itemID int64) (models.CartItem, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.CartItem{}, err
	}
	item, err := s.carts.CartItem(ctx, itemID)
	if err != nil {
		return models.CartItem{}, err
	}
	if err := mustOwn(caller, item.UserID); err != nil {
		return models.CartItem{}, err
	}
	return item, nil
}

func outOfStock(p models.Product, requested int) error {
	return &StockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.StockQuantity,
		Err:         ErrOutOfStock,
	}
}
