package store

import (
	"context"
	"fmt"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
)

const cartItemColumns = `ci.id, ci.user_id, ci.product_id, ci.quantity, ci.added_at`

func (s *Store) CartItem(ctx context.Context, id int64) (models.CartItem, error) {
	var it models.CartItem
	err := s.db.QueryRowContext(ctx, "SELECT "+cartItemColumns+" FROM cart_items ci WHERE ci.id = ?", id).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt)
	return it, notFound(err)
}

func (s *Store) CartItemFor(ctx context.Context, userID, productID int64) (models.CartItem, error) {
	var it models.CartItem
	err := s.db.QueryRowContext(ctx,
		"SELECT "+cartItemColumns+" FROM cart_items ci WHERE ci.user_id = ? AND ci.product_id = ?",
		userID, productID).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt)
	return it, notFound(err)
}

func (s *Store) InsertCartItem(ctx context.Context, item *models.CartItem) error {
	if item.AddedAt.IsZero() {
		item.AddedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cart_items (user_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?)",
		item.UserID, item.ProductID, item.Quantity, item.AddedAt)
	if err != nil {
		return duplicate(err, shop.ErrConflict)
	}
	item.ID, err = res.LastInsertId()
	return err
}

func (s *Store) SetCartItemQuantity(ctx context.Context, id int64, qty int) error {
	_, err := s.db.ExecContext(ctx, "UPDATE cart_items SET quantity = ? WHERE id = ?", qty, id)
	return err
}

func (s *Store) DeleteCartItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *Store) CartLines(ctx context.Context, userID int64) ([]shop.CartLine, error) {
	return cartLines(ctx, s.db, userID, false)
}

// cartLines joins a user's cart with the products. With lock set, the
// product rows stay locked until the surrounding transaction ends; rows are
// locked in product id order so concurrent checkouts cannot deadlock on them.
func cartLines(ctx context.Context, q Querier, userID int64, lock bool) ([]shop.CartLine, error) {
	query := "SELECT " + cartItemColumns + ", " + productColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = ?`
	if lock {
		query += " ORDER BY p.id FOR UPDATE"
	} else {
		query += " ORDER BY ci.added_at, ci.id"
	}

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []shop.CartLine
	for rows.Next() {
		var l shop.CartLine
		dest := []any{&l.Item.ID, &l.Item.UserID, &l.Item.ProductID, &l.Item.Quantity, &l.Item.AddedAt}
		if err := rows.Scan(append(dest, productDest(&l.Product)...)...); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
