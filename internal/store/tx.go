package store

import (
	"context"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
)

// txStore is the shop.Tx handed to InTx callbacks.
type txStore struct {
	q   Querier
	now func() time.Time
}

func (t *txStore) LockCartLines(ctx context.Context, userID int64) ([]shop.CartLine, error) {
	return cartLines(ctx, t.q, userID, true)
}

func (t *txStore) OrderNumberTaken(ctx context.Context, number string) (bool, error) {
	var taken bool
	err := t.q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = ?)", number).Scan(&taken)
	return taken, err
}

func (t *txStore) InsertOrder(ctx context.Context, o *models.Order) error {
	o.CreatedAt = t.now()
	o.UpdatedAt = o.CreatedAt
	query := `
		INSERT INTO orders
			(order_number, user_id, total_amount, status, payment_status,
			 shipping_address, billing_address, payment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.q.ExecContext(ctx, query,
		o.OrderNumber, o.UserID, o.TotalAmount, o.Status, o.PaymentStatus,
		o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return duplicate(err, shop.ErrConflict)
	}
	o.ID, err = res.LastInsertId()
	return err
}

func (t *txStore) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)",
		item.OrderID, item.ProductID, item.Quantity, item.Price)
	if err != nil {
		return err
	}
	item.ID, err = res.LastInsertId()
	return err
}

// DecrementStock is guarded by the stock check in its WHERE clause, so stock
// can never go negative even if the rows were not locked first.
func (t *txStore) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = ? WHERE id = ? AND stock_quantity >= ?",
		qty, t.now(), productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (t *txStore) RestockProduct(ctx context.Context, productID int64, qty int) error {
	_, err := t.q.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?",
		qty, t.now(), productID)
	return err
}

func (t *txStore) ClearCart(ctx context.Context, userID int64) error {
	_, err := t.q.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return err
}

func (t *txStore) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	return orderByID(ctx, t.q, id, true)
}

func (t *txStore) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := t.q.ExecContext(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, t.now(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
