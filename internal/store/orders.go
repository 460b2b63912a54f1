package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
)

const orderColumns = `o.id, o.order_number, o.user_id, o.total_amount, o.status, o.payment_status,
	o.shipping_address, o.billing_address, o.payment_method, o.created_at, o.updated_at`

func scanOrder(row scanner, o *models.Order) error {
	// user_id is NULL once the account is deleted.
	var userID sql.NullInt64
	err := row.Scan(&o.ID, &o.OrderNumber, &userID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.ShippingAddress, &o.BillingAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	o.UserID = userID.Int64
	return err
}

// orderByID loads an order with its items. With lock set the order row is
// held FOR UPDATE.
func orderByID(ctx context.Context, q Querier, id int64, lock bool) (models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders o WHERE o.id = ?"
	if lock {
		query += " FOR UPDATE"
	}

	var o models.Order
	if err := scanOrder(q.QueryRowContext(ctx, query, id), &o); err != nil {
		return models.Order{}, notFound(err)
	}

	items, err := orderItems(ctx, q, o.ID)
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items
	return o, nil
}

func orderItems(ctx context.Context, q Querier, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, COALESCE(p.name, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.ProductName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) OrderByID(ctx context.Context, id int64) (models.Order, error) {
	return orderByID(ctx, s.db, id, false)
}

// OrdersByUser lists a user's orders without their items.
func (s *Store) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) ListOrders(ctx context.Context, page shop.Page) ([]models.Order, int, error) {
	total, err := s.CountOrders(ctx, "")
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders o ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?",
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	return orders, total, err
}

// CountOrders counts orders in one status, or all orders when status is empty.
func (s *Store) CountOrders(ctx context.Context, status models.OrderStatus) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE status = ?", status).Scan(&n)
	}
	return n, err
}

// SetPaymentStatus only writes when the stored status still equals from.
func (s *Store) SetPaymentStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status = ?",
		to, s.now(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
