package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const orderNumberAttempts = 5

// NewOrderNumber returns "ORD-" followed by 8 upper-case hex characters.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// OrderEngine turns carts into orders and moves orders through their
// lifecycle afterwards.
type OrderEngine struct {
	tx     TxRunner
	orders OrderRepo
	log    *slog.Logger

	newNumber func() string
	perPage   int
}

func NewOrderEngine(tx TxRunner, orders OrderRepo, log *slog.Logger) *OrderEngine {
	if log == nil {
		log = slog.Default()
	}
	return &OrderEngine{tx: tx, orders: orders, log: log, newNumber: NewOrderNumber, perPage: 20}
}

// CheckoutInput carries what the buyer chose at checkout.
type CheckoutInput struct {
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
}

func (in CheckoutInput) validate() error {
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return invalid("shippingAddress", "is required")
	}
	if strings.TrimSpace(in.BillingAddress) == "" {
		return invalid("billingAddress", "is required")
	}
	switch in.PaymentMethod {
	case models.PaymentMethodCreditCard, models.PaymentMethodPayPal:
		return nil
	default:
		return invalid("paymentMethod", "must be credit_card or paypal")
	}
}

// Checkout converts the caller's cart into an order in one transaction:
// stock is re-validated under row locks, each line is snapshotted at its
// current effective price, stock is decremented and the cart is emptied.
// Any failure leaves orders, stock and the cart untouched.
func (e *OrderEngine) Checkout(ctx context.Context, caller access.Caller, in CheckoutInput) (models.Order, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.Order{}, err
	}
	if err := in.validate(); err != nil {
		return models.Order{}, err
	}

	var placed models.Order
	err := e.tx.InTx(ctx, func(tx Tx) error {
		lines, err := tx.LockCartLines(ctx, caller.UserID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, l := range lines {
			available := l.Product.StockQuantity
			if !l.Product.IsActive {
				available = 0
			}
			if l.Item.Quantity > available {
				return insufficient(l.Product, l.Item.Quantity, available)
			}
			item := models.OrderItem{
				ProductID:   l.Product.ID,
				Quantity:    l.Item.Quantity,
				Price:       l.UnitPrice(),
				ProductName: l.Product.Name,
			}
			total = total.Add(item.LineTotal())
			items = append(items, item)
		}

		number, err := e.uniqueOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		order := models.Order{
			OrderNumber:     number,
			UserID:          caller.UserID,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			BillingAddress:  strings.TrimSpace(in.BillingAddress),
			PaymentMethod:   in.PaymentMethod,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range items {
			ok, err := tx.DecrementStock(ctx, items[i].ProductID, items[i].Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				l := lines[i]
				return insufficient(l.Product, items[i].Quantity, l.Product.StockQuantity)
			}
			items[i].OrderID = order.ID
			if err := tx.InsertOrderItem(ctx, &items[i]); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := tx.ClearCart(ctx, caller.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	e.log.Info("order placed",
		slog.Int64("order_id", placed.ID),
		slog.String("order_number", placed.OrderNumber),
		slog.Int64("user_id", caller.UserID),
		slog.String("total", placed.TotalAmount.StringFixed(2)),
	)
	return placed, nil
}

func (e *OrderEngine) uniqueOrderNumber(ctx context.Context, tx Tx) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number := e.newNumber()
		taken, err := tx.OrderNumberTaken(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", fmt.Errorf("no free order number after %d attempts", orderNumberAttempts)
}

// History lists the caller's orders, newest first.
func (e *OrderEngine) History(ctx context.Context, caller access.Caller) ([]models.Order, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return nil, err
	}
	orders, err := e.orders.OrdersByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// Order returns one order with its items. Only the owner or an admin may see it.
func (e *OrderEngine) Order(ctx context.Context, caller access.Caller, id int64) (models.Order, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.Order{}, err
	}
	o, err := e.orders.OrderByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if err := authorize(caller, access.AnyOf(access.Owns(o.UserID), access.Admin())); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// List is the back-office order listing.
func (e *OrderEngine) List(ctx context.Context, caller access.Caller, page Page) (PageResult[models.Order], error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return PageResult[models.Order]{}, err
	}
	page = page.normalize(e.perPage)
	orders, total, err := e.orders.ListOrders(ctx, page)
	if err != nil {
		return PageResult[models.Order]{}, err
	}
	return newPageResult(orders, total, page), nil
}

// AdvanceStatus moves an order along its lifecycle. Cancelling returns the
// ordered quantities to stock in the same transaction; the order's items and
// total never change.
func (e *OrderEngine) AdvanceStatus(ctx context.Context, caller access.Caller, id int64, to models.OrderStatus) (models.Order, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return models.Order{}, err
	}

	var updated models.Order
	err := e.tx.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
		}
		if err := tx.SetOrderStatus(ctx, o.ID, to); err != nil {
			return fmt.Errorf("set order status: %w", err)
		}
		if to == models.OrderStatusCancelled {
			for _, item := range o.Items {
				if err := tx.RestockProduct(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restock product %d: %w", item.ProductID, err)
				}
			}
		}
		o.Status = to
		updated = o
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	e.log.Info("order status changed",
		slog.Int64("order_id", id),
		slog.String("status", string(to)),
		slog.Int64("by_user_id", caller.UserID),
	)
	return updated, nil
}

// SetPaymentStatus records a payment outcome. It is independent of the
// fulfilment status.
func (e *OrderEngine) SetPaymentStatus(ctx context.Context, caller access.Caller, id int64, to models.PaymentStatus) (models.Order, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return models.Order{}, err
	}

	o, err := e.orders.OrderByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransitionPayment(o.PaymentStatus, to) {
		return models.Order{}, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, o.PaymentStatus, to)
	}

	changed, err := e.orders.SetPaymentStatus(ctx, id, o.PaymentStatus, to)
	if err != nil {
		return models.Order{}, err
	}
	if !changed {
		// Someone else moved it between our read and write.
		return models.Order{}, fmt.Errorf("%w: payment status changed concurrently", ErrInvalidTransition)
	}

	o.PaymentStatus = to
	return o, nil
}

func insufficient(p models.Product, requested, available int) error {
	return &StockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   available,
		Err:         ErrInsufficientStock,
	}
}

// IsStockError reports whether err carries a *StockError.
func IsStockError(err error) (*StockError, bool) {
	var se *StockError
	ok := errors.As(err, &se)
	return se, ok
}
