package shop

import (
	"context"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/shopspring/decimal"
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number  int
	PerPage int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

func (p Page) normalize(defPerPage int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = defPerPage
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

// Sort orders for product listings.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortName      = "name"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID      int64
	Search          string
	Sort            string
	IncludeInactive bool
	DiscountedOnly  bool
	Page            Page
}

// CartLine is a cart row joined with its product.
type CartLine struct {
	Item    models.CartItem `json:"item"`
	Product models.Product  `json:"product"`
}

// UnitPrice is the product's current effective price.
func (l CartLine) UnitPrice() decimal.Decimal { return l.Product.EffectivePrice() }

// LineTotal is quantity × effective price.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, int, error)
	CountUsers(ctx context.Context) (int, error)
}

type CatalogRepo interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	CategoryByID(ctx context.Context, id int64) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	ProductByID(ctx context.Context, id int64) (models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error)
	RelatedProducts(ctx context.Context, p models.Product, limit int) ([]models.Product, error)
	CountProducts(ctx context.Context) (int, error)
}

type CartRepo interface {
	CartItem(ctx context.Context, id int64) (models.CartItem, error)
	CartItemFor(ctx context.Context, userID, productID int64) (models.CartItem, error)
	InsertCartItem(ctx context.Context, item *models.CartItem) error
	SetCartItemQuantity(ctx context.Context, id int64, qty int) error
	DeleteCartItem(ctx context.Context, id int64) error
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
}

type OrderRepo interface {
	OrderByID(ctx context.Context, id int64) (models.Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, page Page) ([]models.Order, int, error)
	CountOrders(ctx context.Context, status models.OrderStatus) (int, error)
	SetPaymentStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error)
}

type ReviewRepo interface {
	ReviewFor(ctx context.Context, userID, productID int64) (models.Review, error)
	InsertReview(ctx context.Context, r *models.Review) error
	ApprovedReviews(ctx context.Context, productID int64) ([]models.Review, error)
	AverageRating(ctx context.Context, productID int64) (float64, error)
}

// TxRunner runs fn inside one database transaction. fn returning an error,
// or ctx ending, rolls the whole transaction back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of row-level operations the Order Engine performs under a
// transaction.
type Tx interface {
	// LockCartLines returns the user's cart lines and locks their product
	// rows until the transaction ends.
	LockCartLines(ctx context.Context, userID int64) ([]CartLine, error)
	OrderNumberTaken(ctx context.Context, number string) (bool, error)
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	// DecrementStock reports false, and changes nothing, when the product
	// has fewer than qty units left.
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	RestockProduct(ctx context.Context, productID int64, qty int) error
	ClearCart(ctx context.Context, userID int64) error

	LockOrder(ctx context.Context, id int64) (models.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
}
