package shop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory implementation of every repository port.
// Transactions run one at a time and are rolled back from a snapshot,
// which mirrors row locking plus rollback in the real store.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState

	// failOn makes the named Tx method return the error.
	failOn map[string]error
	// beforeDecrement runs inside DecrementStock before the stock check.
	beforeDecrement func(st *memState)
	clock           time.Time
}

type memState struct {
	nextID     int64
	users      map[int64]models.User
	categories map[int64]models.Category
	products   map[int64]models.Product
	cart       map[int64]models.CartItem
	orders     map[int64]models.Order
	reviews    map[int64]models.Review
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			users:      map[int64]models.User{},
			categories: map[int64]models.Category{},
			products:   map[int64]models.Product{},
			cart:       map[int64]models.CartItem{},
			orders:     map[int64]models.Order{},
			reviews:    map[int64]models.Review{},
		},
		failOn: map[string]error{},
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s memState) clone() memState {
	c := memState{
		nextID:     s.nextID,
		users:      make(map[int64]models.User, len(s.users)),
		categories: make(map[int64]models.Category, len(s.categories)),
		products:   make(map[int64]models.Product, len(s.products)),
		cart:       make(map[int64]models.CartItem, len(s.cart)),
		orders:     make(map[int64]models.Order, len(s.orders)),
		reviews:    make(map[int64]models.Review, len(s.reviews)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]models.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

func (s *memStore) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

// --- seeding helpers ---

func (s *memStore) addUser(username string, admin bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.id(), Username: username, Email: username + "@example.com", IsAdmin: admin, CreatedAt: s.tick()}
	s.st.users[u.ID] = u
	return u
}

func (s *memStore) addCategory(name string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Category{ID: s.id(), Name: name, Slug: strings.ToLower(name), CreatedAt: s.tick()}
	s.st.categories[c.ID] = c
	return c
}

func (s *memStore) addProduct(categoryID int64, name, price string, stock int) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	p := models.Product{
		ID:            s.id(),
		CategoryID:    categoryID,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.st.products[p.ID] = p
	return p
}

func (s *memStore) updateProduct(id int64, fn func(p *models.Product)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.st.products[id]
	fn(&p)
	s.st.products[id] = p
}

func (s *memStore) product(id int64) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.products[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func (s *memStore) cartSize(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.st.cart {
		if it.UserID == userID {
			n++
		}
	}
	return n
}

// --- UserRepo ---

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrConflict
		}
	}
	u.ID = s.id()
	s.st.users[u.ID] = *u
	return nil
}

func (s *memStore) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *memStore) ListUsers(_ context.Context, page Page) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.st.users))
	for _, u := range s.st.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return paginate(users, page), len(users), nil
}

func (s *memStore) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.users), nil
}

// --- CatalogRepo ---

func (s *memStore) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.categories {
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return ErrConflict
		}
	}
	c.ID = s.id()
	c.CreatedAt = s.tick()
	s.st.categories[c.ID] = *c
	return nil
}

func (s *memStore) CategoryByID(_ context.Context, id int64) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.categories[id]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	return c, nil
}

func (s *memStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cats []models.Category
	for _, c := range s.st.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (s *memStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	s.st.products[p.ID] = *p
	return nil
}

func (s *memStore) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = s.tick()
	s.st.products[p.ID] = *p
	return nil
}

func (s *memStore) ProductByID(_ context.Context, id int64) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListProducts(_ context.Context, f ProductFilter) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	search := strings.ToLower(f.Search)
	for _, p := range s.st.products {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if f.DiscountedOnly && !p.HasDiscount() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case SortPriceLow:
			return a.Price.LessThan(b.Price)
		case SortPriceHigh:
			return a.Price.GreaterThan(b.Price)
		case SortName:
			return a.Name < b.Name
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return paginate(out, f.Page), len(out), nil
}

func (s *memStore) RelatedProducts(_ context.Context, p models.Product, limit int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, other := range s.st.products {
		if other.ID != p.ID && other.CategoryID == p.CategoryID && other.IsActive {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CountProducts(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.products), nil
}

// --- CartRepo ---

func (s *memStore) CartItem(_ context.Context, id int64) (models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.cart[id]
	if !ok {
		return models.CartItem{}, ErrNotFound
	}
	return it, nil
}

func (s *memStore) CartItemFor(_ context.Context, userID, productID int64) (models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.st.cart {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return models.CartItem{}, ErrNotFound
}

func (s *memStore) InsertCartItem(_ context.Context, item *models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.st.cart {
		if it.UserID == item.UserID && it.ProductID == item.ProductID {
			return ErrConflict
		}
	}
	item.ID = s.id()
	item.AddedAt = s.tick()
	s.st.cart[item.ID] = *item
	return nil
}

func (s *memStore) SetCartItemQuantity(_ context.Context, id int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.cart[id]
	if !ok {
		return ErrNotFound
	}
	it.Quantity = qty
	s.st.cart[id] = it
	return nil
}

func (s *memStore) DeleteCartItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.cart[id]; !ok {
		return ErrNotFound
	}
	delete(s.st.cart, id)
	return nil
}

func (s *memStore) CartLines(_ context.Context, userID int64) ([]CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked(userID), nil
}

func (s *memStore) linesLocked(userID int64) []CartLine {
	var lines []CartLine
	for _, it := range s.st.cart {
		if it.UserID == userID {
			lines = append(lines, CartLine{Item: it, Product: s.st.products[it.ProductID]})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Item.ID < lines[j].Item.ID })
	return lines
}

// --- OrderRepo ---

func (s *memStore) OrderByID(_ context.Context, id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o, nil
}

func (s *memStore) OrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListOrders(_ context.Context, page Page) ([]models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.st.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page), len(out), nil
}

func (s *memStore) CountOrders(_ context.Context, status models.OrderStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.st.orders {
		if status == "" || o.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SetPaymentStatus(_ context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok || o.PaymentStatus != from {
		return false, nil
	}
	o.PaymentStatus = to
	s.st.orders[id] = o
	return true, nil
}

// --- ReviewRepo ---

func (s *memStore) ReviewFor(_ context.Context, userID, productID int64) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.reviews {
		if r.UserID == userID && r.ProductID == productID {
			return r, nil
		}
	}
	return models.Review{}, ErrNotFound
}

func (s *memStore) InsertReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return ErrDuplicateReview
		}
	}
	r.ID = s.id()
	s.st.reviews[r.ID] = *r
	return nil
}

func (s *memStore) ApprovedReviews(_ context.Context, productID int64) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, r := range s.st.reviews {
		if r.ProductID == productID && r.IsApproved {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) AverageRating(ctx context.Context, productID int64) (float64, error) {
	reviews, _ := s.ApprovedReviews(ctx, productID)
	if len(reviews) == 0 {
		return 0, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), nil
}

// --- TxRunner / Tx ---

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	err := fn(&memTx{s: s})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) fail(op string) error { return t.s.failOn[op] }

func (t *memTx) LockCartLines(_ context.Context, userID int64) ([]CartLine, error) {
	if err := t.fail("LockCartLines"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	lines := t.s.linesLocked(userID)
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

func (t *memTx) OrderNumberTaken(_ context.Context, number string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, o := range t.s.st.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *models.Order) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o.ID = t.s.id()
	o.CreatedAt = t.s.tick()
	o.UpdatedAt = o.CreatedAt
	t.s.st.orders[o.ID] = *o
	return nil
}

func (t *memTx) InsertOrderItem(_ context.Context, item *models.OrderItem) error {
	if err := t.fail("InsertOrderItem"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o, ok := t.s.st.orders[item.OrderID]
	if !ok {
		return errors.New("order row missing")
	}
	item.ID = t.s.id()
	o.Items = append(o.Items, *item)
	t.s.st.orders[o.ID] = o
	return nil
}

func (t *memTx) DecrementStock(_ context.Context, productID int64, qty int) (bool, error) {
	if err := t.fail("DecrementStock"); err != nil {
		return false, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.beforeDecrement != nil {
		t.s.beforeDecrement(&t.s.st)
	}
	p := t.s.st.products[productID]
	if p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	t.s.st.products[productID] = p
	return true, nil
}

func (t *memTx) RestockProduct(_ context.Context, productID int64, qty int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p := t.s.st.products[productID]
	p.StockQuantity += qty
	t.s.st.products[productID] = p
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID int64) error {
	if err := t.fail("ClearCart"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, it := range t.s.st.cart {
		if it.UserID == userID {
			delete(t.s.st.cart, id)
		}
	}
	return nil
}

func (t *memTx) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	return t.s.OrderByID(ctx, id)
}

func (t *memTx) SetOrderStatus(_ context.Context, id int64, status models.OrderStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o := t.s.st.orders[id]
	o.Status = status
	t.s.st.orders[id] = o
	return nil
}

func paginate[T any](items []T, p Page) []T {
	if p.PerPage <= 0 {
		return items
	}
	start := p.Offset()
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return nil
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64) (string, error) { return fmt.Sprintf("token-%d", userID), nil }
