package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/media"
	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/01moynul/tshirtstore-golang/internal/store"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubTokens map[string]int64

func (s stubTokens) Validate(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

type stubUsers map[int64]access.Caller

func (s stubUsers) Caller(_ context.Context, id int64) (access.Caller, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return access.Anonymous, errors.New("no such user")
}

// newTestHandlers wires the services to a sqlmock-backed store.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	reviews := shop.NewReviewLedger(st, st)
	h := &Handlers{
		Catalog:         shop.NewCatalog(st, reviews, 12),
		Carts:           shop.NewCartStore(st, st),
		Orders:          shop.NewOrderEngine(st, st, discard),
		Reviews:         reviews,
		Board:           shop.NewAdminBoard(st, st, st),
		Media:           media.NewStore(t.TempDir(), "http://shop.test", 64),
		Log:             discard,
		CheckoutTimeout: time.Second,
	}
	return h, mock
}

func newTestRouter(h *Handlers) *gin.Engine {
	tokens := stubTokens{"alice-token": 1, "admin-token": 2}
	users := stubUsers{
		1: {UserID: 1, Username: "alice", Authenticated: true},
		2: {UserID: 2, Username: "root", IsAdmin: true, Authenticated: true},
	}

	r := gin.New()
	r.Use(middleware.Identify(tokens, users, discard))
	r.GET("/categories", h.GetCategories)
	r.POST("/cart/items", h.AddToCart)
	r.PATCH("/cart/items/:id", h.UpdateCartItem)
	r.POST("/checkout", h.Checkout)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/products/:id/reviews", h.AddReview)
	r.PATCH("/admin/orders/:id/status", h.UpdateOrderStatus)
	r.POST("/admin/uploads", h.UploadFile)
	return r
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &shop.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{"unauthenticated", shop.ErrUnauthenticated, http.StatusUnauthorized},
		{"bad credentials", shop.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", shop.ErrNotOwner, http.StatusForbidden},
		{"not found", fmt.Errorf("load product: %w", shop.ErrNotFound), http.StatusNotFound},
		{"stock", &shop.StockError{ProductID: 3, Requested: 2, Available: 1, Err: shop.ErrInsufficientStock}, http.StatusConflict},
		{"duplicate review", shop.ErrDuplicateReview, http.StatusConflict},
		{"conflict", shop.ErrConflict, http.StatusConflict},
		{"transition", shop.ErrInvalidTransition, http.StatusConflict},
		{"empty cart", shop.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"image type", media.ErrUnsupportedType, http.StatusBadRequest},
		{"image size", media.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	h := &Handlers{Log: discard}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRespondErrorStockDetails(t *testing.T) {
	h := &Handlers{Log: discard}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout", nil)

	h.respondError(c, &shop.StockError{
		ProductID: 7, ProductName: "Logo Tee", Requested: 3, Available: 1, Err: shop.ErrInsufficientStock,
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Logo Tee", body["product"])
	assert.EqualValues(t, 3, body["requested"])
	assert.EqualValues(t, 1, body["available"])
	assert.Contains(t, body["error"], "insufficient stock")
}

func TestGetCategories(t *testing.T) {
	h, mock := newTestHandlers(t)
	mock.ExpectQuery("SELECT id, name, slug").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "description", "created_at"}).
			AddRow(1, "Graphic Tees", "graphic-tees", "", time.Now()))

	w := do(newTestRouter(h), http.MethodGet, "/categories", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"graphic-tees"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutInput(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := newTestRouter(h)

	t.Run("unknown payment method", func(t *testing.T) {
		w := do(r, http.MethodPost, "/checkout", "alice-token",
			`{"shippingAddress":"1 Main St","billingAddress":"1 Main St","paymentMethod":"cash"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing address", func(t *testing.T) {
		w := do(r, http.MethodPost, "/checkout", "alice-token",
			`{"billingAddress":"1 Main St","paymentMethod":"paypal"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := do(r, http.MethodPost, "/checkout", "",
			`{"shippingAddress":"1 Main St","billingAddress":"1 Main St","paymentMethod":"paypal"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet(), "no query may run for rejected input")
}

func TestCartInput(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := do(r, http.MethodPost, "/cart/items", "alice-token", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/cart/items/4", "alice-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "quantity is required")

	w = do(r, http.MethodPatch, "/cart/items/abc", "alice-token", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewAndStatusInput(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := do(r, http.MethodPost, "/products/1/reviews", "alice-token", `{"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/admin/orders/1/status", "admin-token", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/orders/0", "alice-token", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func upload(r http.Handler, token, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", filename)
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadFile(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	t.Run("stores image", func(t *testing.T) {
		w := upload(r, "admin-token", "Front.PNG", []byte("fake png bytes"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var body struct {
			URL  string `json:"url"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, strings.HasPrefix(body.URL, "http://shop.test/uploads/"))
		assert.Equal(t, ".png", filepath.Ext(body.Name))

		_, err := os.Stat(filepath.Join(h.Media.Dir(), body.Name))
		assert.NoError(t, err)
	})

	t.Run("rejects other types", func(t *testing.T) {
		w := upload(r, "admin-token", "run.exe", []byte("MZ"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		w := upload(r, "admin-token", "big.jpg", bytes.Repeat([]byte("x"), 65))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("no file", func(t *testing.T) {
		w := do(r, http.MethodPost, "/admin/uploads", "admin-token", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
