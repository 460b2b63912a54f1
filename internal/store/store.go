// Package store implements the shop repositories on MySQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers we react to.
const (
	errDupEntry = 1062
	errDeadlock = 1213
)

// deadlockRetries bounds how often a transaction is replayed after InnoDB
// picks it as a deadlock victim.
const deadlockRetries = 3

// Querier is satisfied by both *sql.DB and *sql.Tx, so the same query helpers
// run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements every shop repository plus shop.TxRunner.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

var (
	_ shop.UserRepo    = (*Store)(nil)
	_ shop.CatalogRepo = (*Store)(nil)
	_ shop.CartRepo    = (*Store)(nil)
	_ shop.OrderRepo   = (*Store)(nil)
	_ shop.ReviewRepo  = (*Store)(nil)
	_ shop.TxRunner    = (*Store)(nil)
)

// InTx runs fn in a serializable transaction, like the checkout flow always
// has. A deadlock victim is replayed from the start.
func (s *Store) InTx(ctx context.Context, fn func(tx shop.Tx) error) error {
	var err error
	for attempt := 0; attempt < deadlockRetries; attempt++ {
		err = s.inTx(ctx, fn)
		if !isMySQLError(err, errDeadlock) {
			return err
		}
	}
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx shop.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // Safety net

	if err := fn(&txStore{q: tx, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows onto shop.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return shop.ErrNotFound
	}
	return err
}

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// duplicate maps a unique-key violation onto target.
func duplicate(err, target error) error {
	if isMySQLError(err, errDupEntry) {
		return target
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return shop.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const productColumns = `p.id, p.category_id, p.name, COALESCE(p.description, ''), p.sku, p.image_url,
	p.price, p.discounted_price, p.stock_quantity, p.is_active, p.created_at, p.updated_at`

func productDest(p *models.Product) []any {
	return []any{
		&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.SKU, &p.ImageURL,
		&p.Price, &p.DiscountedPrice, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanProduct(row scanner, p *models.Product, extra ...any) error {
	return row.Scan(append(productDest(p), extra...)...)
}
