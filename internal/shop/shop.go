// Package shop holds the storefront's business rules: the catalog, carts,
// the order engine, reviews and accounts. Persistence is reached through the
// repository interfaces in ports.go.
package shop

import (
	"context"
	"fmt"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
)

// ProductReader is the slice of the catalog the cart and review ledger need.
type ProductReader interface {
	ProductByID(ctx context.Context, id int64) (models.Product, error)
}

// PageResult is one page of a listing plus paging metadata.
type PageResult[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Pages   int `json:"pages"`
}

func newPageResult[T any](items []T, total int, p Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PerPage > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return PageResult[T]{Items: items, Total: total, Page: p.Number, PerPage: p.PerPage, Pages: pages}
}

// authorize turns a gate decision into an error.
func authorize(c access.Caller, caps ...access.Capability) error {
	d := access.Check(c, caps...)
	switch d.Denial {
	case access.DenyNone:
		return nil
	case access.DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
}

func mustOwn(c access.Caller, ownerID int64) error {
	d := access.Check(c, access.Owns(ownerID))
	switch d.Denial {
	case access.DenyNone:
		return nil
	case access.DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrNotOwner
	}
}
