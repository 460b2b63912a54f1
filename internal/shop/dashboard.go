package shop

import (
	"context"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
	"golang.org/x/sync/errgroup"
)

const recentOrdersLimit = 5

// AdminBoard aggregates the back-office dashboard.
type AdminBoard struct {
	catalog CatalogRepo
	orders  OrderRepo
	users   UserRepo
}

func NewAdminBoard(catalog CatalogRepo, orders OrderRepo, users UserRepo) *AdminBoard {
	return &AdminBoard{catalog: catalog, orders: orders, users: users}
}

type Dashboard struct {
	TotalProducts   int            `json:"totalProducts"`
	TotalOrders     int            `json:"totalOrders"`
	TotalUsers      int            `json:"totalUsers"`
	PendingOrders   int            `json:"pendingOrders"`
	ConfirmedOrders int            `json:"confirmedOrders"`
	RecentOrders    []models.Order `json:"recentOrders"`
}

// Dashboard runs the independent count queries concurrently.
func (b *AdminBoard) Dashboard(ctx context.Context, caller access.Caller) (Dashboard, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return Dashboard{}, err
	}

	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalProducts, err = b.catalog.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalOrders, err = b.orders.CountOrders(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		d.TotalUsers, err = b.users.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.PendingOrders, err = b.orders.CountOrders(ctx, models.OrderStatusPending)
		return err
	})
	g.Go(func() (err error) {
		d.ConfirmedOrders, err = b.orders.CountOrders(ctx, models.OrderStatusConfirmed)
		return err
	})
	g.Go(func() error {
		recent, _, err := b.orders.ListOrders(ctx, Page{Number: 1, PerPage: recentOrdersLimit})
		d.RecentOrders = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []models.Order{}
	}
	return d, nil
}
