package service

import (
	"context"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/repository"
)

const recentOrdersLimit = 5

type Dashboard struct {
	TotalOrders      int64           `json:"totalOrders"`
	TotalSales       float64         `json:"totalSales"`
	TotalCustomers   int64           `json:"totalCustomers"`
	LowStockProducts int64           `json:"lowStockProducts"`
	RecentOrders     []*models.Order `json:"recentOrders"`
}

func (s *Service) Dashboard(ctx context.Context, caller *models.User) (*Dashboard, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var (
		d   Dashboard
		err error
	)
	if d.TotalOrders, err = s.store.CountOrders(ctx); err != nil {
		return nil, s.fail(ctx, "dashboard", err)
	}
	if d.TotalSales, err = s.store.TotalSales(ctx); err != nil {
		return nil, s.fail(ctx, "dashboard", err)
	}
	if d.TotalCustomers, err = s.store.CountCustomers(ctx); err != nil {
		return nil, s.fail(ctx, "dashboard", err)
	}
	if d.LowStockProducts, err = s.store.CountLowStock(ctx, s.shop.LowStockThreshold); err != nil {
		return nil, s.fail(ctx, "dashboard", err)
	}
	if d.RecentOrders, err = s.listOrders(ctx, repository.OrderFilter{Limit: recentOrdersLimit}); err != nil {
		return nil, err
	}
	return &d, nil
}
