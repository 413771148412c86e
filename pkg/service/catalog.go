package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/repository"
)

type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Image       string  `json:"image" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// ProductUpdate holds the fields to change; nil fields are kept.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
}

func (u ProductUpdate) apply(p *models.Product) error {
	var problems []string
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			problems = append(problems, "name is required")
		}
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		if *u.Price < 0 {
			problems = append(problems, "price must not be negative")
		}
		p.Price = *u.Price
	}
	if u.Category != nil {
		if strings.TrimSpace(*u.Category) == "" {
			problems = append(problems, "category is required")
		}
		p.Category = *u.Category
	}
	if u.Image != nil {
		if strings.TrimSpace(*u.Image) == "" {
			problems = append(problems, "image is required")
		}
		p.Image = *u.Image
	}
	if u.Stock != nil {
		if *u.Stock < 0 {
			problems = append(problems, "stock must not be negative")
		}
		p.Stock = *u.Stock
	}
	if len(problems) > 0 {
		return newError(KindValidation, "%s", strings.Join(problems, "; "))
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context, category string) ([]*models.Product, error) {
	products, err := s.store.ListProducts(ctx, repository.ProductFilter{Category: category})
	if err != nil {
		return nil, s.fail(ctx, "list products", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Product not found")
	}
	if err != nil {
		return nil, s.fail(ctx, "get product", err)
	}
	return p, nil
}

func (s *Service) CreateProduct(ctx context.Context, caller *models.User, in ProductInput) (*models.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		ID:          repository.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, s.fail(ctx, "create product", err)
	}
	s.log(ctx).Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, caller *models.User, id string, in ProductUpdate) (*models.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	stockBefore := p.Stock
	if err := in.apply(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if in.Stock == nil || *in.Stock == stockBefore {
			return nil
		}
		return s.store.SetStock(ctx, p.ID, stockBefore, *in.Stock)
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, newError(KindNotFound, "Product not found")
	case errors.Is(err, repository.ErrConflict):
		return nil, &Error{Kind: KindConflict, Message: "Stock changed while you were editing, please reload the product", Err: err}
	case err != nil:
		return nil, s.fail(ctx, "update product", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, caller *models.User, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	err := s.store.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "Product not found")
	}
	if err != nil {
		return s.fail(ctx, "delete product", err)
	}
	s.log(ctx).Info("Product removed", zap.String("product_id", id))
	return nil
}
