package service

import (
	"context"
	"errors"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/repository"
)

type WishlistView struct {
	Products []*models.Product `json:"products"`
}

func (s *Service) GetWishlist(ctx context.Context, caller *models.User) (*WishlistView, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	w, err := s.store.GetWishlist(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &WishlistView{Products: []*models.Product{}}, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "get wishlist", err)
	}
	return s.resolveWishlist(ctx, w)
}

// AddToWishlist is idempotent; the product must exist.
func (s *Service) AddToWishlist(ctx context.Context, caller *models.User, productID string) (*WishlistView, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.store.AddToWishlist(ctx, caller.ID, productID)
	if err != nil {
		return nil, s.fail(ctx, "add to wishlist", err)
	}
	return s.resolveWishlist(ctx, w)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, caller *models.User, productID string) (*WishlistView, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	w, err := s.store.RemoveFromWishlist(ctx, caller.ID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return &WishlistView{Products: []*models.Product{}}, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "remove from wishlist", err)
	}
	return s.resolveWishlist(ctx, w)
}

// resolveWishlist loads the listed products, dropping any that were deleted.
func (s *Service) resolveWishlist(ctx context.Context, w *models.Wishlist) (*WishlistView, error) {
	view := &WishlistView{Products: make([]*models.Product, 0, len(w.Products))}
	for _, id := range w.Products {
		p, err := s.store.GetProduct(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, s.fail(ctx, "resolve wishlist", err)
		}
		view.Products = append(view.Products, p)
	}
	return view, nil
}
