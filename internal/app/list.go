package app

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/listing"
)

// LoadState fetches one catalog page and the cart summary concurrently and
// returns the listing state they describe. Unlike the interactive controller
// it fails when either request fails.
func LoadState(ctx context.Context, products product.Catalog, carts cart.Repository, page int) (listing.State, error) {
	if page < 1 {
		return listing.State{}, errors.Errorf("page %d: must be positive", page)
	}

	var (
		res     *product.Page
		summary *cart.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = products.List(gctx, page, product.PageSize)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = carts.Summary(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return listing.State{}, err
	}

	total := product.TotalPages(res.Count)
	if page > total {
		return listing.State{}, errors.Wrapf(listing.ErrPageOutOfRange, "page %d of %d", page, total)
	}
	return listing.State{
		Products:      res.Products,
		CurrentPage:   page,
		TotalPages:    total,
		CartItemCount: summary.ItemCount(),
	}, nil
}
