package store

import (
	"context"
	"net/url"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
	"monocart/internal/normalize"
)

// Favorites is the signed-in user's favorites slice
type Favorites struct {
	*Slice[domain.FavoriteItem]
	deps Deps
}

type favoriteRequest struct {
	ProductID string `json:"productId"`
}

// NewFavorites creates the favorites slice
func NewFavorites(deps Deps) *Favorites {
	return &Favorites{
		Slice: NewSlice("favorites", 0, func(f domain.FavoriteItem) string { return f.ProductID }),
		deps:  deps,
	}
}

// FetchAll loads the favorites of the token's user
func (f *Favorites) FetchAll(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		f.fail(OpList, apiclient.Message(err))
		return err
	}

	seq := f.beginList()

	raw, err := f.deps.API.Get(ctx, "/favorites/all", nil, token)
	if err != nil {
		f.failList(seq, f.deps.report(ctx, f.Name(), OpList, err))
		return err
	}

	if !f.commitList(seq, f.deps.Normalizer.Favorites(raw), f.deps.now()) {
		f.deps.discarded(f.Name(), seq)
	}
	return nil
}

// Add favorites product and records its snapshot locally after the API accepts it
func (f *Favorites) Add(ctx context.Context, product domain.Product, token string) error {
	if err := requireToken(token); err != nil {
		f.fail(OpCreate, apiclient.Message(err))
		return err
	}

	f.begin(OpCreate)

	if _, err := f.deps.API.Post(ctx, "/favorites/add", favoriteRequest{ProductID: product.ID}, token); err != nil {
		f.fail(OpCreate, f.deps.report(ctx, f.Name(), OpCreate, err))
		return err
	}

	f.upsert(normalize.FavoriteFromProduct(product))
	f.succeed(OpCreate)
	return nil
}

// Remove unfavorites a product
func (f *Favorites) Remove(ctx context.Context, productID, token string) error {
	if err := requireToken(token); err != nil {
		f.fail(OpDelete, apiclient.Message(err))
		return err
	}

	f.begin(OpDelete)

	if _, err := f.deps.API.Delete(ctx, "/favorites/remove/"+url.PathEscape(productID), token); err != nil {
		f.fail(OpDelete, f.deps.report(ctx, f.Name(), OpDelete, err))
		return err
	}

	f.remove(productID)
	f.succeed(OpDelete)
	return nil
}

// Contains reports whether productID is a favorite
func (f *Favorites) Contains(productID string) bool {
	_, ok := f.Get(productID)
	return ok
}

// MoveToCart adds every in-stock favorite to cart and returns how many were added
func (f *Favorites) MoveToCart(cart *Cart) int {
	moved := 0
	for _, fav := range f.Items() {
		if fav.Stock <= 0 {
			continue
		}
		err := cart.Add(domain.CartItem{
			ProductID: fav.ProductID,
			Name:      fav.Name,
			Price:     fav.Price,
			Quantity:  1,
			Image:     fav.Image,
		})
		if err == nil {
			moved++
		}
	}
	return moved
}
