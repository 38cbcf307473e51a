package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/config"
	"monocart/internal/normalize"
)

var (
	ErrNotAuthenticated = apiclient.ErrNotAuthenticated
	ErrNotFound         = errors.New("not found in the loaded collection")
	ErrNotCancellable   = errors.New("only pending orders can be cancelled")
	ErrEmptyCart        = errors.New("cart is empty")
)

// UnauthorizedFunc is invoked when the API rejects a token
type UnauthorizedFunc func(ctx context.Context, reason string)

// Deps are the collaborators every slice shares
type Deps struct {
	API            *apiclient.Client
	Normalizer     *normalize.Normalizer
	Logger         *zap.Logger
	OnUnauthorized UnauthorizedFunc
	Now            func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// report converts err into the user-facing message and triggers the
// unauthorized hook on a 401
func (d Deps) report(ctx context.Context, slice, op string, err error) string {
	msg := apiclient.Message(err)

	if apiclient.IsUnauthorized(err) {
		d.Logger.Warn("Unauthorized response", zap.String("slice", slice), zap.String("op", op))
		if d.OnUnauthorized != nil {
			d.OnUnauthorized(ctx, slice+"."+op)
		}
		return msg
	}

	d.Logger.Warn("Operation failed",
		zap.String("slice", slice),
		zap.String("op", op),
		zap.Error(err),
	)
	return msg
}

func (d Deps) discarded(slice string, seq uint64) {
	d.Logger.Debug("Discarded stale response", zap.String("slice", slice), zap.Uint64("seq", seq))
}

func requireToken(token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	return nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Store bundles every slice of the storefront
type Store struct {
	Products      *Products
	Categories    *Categories
	Subcategories *Subcategories
	Orders        *Orders
	Users         *Users
	Favorites     *Favorites
	Cart          *Cart
	Checkout      *Checkout
}

// New wires all slices with the staleness windows from cfg
func New(deps Deps, staleness config.StalenessConfig, session Authenticator) *Store {
	cart := NewCart()
	orders := NewOrders(deps, staleness.Orders)

	return &Store{
		Products:      NewProducts(deps, staleness.Products),
		Categories:    NewCategories(deps, staleness.Categories),
		Subcategories: NewSubcategories(deps, staleness.Subcategories),
		Orders:        orders,
		Users:         NewUsers(deps, staleness.Users),
		Favorites:     NewFavorites(deps),
		Cart:          cart,
		Checkout:      NewCheckout(session, cart, orders, deps.Logger),
	}
}

// ClearUserData drops the slices owned by the signed-in user. The cart and
// the catalog survive a logout.
func (s *Store) ClearUserData() {
	s.Orders.Reset()
	s.Favorites.Reset()
	s.Users.Reset()
}
