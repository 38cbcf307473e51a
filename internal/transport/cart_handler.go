package transport

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"monocart/internal/domain"
	"monocart/internal/middleware"
	"monocart/internal/session"
	"monocart/internal/store"
)

// CartResponse is the cart lines with their computed totals
type CartResponse struct {
	Items  []domain.CartItem `json:"items"`
	Totals store.Totals      `json:"totals"`
}

// QuantityRequest sets the quantity of a cart line
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// FavoriteRequest names a product to favorite
type FavoriteRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// MoveToCartResponse reports how many favorites were added to the cart
type MoveToCartResponse struct {
	Moved int          `json:"moved"`
	Cart  CartResponse `json:"cart"`
}

// CartHandler serves the client-owned cart and the user's favorites
type CartHandler struct {
	session *session.Session
	store   *store.Store
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(sess *session.Session, st *store.Store, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		session: sess,
		store:   st,
		logger:  logger,
	}
}

// RegisterRoutes registers cart and favorites routes. The cart works
// anonymously; favorites need a session.
func (h *CartHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/", h.ClearCart)
		r.Patch("/{key}", h.UpdateQuantity)
		r.Delete("/{key}", h.RemoveFromCart)
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/", h.ListFavorites)
		r.Post("/", h.AddFavorite)
		r.Delete("/{productId}", h.RemoveFavorite)
		r.Post("/move-to-cart", h.MoveToCart)
	})
}

func (h *CartHandler) cart() CartResponse {
	return CartResponse{
		Items:  h.store.Cart.Items(),
		Totals: h.store.Cart.Totals(),
	}
}

// lineKey reads the cart line key, which may arrive path-escaped
func lineKey(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

// GetCart returns the cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.cart())
}

// AddToCart adds a product snapshot, merging with an existing line
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CartItem
	if !decode(w, r, &req, h.logger) {
		return
	}

	if err := h.store.Cart.Add(req); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, h.cart())
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Cart.Clear()
	middleware.RespondWithJSON(w, http.StatusOK, h.cart())
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	key := lineKey(r)
	if !h.store.Cart.UpdateQuantity(key, req.Quantity) {
		middleware.RespondWithDomainError(w, fmt.Errorf("cart line %q: %w", key, store.ErrNotFound), h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.cart())
}

// RemoveFromCart deletes a line
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	key := lineKey(r)
	if !h.store.Cart.Remove(key) {
		middleware.RespondWithDomainError(w, fmt.Errorf("cart line %q: %w", key, store.ErrNotFound), h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.cart())
}

// ListFavorites loads the user's favorites
func (h *CartHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites := h.store.Favorites
	if err := favorites.FetchAll(r.Context(), h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(favorites.Items(), favorites.LastFetched()))
}

// AddFavorite favorites a product, loading it first when it is not in the catalog slice
func (h *CartHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	product, ok := h.store.Products.Get(req.ProductID)
	if !ok {
		var err error
		if product, err = h.store.Products.FetchByID(r.Context(), req.ProductID); err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	favorites := h.store.Favorites
	if err := favorites.Add(r.Context(), product, h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, newList(favorites.Items(), favorites.LastFetched()))
}

// RemoveFavorite unfavorites a product
func (h *CartHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	favorites := h.store.Favorites
	if err := favorites.Remove(r.Context(), chi.URLParam(r, "productId"), h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(favorites.Items(), favorites.LastFetched()))
}

// MoveToCart adds every in-stock favorite to the cart
func (h *CartHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	moved := h.store.Favorites.MoveToCart(h.store.Cart)
	middleware.RespondWithJSON(w, http.StatusOK, MoveToCartResponse{Moved: moved, Cart: h.cart()})
}
