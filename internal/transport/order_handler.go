package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"monocart/internal/middleware"
	"monocart/internal/session"
	"monocart/internal/store"
)

// OrderHandler serves the user's orders and checkout
type OrderHandler struct {
	session *session.Session
	store   *store.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(sess *session.Session, st *store.Store, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		session: sess,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes registers the session-guarded order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/api/orders", h.ListOrders)
		r.Post("/api/orders/{id}/cancel", h.CancelOrder)
		r.Post("/api/checkout", h.Checkout)
	})
}

func (h *OrderHandler) fetchOrders(r *http.Request) error {
	return h.store.Orders.FetchByUser(r.Context(), h.session.User().ID, h.session.Token())
}

// ListOrders returns the signed-in user's orders. refresh=true skips the staleness gate.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.store.Orders
	if r.URL.Query().Get("refresh") == "true" || orders.ShouldFetch(h.now()) {
		if err := h.fetchOrders(r); err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(orders.Items(), orders.LastFetched()))
}

// CancelOrder cancels a pending order, then reloads the order list
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orders := h.store.Orders
	id := chi.URLParam(r, "id")

	// the status check needs the order in the slice
	if _, ok := orders.Get(id); !ok && orders.LastFetched().IsZero() {
		if err := h.fetchOrders(r); err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	if err := orders.Cancel(r.Context(), id, h.session.Token()); err != nil {
		h.logger.Debug("Order cancellation rejected", zap.String("order_id", id), zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Order cancelled", zap.String("order_id", id))

	if err := h.fetchOrders(r); err != nil {
		h.logger.Warn("Failed to refresh orders after cancellation", zap.Error(err))
	}

	order, _ := orders.Get(id)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Checkout places an order from the cart
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req store.CheckoutForm
	if !decode(w, r, &req, h.logger) {
		return
	}

	result, err := h.store.Checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		h.logger.Debug("Checkout failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}
