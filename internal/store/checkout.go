package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"monocart/internal/domain"
	"monocart/internal/validate"
)

// RouteOrderSuccess is where a successful checkout lands
const RouteOrderSuccess = "/order-success"

// Authenticator exposes the session facts checkout needs
type Authenticator interface {
	Token() string
	User() domain.User
}

// CheckoutForm is the contact and shipping form
type CheckoutForm struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country"`
}

// CheckoutResult is the outcome of a placed order
type CheckoutResult struct {
	Order      domain.Order `json:"order"`
	Totals     Totals       `json:"totals"`
	RedirectTo string       `json:"redirectTo"`
}

// Checkout turns the cart into an order
type Checkout struct {
	session Authenticator
	cart    *Cart
	orders  *Orders
	logger  *zap.Logger
	newKey  func() string
}

// NewCheckout creates the checkout flow
func NewCheckout(session Authenticator, cart *Cart, orders *Orders, logger *zap.Logger) *Checkout {
	return &Checkout{
		session: session,
		cart:    cart,
		orders:  orders,
		logger:  logger,
		newKey:  func() string { return uuid.New().String() },
	}
}

// PlaceOrder validates the form, requires a session and a non-empty cart,
// creates the order and clears the cart once the API accepted it. Each step
// runs only after the previous one succeeded.
func (c *Checkout) PlaceOrder(ctx context.Context, form CheckoutForm) (CheckoutResult, error) {
	if err := validate.Struct(form); err != nil {
		return CheckoutResult{}, err
	}

	token := c.session.Token()
	if err := requireToken(token); err != nil {
		return CheckoutResult{}, err
	}

	items := c.cart.Items()
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	totals := c.cart.Totals()
	input := OrderInput{
		TotalAmount: totals.Total.InexactFloat64(),
		Items:       make([]OrderLine, 0, len(items)),
	}
	for _, item := range items {
		input.Items = append(input.Items, OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	key := c.newKey()
	order, err := c.orders.Create(ctx, input, token, key)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("failed to create order: %w", err)
	}

	c.cart.Clear()

	c.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", c.session.User().ID),
		zap.String("idempotency_key", key),
		zap.String("total", totals.Total.StringFixed(2)),
	)

	return CheckoutResult{Order: order, Totals: totals, RedirectTo: RouteOrderSuccess}, nil
}
