package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
	"monocart/internal/normalize"
	"monocart/internal/validate"
)

// OrderLine is one line of an order submitted at checkout
type OrderLine struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// OrderInput is the create-order payload
type OrderInput struct {
	TotalAmount float64     `json:"totalAmount" validate:"gt=0"`
	Items       []OrderLine `json:"order_items" validate:"required,min=1,dive"`
}

// Orders is the order slice of the signed-in user
type Orders struct {
	*Slice[domain.Order]
	deps Deps
}

// NewOrders creates the orders slice
func NewOrders(deps Deps, window time.Duration) *Orders {
	return &Orders{
		Slice: NewSlice("orders", window, func(o domain.Order) string { return o.ID }),
		deps:  deps,
	}
}

// FetchByUser loads the orders of userID
func (o *Orders) FetchByUser(ctx context.Context, userID, token string) error {
	if err := requireToken(token); err != nil {
		o.fail(OpList, apiclient.Message(err))
		return err
	}
	if userID == "" {
		err := validate.Field("userId", "This field is required")
		o.fail(OpList, apiclient.Message(err))
		return err
	}

	seq := o.beginList()

	raw, err := o.deps.API.Get(ctx, "/orders/user/"+url.PathEscape(userID), nil, token)
	if err != nil {
		o.failList(seq, o.deps.report(ctx, o.Name(), OpList, err))
		return err
	}

	if !o.commitList(seq, o.deps.Normalizer.Orders(raw), o.deps.now()) {
		o.deps.discarded(o.Name(), seq)
	}
	return nil
}

// Create places an order. idempotencyKey is sent as the Idempotency-Key header when set.
func (o *Orders) Create(ctx context.Context, input OrderInput, token, idempotencyKey string) (domain.Order, error) {
	if err := preflight(o.Slice, OpCreate, input, token); err != nil {
		return domain.Order{}, err
	}

	o.begin(OpCreate)

	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}

	raw, err := o.deps.API.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/orders/create",
		Body:   input,
		Token:  token,
		Header: header,
	})
	if err != nil {
		o.fail(OpCreate, o.deps.report(ctx, o.Name(), OpCreate, err))
		return domain.Order{}, err
	}

	order, ok := o.deps.Normalizer.Order(raw)
	if ok {
		o.upsert(order)
	}

	o.succeed(OpCreate)
	return order, nil
}

// Cancel cancels a pending order. Orders in any other status, or not
// loaded, are rejected without a network call.
func (o *Orders) Cancel(ctx context.Context, id, token string) error {
	if err := requireToken(token); err != nil {
		o.fail(OpCancel, apiclient.Message(err))
		return err
	}

	order, ok := o.Get(id)
	if !ok {
		err := fmt.Errorf("order %s: %w", id, ErrNotFound)
		o.fail(OpCancel, "Order not found")
		return err
	}
	if !order.Status.Cancellable() {
		err := fmt.Errorf("order %s is %s: %w", id, order.Status, ErrNotCancellable)
		o.fail(OpCancel, "Only pending orders can be cancelled")
		return err
	}

	o.begin(OpCancel)

	raw, err := o.deps.API.Patch(ctx, "/orders/"+url.PathEscape(id)+"/cancel", nil, token)
	if err != nil {
		o.fail(OpCancel, o.deps.report(ctx, o.Name(), OpCancel, err))
		return err
	}

	if updated, ok := o.deps.Normalizer.Order(raw); ok && updated.ID == id {
		o.upsert(updated)
	} else {
		o.update(id, func(existing domain.Order) domain.Order {
			existing.Status = domain.OrderStatusCancelled
			return existing
		})
	}

	o.succeed(OpCancel)
	return nil
}

// Users is the admin user list slice
type Users struct {
	*Slice[domain.User]
	deps Deps
}

// NewUsers creates the users slice
func NewUsers(deps Deps, window time.Duration) *Users {
	return &Users{
		Slice: NewSlice("users", window, func(u domain.User) string { return u.ID }),
		deps:  deps,
	}
}

// FetchAll loads every user; admin token required
func (u *Users) FetchAll(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		u.fail(OpList, apiclient.Message(err))
		return err
	}

	seq := u.beginList()

	raw, err := u.deps.API.Get(ctx, "/users/all", nil, token)
	if err != nil {
		u.failList(seq, u.deps.report(ctx, u.Name(), OpList, err))
		return err
	}

	if !u.commitList(seq, normalize.Users(raw), u.deps.now()) {
		u.deps.discarded(u.Name(), seq)
	}
	return nil
}
