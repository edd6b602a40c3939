// Package checkout turns the cart into an order on the signed-in account.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/events"
	"github.com/ariefcatur/go-storefront/internal/metrics"
)

var (
	ErrNotSignedIn = fmt.Errorf("%w: sign in to check out", apperr.ErrAuthentication)
	ErrEmptyCart   = fmt.Errorf("%w: cart has no orderable items", apperr.ErrValidation)
)

type Request struct {
	ShippingAddress *accounts.Address `json:"shippingAddress,omitempty"`
}

type Service struct {
	Cart     *cart.Store
	Catalog  *catalog.Store
	Accounts *accounts.Store
	// Publisher is optional; without one no events are emitted.
	Publisher events.Publisher
	Producer  string
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Checkout places a pending order for the current user from the cart lines
// that still resolve in the catalog, then empties the cart.
func (s *Service) Checkout(ctx context.Context, req Request) (accounts.Order, error) {
	o, err := s.checkout(ctx, req)
	metrics.Checkouts.WithLabelValues(metrics.Result(err)).Inc()
	return o, err
}

func (s *Service) checkout(ctx context.Context, req Request) (accounts.Order, error) {
	u, ok, err := s.Accounts.CurrentUser(ctx)
	if err != nil {
		return accounts.Order{}, err
	}
	if !ok {
		return accounts.Order{}, ErrNotSignedIn
	}

	var lines []accounts.OrderLine
	for _, it := range s.Cart.Items() {
		p, ok := s.Catalog.GetByID(it.PieceID)
		if !ok {
			s.logger().Warn("cart line dropped at checkout", "piece_id", it.PieceID, "size", it.Size)
			continue
		}
		lines = append(lines, accounts.OrderLine{
			PieceID:  p.ID,
			Name:     p.Name,
			Size:     it.Size,
			Price:    p.Price,
			Quantity: it.Quantity,
		})
	}
	if len(lines) == 0 {
		return accounts.Order{}, ErrEmptyCart
	}

	addr := req.ShippingAddress
	if addr == nil {
		addr = u.Address
	}
	o, err := s.Accounts.AddOrder(ctx, u.ID, accounts.OrderDraft{Items: lines, ShippingAddress: addr})
	if err != nil {
		return accounts.Order{}, err
	}
	if err := s.Cart.ClearCart(ctx); err != nil {
		// The order stands; the cart is left as it was.
		s.logger().Error("clear cart after checkout", "order_id", o.ID, "err", err)
	}
	s.logger().Info("order placed", "order_id", o.ID, "user_id", u.ID, "total", o.Total.StringFixed(2))

	payload := events.OrderPlaced{OrderID: o.ID, UserID: u.ID, Status: string(o.Status), Total: o.Total}
	for _, l := range o.Items {
		payload.Items = append(payload.Items, events.Line{PieceID: l.PieceID, Size: l.Size, Quantity: l.Quantity, Price: l.Price})
	}
	s.publish(ctx, events.EventOrderPlaced, o.ID, payload)
	return o, nil
}

// UpdateOrderStatus sets the status on the owner's order and announces it.
func (s *Service) UpdateOrderStatus(ctx context.Context, userID, orderID string, status accounts.OrderStatus) (accounts.Order, error) {
	o, err := s.Accounts.UpdateOrderStatus(ctx, userID, orderID, status)
	if err != nil {
		return accounts.Order{}, err
	}
	s.publish(ctx, events.EventOrderStatusChanged, o.ID, events.OrderStatusChanged{
		OrderID: o.ID,
		UserID:  userID,
		Status:  string(o.Status),
	})
	return o, nil
}

// publish is best effort: the order is already committed.
func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if s.Publisher == nil {
		return
	}
	env, err := events.New(eventType, s.Producer, orderID, payload)
	if err == nil {
		err = s.Publisher.Publish(ctx, env)
	}
	if err != nil {
		s.logger().Error("publish event", "event_type", eventType, "order_id", orderID, "err", err)
	}
}
