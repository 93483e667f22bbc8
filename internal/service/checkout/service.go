// Package checkout оформляет заказ из текущей корзины.
package checkout

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// Cart: локальная корзина.
type Cart interface {
	Cart() domain.Cart
	Clear(ctx context.Context) domain.Cart
}

// Session: текущая сессия покупателя.
type Session interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// Orders: серверные операции с заказами.
type Orders interface {
	CreateOrder(ctx context.Context, draft domain.Order) (domain.Order, error)
	Orders(ctx context.Context) ([]domain.Order, error)
}

// Service собирает заказ из корзины и отправляет его на сервер.
type Service struct {
	cart     Cart
	session  Session
	orders   Orders
	currency string
	logger   *log.Entry
}

// New создаёт сервис оформления. Пустая валюта заменяется на domain.DefaultCurrency.
func New(cart Cart, session Session, orders Orders, currency string, logger *log.Entry) *Service {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if logger == nil {
		logger = log.WithField("component", "checkout")
	}
	return &Service{cart: cart, session: session, orders: orders, currency: currency, logger: logger}
}

// Draft строит черновик заказа из корзины без отправки.
func (s *Service) Draft(ctx context.Context, addressID, notes string) (domain.Order, error) {
	user, err := s.session.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	cart := s.cart.Cart()
	if cart.IsEmpty() {
		return domain.Order{}, domain.ErrItemsRequired
	}

	draft := domain.Order{
		UserID:    user.ID,
		Status:    domain.OrderStatusPending,
		Currency:  s.currency,
		Amount:    cart.Subtotal(),
		Items:     domain.OrderItemsFromCart(cart),
		AddressID: addressID,
		Notes:     notes,
	}
	if errs := draft.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}
	return draft, nil
}

// PlaceOrder отправляет заказ и очищает корзину при успехе.
// При ошибке корзина не меняется.
func (s *Service) PlaceOrder(ctx context.Context, addressID, notes string) (domain.Order, error) {
	draft, err := s.Draft(ctx, addressID, notes)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		s.logger.WithError(err).WithField("items", len(draft.Items)).Warn("order rejected")
		return domain.Order{}, err
	}

	s.cart.Clear(ctx)
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	}).Info("order placed")
	return order, nil
}

// History возвращает заказы пользователя.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	if _, err := s.session.CurrentUser(ctx); err != nil {
		return nil, domain.ErrNotAuthenticated
	}
	return s.orders.Orders(ctx)
}
