// Package cart управляет корзиной посетителя: изменения, пересчёт итогов,
// сохранение после каждой операции и уведомление подписчиков.
package cart

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
	"github.com/vladislavdragonenkov/marazul/internal/notify"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
)

// Op: вид изменения корзины.
type Op string

const (
	OpAdd      Op = "add"
	OpRemove   Op = "remove"
	OpUpdate   Op = "update"
	OpIncrease Op = "increase"
	OpDecrease Op = "decrease"
	OpClear    Op = "clear"
	OpReplace  Op = "replace"
)

// Event передаётся подписчикам после каждого изменения.
type Event struct {
	Op        Op
	ProductID string
	Cart      domain.Cart
}

// Option настраивает Service.
type Option func(*Service)

// WithStockClampOnAdd включает или выключает ограничение остатком при добавлении.
// По умолчанию включено.
func WithStockClampOnAdd(enabled bool) Option {
	return func(s *Service) {
		s.clampOnAdd = enabled
	}
}

// WithKey задаёт ключ хранилища для корзины.
func WithKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service хранит корзину в памяти и зеркалирует её в хранилище.
// Память остаётся источником истины, даже если запись не удалась.
type Service struct {
	mu   sync.Mutex
	cart domain.Cart

	store      *storage.JSONStore
	key        string
	clampOnAdd bool

	hub     *notify.Hub[Event]
	logger  *log.Entry
	metrics *metrics.StorefrontMetrics
}

// New создаёт сервис и восстанавливает корзину из хранилища.
func New(ctx context.Context, store *storage.JSONStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		key:        storage.DefaultKeys().Cart,
		clampOnAdd: true,
		hub:        notify.NewHub[Event](),
		logger:     log.WithField("component", "cart"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = s.hydrate(ctx)
	s.metrics.SetCartItems(s.cart.ItemCount())
	return s
}

func (s *Service) hydrate(ctx context.Context) domain.Cart {
	var items []domain.CartItem
	found, err := s.store.GetJSON(ctx, s.key, &items)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("persisted cart is unreadable, starting empty")
		return domain.Cart{Items: []domain.CartItem{}}
	}
	if !found {
		return domain.Cart{Items: []domain.CartItem{}}
	}

	normalized := domain.NormalizeItems(items)
	if len(normalized) != len(items) {
		s.logger.WithFields(log.Fields{
			"persisted": len(items),
			"kept":      len(normalized),
		}).Info("normalized persisted cart")
	}
	return domain.Cart{Items: normalized}
}

// Cart возвращает копию текущей корзины.
func (s *Service) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// ItemCount возвращает сумму количеств.
func (s *Service) ItemCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// Subtotal возвращает сумму цена × количество.
func (s *Service) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

// Subscribe подписывает обработчик на изменения корзины.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// AddItem добавляет товар. Если позиция уже есть, количество увеличивается.
func (s *Service) AddItem(ctx context.Context, product domain.Product, qty int32) (domain.Cart, error) {
	if product.ID == "" {
		return s.Cart(), domain.ErrProductIDRequired
	}
	if qty <= 0 {
		return s.Cart(), domain.ErrItemQtyInvalid
	}
	if product.Price < 0 {
		return s.Cart(), domain.ErrItemPriceInvalid
	}

	return s.mutate(ctx, OpAdd, product.ID, func(c *domain.Cart) error {
		if idx := c.Index(product.ID); idx >= 0 {
			line := c.Items[idx]
			line.Quantity = domain.AddQuantity(line.Quantity, qty)
			if product.Stock > 0 {
				line.StockLimit = product.Stock
			}
			if s.clampOnAdd {
				line.Quantity = domain.ClampQuantity(line.Quantity, line.StockLimit)
			}
			c.Items[idx] = line
			return nil
		}

		line := product.LineItem(qty)
		if s.clampOnAdd {
			line.Quantity = domain.ClampQuantity(line.Quantity, line.StockLimit)
		}
		c.Items = append(c.Items, line)
		return nil
	})
}

// RemoveItem удаляет позицию. Если её нет, возвращает ErrCartItemNotFound
// без сохранения и уведомления.
func (s *Service) RemoveItem(ctx context.Context, productID string) (domain.Cart, error) {
	return s.mutate(ctx, OpRemove, productID, func(c *domain.Cart) error {
		idx := c.Index(productID)
		if idx < 0 {
			return domain.ErrCartItemNotFound
		}
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	})
}

// UpdateQuantity задаёт количество позиции. n <= 0 равносильно RemoveItem;
// иначе количество ограничивается остатком.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, n int32) (domain.Cart, error) {
	if n <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	return s.mutate(ctx, OpUpdate, productID, func(c *domain.Cart) error {
		idx := c.Index(productID)
		if idx < 0 {
			return domain.ErrCartItemNotFound
		}
		c.Items[idx].Quantity = domain.ClampQuantity(n, c.Items[idx].StockLimit)
		return nil
	})
}

// IncreaseQuantity увеличивает количество на 1 в пределах остатка.
func (s *Service) IncreaseQuantity(ctx context.Context, productID string) (domain.Cart, error) {
	return s.step(ctx, OpIncrease, productID, 1)
}

// DecreaseQuantity уменьшает количество на 1; позиция с нулём удаляется.
func (s *Service) DecreaseQuantity(ctx context.Context, productID string) (domain.Cart, error) {
	return s.step(ctx, OpDecrease, productID, -1)
}

func (s *Service) step(ctx context.Context, op Op, productID string, delta int32) (domain.Cart, error) {
	return s.mutate(ctx, op, productID, func(c *domain.Cart) error {
		idx := c.Index(productID)
		if idx < 0 {
			return domain.ErrCartItemNotFound
		}
		next := domain.AddQuantity(c.Items[idx].Quantity, delta)
		if next < 1 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}
		c.Items[idx].Quantity = domain.ClampQuantity(next, c.Items[idx].StockLimit)
		return nil
	})
}

// Clear очищает корзину.
func (s *Service) Clear(ctx context.Context) domain.Cart {
	cart, _ := s.mutate(ctx, OpClear, "", func(c *domain.Cart) error {
		c.Items = []domain.CartItem{}
		return nil
	})
	return cart
}

// Replace заменяет содержимое корзины нормализованной копией items.
// Используется, когда каноничная корзина пришла с сервера.
func (s *Service) Replace(ctx context.Context, items []domain.CartItem) domain.Cart {
	cart, _ := s.mutate(ctx, OpReplace, "", func(c *domain.Cart) error {
		c.Items = domain.NormalizeItems(items)
		return nil
	})
	return cart
}

// mutate применяет fn к рабочей копии. При ошибке состояние не меняется;
// при успехе корзина сохраняется, а подписчики получают событие.
func (s *Service) mutate(ctx context.Context, op Op, productID string, fn func(*domain.Cart) error) (domain.Cart, error) {
	s.mu.Lock()
	working := s.cart.Clone()
	if err := fn(&working); err != nil {
		current := s.cart.Clone()
		s.mu.Unlock()
		return current, err
	}
	s.cart = working
	s.persistLocked(ctx)
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	s.metrics.RecordCartMutation(string(op), snapshot.ItemCount())
	s.logger.WithFields(log.Fields{
		"op":         op,
		"product_id": productID,
		"items":      len(snapshot.Items),
		"subtotal":   snapshot.Subtotal(),
	}).Debug("cart updated")

	s.hub.Publish(Event{Op: op, ProductID: productID, Cart: snapshot})
	return snapshot, nil
}

// persistLocked пишет корзину в хранилище; пустая корзина удаляет ключ.
// Ошибки записи только логируются.
func (s *Service) persistLocked(ctx context.Context) {
	var err error
	if s.cart.IsEmpty() {
		err = s.store.Remove(ctx, s.key)
	} else {
		err = s.store.SetJSON(ctx, s.key, s.cart.Items)
	}
	if err != nil {
		s.metrics.RecordPersistFailure("cart")
		s.logger.WithError(err).WithField("key", s.key).Error("failed to persist cart")
	}
}
