package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending: заказ создан и ожидает подтверждения.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed: заказ подтверждён магазином.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusCanceled: заказ отменён.
	OrderStatusCanceled OrderStatus = "canceled"
)

// DefaultCurrency: валюта магазина по умолчанию.
const DefaultCurrency = "CLP"

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ProductID string
	Name      string
	Qty       int32
	// Price: цена за единицу в минимальных денежных единицах.
	Price int64
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID        string
	UserID    string
	Status    OrderStatus
	Currency  string
	Amount    int64
	Items     []OrderItem
	AddressID string
	Notes     string
	CreatedAt time.Time
}

// OrderItemsFromCart переносит позиции корзины в позиции заказа.
func OrderItemsFromCart(cart Cart) []OrderItem {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Quantity,
			Price:     line.UnitPrice,
		})
	}
	return items
}

// ItemsTotal считает сумму qty * price по позициям.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Qty) * item.Price
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Amount < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}
	if o.ItemsTotal() != o.Amount {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
