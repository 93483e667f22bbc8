// Package contract описывает JSON-формат HTTP API витрины: конверты ответов
// и представления сущностей. Цены на проводе задаются десятичными числами в основных
// единицах валюты; внутри приложения хранятся целые минимальные единицы.
package contract

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits переводит цену из основных единиц в минимальные (округление половины вверх).
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits переводит минимальные единицы в десятичную цену.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatPrice форматирует сумму в минимальных единицах для вывода.
func FormatPrice(minor int64, currency string) string {
	text := FromMinorUnits(minor).StringFixed(2)
	if currency == "" {
		return text
	}
	return text + " " + currency
}

// Envelope описывает вложенный конверт ответа {success, data, message}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionResponse описывает плоский конверт входа {success, token, user, message}.
type SessionResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Credentials: тело запроса входа.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Registration: тело запроса регистрации.
type Registration struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

// Product: товар на проводе. Идентификатор приходит как _id или id.
type Product struct {
	ID          string          `json:"_id,omitempty"`
	AltID       string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Stock       int32           `json:"stock"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ProductFromDomain строит представление товара.
func ProductFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       FromMinorUnits(p.Price),
		Image:       p.ImageRef,
		Unit:        p.Unit,
		Stock:       p.Stock,
		Category:    p.CategoryID,
		Description: p.Description,
	}
}

// ToDomain переводит товар во внутреннюю модель.
func (p Product) ToDomain() domain.Product {
	id := p.ID
	if id == "" {
		id = p.AltID
	}
	return domain.Product{
		ID:          id,
		Name:        p.Name,
		Price:       ToMinorUnits(p.Price),
		ImageRef:    p.Image,
		Unit:        p.Unit,
		Stock:       p.Stock,
		CategoryID:  p.Category,
		Description: p.Description,
	}
}

// Category: раздел каталога на проводе.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// CartLine: тело запроса добавления позиции в корзину.
type CartLine struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

// CartUpdate: тело запроса изменения количества; 0 удаляет позицию.
type CartUpdate struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"gte=0"`
}

// CartItem: позиция серверной корзины.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Stock     int32           `json:"stock,omitempty"`
}

// Cart: серверная корзина с итогами.
type Cart struct {
	Items     []CartItem      `json:"items"`
	ItemCount int64           `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartFromDomain строит представление корзины.
func CartFromDomain(c domain.Cart) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     FromMinorUnits(item.UnitPrice),
			Quantity:  item.Quantity,
			Image:     item.ImageRef,
			Unit:      item.Unit,
			Stock:     item.StockLimit,
		})
	}
	return Cart{Items: items, ItemCount: c.ItemCount(), Subtotal: FromMinorUnits(c.Subtotal())}
}

// ToDomain переводит серверную корзину во внутреннюю модель.
func (c Cart) ToDomain() domain.Cart {
	items := make([]domain.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, domain.CartItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			UnitPrice:  ToMinorUnits(item.Price),
			Quantity:   item.Quantity,
			ImageRef:   item.Image,
			Unit:       item.Unit,
			StockLimit: item.Stock,
		})
	}
	return domain.Cart{Items: items}
}

// OrderLine: позиция заказа на проводе.
type OrderLine struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name,omitempty"`
	Quantity  int32           `json:"quantity" binding:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRequest: тело запроса оформления заказа.
type OrderRequest struct {
	Items     []OrderLine     `json:"items" binding:"required,min=1,dive"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency,omitempty"`
	AddressID string          `json:"addressId,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// Order: заказ на проводе.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderLine     `json:"items" binding:"required,min=1,dive"`
	AddressID string          `json:"addressId,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OrderRequestFromDomain строит тело запроса по черновику заказа.
func OrderRequestFromDomain(o domain.Order) OrderRequest {
	return OrderRequest{
		Items:     orderLinesFromDomain(o.Items),
		Total:     FromMinorUnits(o.Amount),
		Currency:  o.Currency,
		AddressID: o.AddressID,
		Notes:     o.Notes,
	}
}

// OrderFromDomain строит представление заказа.
func OrderFromDomain(o domain.Order) Order {
	return Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Currency:  o.Currency,
		Total:     FromMinorUnits(o.Amount),
		Items:     orderLinesFromDomain(o.Items),
		AddressID: o.AddressID,
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
	}
}

// ToDomain переводит заказ во внутреннюю модель.
func (o Order) ToDomain() domain.Order {
	return domain.Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    domain.OrderStatus(o.Status),
		Currency:  o.Currency,
		Amount:    ToMinorUnits(o.Total),
		Items:     orderLinesToDomain(o.Items),
		AddressID: o.AddressID,
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
	}
}

// ItemsToDomain переводит позиции запроса во внутреннюю модель.
func (r OrderRequest) ItemsToDomain() []domain.OrderItem {
	return orderLinesToDomain(r.Items)
}

func orderLinesFromDomain(items []domain.OrderItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Qty,
			Price:     FromMinorUnits(item.Price),
		})
	}
	return lines
}

func orderLinesToDomain(lines []OrderLine) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Quantity,
			Price:     ToMinorUnits(line.Price),
		})
	}
	return items
}

// Review: отзыв на проводе.
type Review struct {
	ID        string `json:"id,omitempty"`
	ProductID string `json:"productId" binding:"required"`
	UserID    string `json:"userId,omitempty"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty"`
}

// ReviewFromDomain строит представление отзыва.
func ReviewFromDomain(r domain.Review) Review {
	return Review(r)
}

// ToDomain переводит отзыв во внутреннюю модель.
func (r Review) ToDomain() domain.Review {
	return domain.Review(r)
}

// ContactMessage: тело формы обратной связи.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" binding:"required"`
}

// Address: адрес доставки на проводе.
type Address struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label,omitempty"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}
