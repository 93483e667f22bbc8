package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// Пути API.
const (
	PathLogin      = "/api/auth/login"
	PathRegister   = "/api/auth/register"
	PathMe         = "/api/auth/me"
	PathProfile    = "/api/auth/profile"
	PathProducts   = "/api/products"
	PathCategories = "/api/categories"
	PathCart       = "/api/cart"
	PathOrders     = "/api/orders"
	PathAddresses  = "/api/addresses"
	PathContact    = "/api/contact"
	PathReviews    = "/api/reviews"
)

// ProductFilter: параметры выборки каталога.
type ProductFilter struct {
	Category string
	Search   string
	Limit    int
}

func (f ProductFilter) query() string {
	values := url.Values{}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.Search != "" {
		values.Set("q", f.Search)
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Login отправляет учётные данные и возвращает сессию.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	res := c.postAnonymous(ctx, PathLogin, contract.Credentials{Email: email, Password: password})
	return decodeSession(res)
}

// Register создаёт учётную запись и возвращает сессию.
func (c *Client) Register(ctx context.Context, reg contract.Registration) (domain.Session, error) {
	res := c.postAnonymous(ctx, PathRegister, reg)
	return decodeSession(res)
}

func decodeSession(res Result) (domain.Session, error) {
	var payload struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	if err := res.Decode(&payload); err != nil {
		return domain.Session{}, err
	}
	session := domain.Session{Token: payload.Token}
	if payload.User != nil {
		session.User = *payload.User
	}
	if !session.Valid() {
		return domain.Session{}, &Error{Kind: KindApplication, Status: res.Status, Message: "session payload is incomplete"}
	}
	return session, nil
}

// Me возвращает пользователя текущей сессии.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := c.Get(ctx, PathMe).Decode(&user)
	return user, err
}

// UpdateProfile сохраняет профиль и возвращает его эхо с сервера.
func (c *Client) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	var echoed domain.User
	err := c.Put(ctx, PathProfile, user).Decode(&echoed)
	return echoed, err
}

// Products возвращает товары каталога.
func (c *Client) Products(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	var wire []contract.Product
	if err := c.Get(ctx, PathProducts+filter.query()).Decode(&wire); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(wire))
	for _, p := range wire {
		products = append(products, p.ToDomain())
	}
	return products, nil
}

// Product возвращает товар по идентификатору.
func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var wire contract.Product
	if err := c.Get(ctx, PathProducts+"/"+url.PathEscape(id)).Decode(&wire); err != nil {
		return domain.Product{}, err
	}
	return wire.ToDomain(), nil
}

// Categories возвращает разделы каталога.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var wire []contract.Category
	if err := c.Get(ctx, PathCategories).Decode(&wire); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(wire))
	for _, cat := range wire {
		categories = append(categories, domain.Category(cat))
	}
	return categories, nil
}

// Cart возвращает серверную корзину пользователя.
func (c *Client) Cart(ctx context.Context) (domain.Cart, error) {
	return decodeCart(c.Get(ctx, PathCart))
}

// AddToCart добавляет товар в серверную корзину и возвращает её каноничную копию.
func (c *Client) AddToCart(ctx context.Context, productID string, qty int32) (domain.Cart, error) {
	return decodeCart(c.Post(ctx, PathCart, contract.CartLine{ProductID: productID, Quantity: qty}))
}

// UpdateCartItem задаёт количество позиции серверной корзины.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, qty int32) (domain.Cart, error) {
	return decodeCart(c.Put(ctx, PathCart, contract.CartUpdate{ProductID: productID, Quantity: qty}))
}

// RemoveFromCart удаляет позицию серверной корзины.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) (domain.Cart, error) {
	return decodeCart(c.Delete(ctx, PathCart+"/"+url.PathEscape(productID)))
}

// ClearCart очищает серверную корзину.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.Delete(ctx, PathCart).AsError()
}

func decodeCart(res Result) (domain.Cart, error) {
	var wire contract.Cart
	if err := res.Decode(&wire); err != nil {
		return domain.Cart{}, err
	}
	return wire.ToDomain(), nil
}

// CreateOrder оформляет заказ.
func (c *Client) CreateOrder(ctx context.Context, draft domain.Order) (domain.Order, error) {
	var wire contract.Order
	if err := c.Post(ctx, PathOrders, contract.OrderRequestFromDomain(draft)).Decode(&wire); err != nil {
		return domain.Order{}, err
	}
	return wire.ToDomain(), nil
}

// Orders возвращает заказы пользователя, новые первыми.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var wire []contract.Order
	if err := c.Get(ctx, PathOrders).Decode(&wire); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(wire))
	for _, o := range wire {
		orders = append(orders, o.ToDomain())
	}
	return orders, nil
}

// Addresses возвращает адреса доставки пользователя.
func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	var addresses []domain.Address
	if err := c.Get(ctx, PathAddresses).Decode(&addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress сохраняет новый адрес.
func (c *Client) CreateAddress(ctx context.Context, addr domain.Address) (domain.Address, error) {
	var created domain.Address
	err := c.Post(ctx, PathAddresses, contract.Address(addr)).Decode(&created)
	return created, err
}

// DeleteAddress удаляет адрес.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.Delete(ctx, PathAddresses+"/"+url.PathEscape(id)).AsError()
}

// SendContact отправляет сообщение через форму обратной связи.
func (c *Client) SendContact(ctx context.Context, msg domain.ContactMessage) error {
	return c.Post(ctx, PathContact, contract.ContactMessage(msg)).AsError()
}

// Reviews возвращает отзывы о товаре.
func (c *Client) Reviews(ctx context.Context, productID string) ([]domain.Review, error) {
	var wire []contract.Review
	path := PathReviews + "?" + url.Values{"productId": {productID}}.Encode()
	if err := c.Get(ctx, path).Decode(&wire); err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(wire))
	for _, r := range wire {
		reviews = append(reviews, r.ToDomain())
	}
	return reviews, nil
}

// CreateReview публикует отзыв.
func (c *Client) CreateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	var wire contract.Review
	if err := c.Post(ctx, PathReviews, contract.ReviewFromDomain(review)).Decode(&wire); err != nil {
		return domain.Review{}, err
	}
	return wire.ToDomain(), nil
}
