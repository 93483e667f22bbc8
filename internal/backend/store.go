package backend

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// account: пользователь с хешем пароля.
type account struct {
	user         domain.User
	passwordHash []byte
}

// Store хранит состояние эталонного сервера в памяти.
type Store struct {
	mu sync.RWMutex

	accounts   map[string]*account // по ID
	emails     map[string]string   // email -> ID
	products   map[string]domain.Product
	order      []string // порядок товаров в каталоге
	categories []domain.Category
	carts      map[string]domain.Cart
	addresses  map[string][]domain.Address
	reviews    []domain.Review
	contacts   []domain.ContactMessage

	orders     domain.OrderRepository
	bcryptCost int
	now        func() time.Time
}

// NewStore создаёт пустое хранилище поверх репозитория заказов.
func NewStore(orders domain.OrderRepository) *Store {
	return &Store{
		accounts:   make(map[string]*account),
		emails:     make(map[string]string),
		products:   make(map[string]domain.Product),
		carts:      make(map[string]domain.Cart),
		addresses:  make(map[string][]domain.Address),
		orders:     orders,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// SetPasswordCost меняет стоимость bcrypt для новых паролей.
func (s *Store) SetPasswordCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	s.mu.Lock()
	s.bcryptCost = cost
	s.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser регистрирует пользователя. Возвращает ErrEmailTaken для занятого email.
func (s *Store) CreateUser(user domain.User, password string) (domain.User, error) {
	email := normalizeEmail(user.Email)
	if email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}
	if password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}

	s.mu.RLock()
	cost := s.bcryptCost
	s.mu.RUnlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[email]; exists {
		return domain.User{}, domain.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = "customer"
	}
	user.Email = email

	s.accounts[user.ID] = &account{user: user, passwordHash: hash}
	s.emails[email] = user.ID
	return user, nil
}

// Authenticate проверяет пару email/пароль.
func (s *Store) Authenticate(email, password string) (domain.User, error) {
	s.mu.RLock()
	id, ok := s.emails[normalizeEmail(email)]
	var acc account
	if ok {
		acc = *s.accounts[id]
	}
	s.mu.RUnlock()

	if !ok {
		// Сравнение с фиктивным хешем выравнивает время ответа.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return acc.user, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("marazul-dummy"), bcrypt.MinCost)

// User возвращает пользователя по ID.
func (s *Store) User(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, false
	}
	return acc.user, true
}

// UpdateProfile меняет имя, фамилию и email. ID и роль не меняются.
func (s *Store) UpdateProfile(id string, patch domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	if email := normalizeEmail(patch.Email); email != "" && email != acc.user.Email {
		if _, taken := s.emails[email]; taken {
			return domain.User{}, domain.ErrEmailTaken
		}
		delete(s.emails, acc.user.Email)
		s.emails[email] = id
		acc.user.Email = email
	}
	if patch.FirstName != "" {
		acc.user.FirstName = strings.TrimSpace(patch.FirstName)
	}
	if patch.LastName != "" {
		acc.user.LastName = strings.TrimSpace(patch.LastName)
	}
	return acc.user, nil
}

// PutProduct добавляет или заменяет товар.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
}

// PutCategory добавляет раздел каталога.
func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// ProductQuery: фильтр каталога.
type ProductQuery struct {
	Category string
	Search   string
	Limit    int
}

// Products возвращает товары в порядке добавления.
func (s *Store) Products(q ProductQuery) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	result := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		if q.Category != "" && p.CategoryID != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		result = append(result, p)
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result
}

// Product возвращает товар по ID.
func (s *Store) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// Categories возвращает разделы каталога.
func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...)
}

// Cart возвращает серверную корзину пользователя.
func (s *Store) Cart(userID string) domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[userID].Clone()
}

// AddToCart добавляет товар; количество ограничивается остатком.
func (s *Store) AddToCart(userID, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrItemQtyInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.Cart{}, domain.ErrProductNotFound
	}
	if p.Stock <= 0 {
		return domain.Cart{}, domain.ErrOutOfStock
	}

	cart := s.carts[userID].Clone()
	if idx := cart.Index(productID); idx >= 0 {
		line := cart.Items[idx]
		line.Quantity = domain.ClampQuantity(domain.AddQuantity(line.Quantity, qty), p.Stock)
		line.StockLimit = p.Stock
		line.UnitPrice = p.Price
		cart.Items[idx] = line
	} else {
		line := p.LineItem(qty)
		line.Quantity = domain.ClampQuantity(qty, p.Stock)
		cart.Items = append(cart.Items, line)
	}
	s.carts[userID] = cart
	return cart.Clone(), nil
}

// SetCartQuantity задаёт количество; qty <= 0 удаляет позицию.
func (s *Store) SetCartQuantity(userID, productID string, qty int32) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[userID].Clone()
	idx := cart.Index(productID)
	if idx < 0 {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}
	if qty <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = domain.ClampQuantity(qty, cart.Items[idx].StockLimit)
	}
	s.carts[userID] = cart
	return cart.Clone(), nil
}

// ClearCart очищает серверную корзину.
func (s *Store) ClearCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

// PlaceOrder проверяет позиции по каталогу, списывает остатки, сохраняет
// заказ и очищает корзину. Цены берутся из каталога; расхождение с
// переданной суммой даёт ErrAmountMismatch.
func (s *Store) PlaceOrder(userID string, items []domain.OrderItem, total int64, currency, addressID, notes string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}

	priced := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		p, ok := s.products[item.ProductID]
		if !ok {
			return domain.Order{}, domain.ErrProductNotFound
		}
		if item.Qty <= 0 {
			return domain.Order{}, domain.ErrItemQtyInvalid
		}
		if item.Qty > p.Stock {
			return domain.Order{}, domain.ErrOutOfStock
		}
		priced = append(priced, domain.OrderItem{ProductID: p.ID, Name: p.Name, Qty: item.Qty, Price: p.Price})
	}

	if currency == "" {
		currency = domain.DefaultCurrency
	}
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		Currency:  currency,
		Items:     priced,
		AddressID: addressID,
		Notes:     notes,
		CreatedAt: s.now().UTC(),
	}
	order.Amount = order.ItemsTotal()
	if total != order.Amount {
		return domain.Order{}, domain.ErrAmountMismatch
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	if err := s.orders.Create(order); err != nil {
		return domain.Order{}, err
	}
	for _, item := range priced {
		p := s.products[item.ProductID]
		p.Stock -= item.Qty
		s.products[item.ProductID] = p
	}
	delete(s.carts, userID)
	return order, nil
}

// Orders возвращает заказы пользователя, новые первыми.
func (s *Store) Orders(userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(userID, 0)
}

// Order возвращает заказ пользователя. Чужие заказы не видны.
func (s *Store) Order(userID, orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// Addresses возвращает адреса пользователя.
func (s *Store) Addresses(userID string) []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Address{}, s.addresses[userID]...)
}

// AddAddress сохраняет адрес и присваивает ему ID.
func (s *Store) AddAddress(userID string, addr domain.Address) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr.ID = uuid.NewString()
	s.addresses[userID] = append(s.addresses[userID], addr)
	return addr
}

// DeleteAddress удаляет адрес. false, если адреса нет.
func (s *Store) DeleteAddress(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.addresses[userID]
	for i, addr := range list {
		if addr.ID == id {
			s.addresses[userID] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// AddReview сохраняет отзыв о существующем товаре.
func (s *Store) AddReview(r domain.Review) (domain.Review, error) {
	if errs := r.Validate(); len(errs) > 0 {
		return domain.Review{}, errs[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[r.ProductID]; !ok {
		return domain.Review{}, domain.ErrProductNotFound
	}
	r.ID = uuid.NewString()
	s.reviews = append(s.reviews, r)
	return r, nil
}

// Reviews возвращает отзывы о товаре, лучшие первыми.
func (s *Store) Reviews(productID string) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Review, 0)
	for _, r := range s.reviews {
		if r.ProductID == productID {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	return result
}

// AddContact сохраняет сообщение обратной связи.
func (s *Store) AddContact(msg domain.ContactMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, msg)
}

// Contacts возвращает полученные сообщения.
func (s *Store) Contacts() []domain.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ContactMessage(nil), s.contacts...)
}
