// Package auth хранит сессию посетителя (токен и пользователь) и реализует
// вход, регистрацию и выход. При входе гостевая корзина переносится на сервер.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/apiclient"
	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
	"github.com/vladislavdragonenkov/marazul/internal/notify"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
)

// EventKind: тип изменения сессии.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventProfile EventKind = "profile"
)

// Причины выхода.
const (
	ReasonUser         = "user"
	ReasonUnauthorized = "unauthorized"
)

// Event передаётся подписчикам при входе, выходе и обновлении профиля.
type Event struct {
	Kind   EventKind
	User   domain.User
	Reason string
}

// Backend: операции сервера, нужные для работы с сессией.
type Backend interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, reg contract.Registration) (domain.Session, error)
	UpdateProfile(ctx context.Context, user domain.User) (domain.User, error)
}

// CartBackend: операции серверной корзины для переноса гостевой корзины.
type CartBackend interface {
	AddToCart(ctx context.Context, productID string, qty int32) (domain.Cart, error)
	Cart(ctx context.Context) (domain.Cart, error)
}

// LocalCart: локальная корзина, которую сессия очищает и синхронизирует.
type LocalCart interface {
	Cart() domain.Cart
	Replace(ctx context.Context, items []domain.CartItem) domain.Cart
	Clear(ctx context.Context) domain.Cart
}

// Option настраивает Service.
type Option func(*Service)

// WithKeys задаёт имена ключей хранилища.
func WithKeys(keys storage.Keys) Option {
	return func(s *Service) {
		s.keys = keys.WithDefaults()
	}
}

// WithCart подключает локальную корзину и серверную корзину для синхронизации.
func WithCart(local LocalCart, remote CartBackend) Option {
	return func(s *Service) {
		s.cart = local
		s.remoteCart = remote
	}
}

// WithGuestCartMerge включает перенос гостевой корзины при входе. По умолчанию включено.
func WithGuestCartMerge(enabled bool) Option {
	return func(s *Service) {
		s.mergeOnLogin = enabled
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

// Service управляет сессией. Сетевые вызовы выполняются без удержания мьютекса:
// ответ 401 во время синхронизации корзины сам вызывает выход.
type Service struct {
	mu sync.Mutex

	store        *storage.JSONStore
	keys         storage.Keys
	api          Backend
	cart         LocalCart
	remoteCart   CartBackend
	mergeOnLogin bool

	hub     *notify.Hub[Event]
	logger  *log.Entry
	metrics *metrics.StorefrontMetrics
}

// New создаёт сервис сессии.
func New(store *storage.JSONStore, api Backend, opts ...Option) *Service {
	s := &Service{
		store:        store,
		keys:         storage.DefaultKeys(),
		api:          api,
		mergeOnLogin: true,
		hub:          notify.NewHub[Event](),
		logger:       log.WithField("component", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe подписывает обработчик на события сессии.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// Login входит по email и паролю и возвращает пользователя.
// Ошибки сервера возвращаются как *apiclient.Error.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}
	if password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}

	session, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.metrics.RecordLogin(loginOutcome(err))
		s.logger.WithError(err).WithField("email", email).Info("login rejected")
		return domain.User{}, err
	}
	return s.startSession(ctx, session)
}

// Register создаёт учётную запись и сразу открывает сессию.
func (s *Service) Register(ctx context.Context, reg contract.Registration) (domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}
	if reg.Password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}

	session, err := s.api.Register(ctx, reg)
	if err != nil {
		s.logger.WithError(err).WithField("email", reg.Email).Info("registration rejected")
		return domain.User{}, err
	}
	return s.startSession(ctx, session)
}

func (s *Service) startSession(ctx context.Context, session domain.Session) (domain.User, error) {
	if err := s.saveSession(ctx, session); err != nil {
		s.metrics.RecordPersistFailure("auth")
		s.logger.WithError(err).Error("failed to persist session")
		return domain.User{}, err
	}
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.WithField("user_id", session.User.ID).Info("session started")

	if s.mergeOnLogin {
		s.mergeGuestCart(ctx)
	}

	s.hub.Publish(Event{Kind: EventLogin, User: session.User})
	return session.User, nil
}

func (s *Service) saveSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetString(ctx, s.keys.Token, session.Token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.store.SetJSON(ctx, s.keys.User, session.User); err != nil {
		_ = s.store.Remove(ctx, s.keys.Token)
		return fmt.Errorf("persist session user: %w", err)
	}
	return nil
}

// mergeGuestCart повторяет каждую локальную позицию на сервере, затем
// заменяет локальную корзину серверной копией. Последняя запись побеждает,
// конфликты не разбираются. Ошибки не прерывают вход.
func (s *Service) mergeGuestCart(ctx context.Context) {
	if s.cart == nil || s.remoteCart == nil {
		return
	}

	local := s.cart.Cart()
	failed := 0
	for _, line := range local.Items {
		if _, err := s.remoteCart.AddToCart(ctx, line.ProductID, line.Quantity); err != nil {
			failed++
			s.logger.WithError(err).WithField("product_id", line.ProductID).Warn("failed to merge cart line")
		}
	}

	if !s.IsAuthenticated(ctx) {
		// Сервер отверг токен во время переноса, сессия уже закрыта.
		return
	}

	canonical, err := s.remoteCart.Cart(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch server cart after login, keeping local cart")
		return
	}
	s.cart.Replace(ctx, canonical.Items)

	s.logger.WithFields(log.Fields{
		"local_lines":  len(local.Items),
		"failed_lines": failed,
		"server_lines": len(canonical.Items),
	}).Info("guest cart merged")
}

// Logout закрывает сессию по инициативе пользователя.
func (s *Service) Logout(ctx context.Context) {
	s.logout(ctx, ReasonUser)
}

// HandleUnauthorized закрывает сессию после ответа 401. Подключается к API-клиенту.
func (s *Service) HandleUnauthorized(ctx context.Context) {
	s.logout(ctx, ReasonUnauthorized)
}

func (s *Service) logout(ctx context.Context, reason string) {
	s.mu.Lock()
	user, _, _ := s.loadUserLocked(ctx)
	if err := s.store.Remove(ctx, s.keys.Token, s.keys.User, s.keys.Cart); err != nil {
		s.metrics.RecordPersistFailure("auth")
		s.logger.WithError(err).Error("failed to clear session keys")
	}
	s.mu.Unlock()

	if s.cart != nil {
		s.cart.Clear(ctx)
	}

	s.metrics.RecordLogout(reason)
	s.logger.WithFields(log.Fields{"user_id": user.ID, "reason": reason}).Info("session closed")
	s.hub.Publish(Event{Kind: EventLogout, User: user, Reason: reason})
}

// IsAuthenticated сообщает, что в хранилище есть и токен, и пользователь.
// Подпись и срок действия токена не проверяются.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.tokenLocked(ctx)
	if err != nil || token == "" {
		return false
	}
	_, found, err := s.loadUserLocked(ctx)
	return err == nil && found
}

// CurrentUser возвращает пользователя сессии или ErrNotAuthenticated.
func (s *Service) CurrentUser(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, found, err := s.loadUserLocked(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return user, nil
}

// Token возвращает токен сессии или пустую строку. Используется как источник
// bearer-токена для API-клиента.
func (s *Service) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.tokenLocked(ctx)
	if err != nil {
		return ""
	}
	return token
}

// UpdateProfile отправляет профиль на сервер и сохраняет вернувшуюся копию.
func (s *Service) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	current, err := s.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		user.ID = current.ID
	}

	echoed, err := s.api.UpdateProfile(ctx, user)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	err = s.store.SetJSON(ctx, s.keys.User, echoed)
	s.mu.Unlock()
	if err != nil {
		return domain.User{}, fmt.Errorf("persist profile: %w", err)
	}

	s.hub.Publish(Event{Kind: EventProfile, User: echoed})
	return echoed, nil
}

func (s *Service) tokenLocked(ctx context.Context) (string, error) {
	token, _, err := s.store.GetString(ctx, s.keys.Token)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read session token")
		return "", err
	}
	return token, nil
}

func (s *Service) loadUserLocked(ctx context.Context) (domain.User, bool, error) {
	var user domain.User
	found, err := s.store.GetJSON(ctx, s.keys.User, &user)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read session user")
		return domain.User{}, false, err
	}
	if !found || user.ID == "" {
		return domain.User{}, false, nil
	}
	return user, true, nil
}

func loginOutcome(err error) string {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return metrics.OutcomeApplicationError
	}
	switch apiErr.Kind {
	case apiclient.KindNetwork:
		return metrics.OutcomeNetworkError
	case apiclient.KindHTTP:
		return metrics.OutcomeHTTPError
	default:
		return metrics.OutcomeApplicationError
	}
}
