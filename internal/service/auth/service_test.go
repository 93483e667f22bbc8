package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/apiclient"
	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
	"github.com/vladislavdragonenkov/marazul/internal/service/cart"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
)

var ana = domain.User{ID: "u1", FirstName: "Ana", LastName: "Rojas", Email: "ana@marazul.cl"}

// fakeBackend имитирует сервер: хранит серверную корзину и умеет отвечать 401.
type fakeBackend struct {
	password     string
	serverCart   domain.Cart
	addCalls     []contract.CartLine
	failAdd      map[string]bool
	unauthorized bool
	onAdd        func()
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (domain.Session, error) {
	if password != f.password {
		return domain.Session{}, &apiclient.Error{Kind: apiclient.KindHTTP, Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	user := ana
	user.Email = email
	return domain.Session{Token: "jwt-" + email, User: user}, nil
}

func (f *fakeBackend) Register(_ context.Context, reg contract.Registration) (domain.Session, error) {
	return domain.Session{Token: "jwt-new", User: domain.User{ID: "u2", FirstName: reg.FirstName, Email: reg.Email}}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, user domain.User) (domain.User, error) {
	user.FirstName = user.FirstName + " (echo)"
	return user, nil
}

func (f *fakeBackend) AddToCart(_ context.Context, productID string, qty int32) (domain.Cart, error) {
	f.addCalls = append(f.addCalls, contract.CartLine{ProductID: productID, Quantity: qty})
	if f.onAdd != nil {
		f.onAdd()
	}
	if f.unauthorized {
		return domain.Cart{}, &apiclient.Error{Kind: apiclient.KindHTTP, Status: http.StatusUnauthorized}
	}
	if f.failAdd[productID] {
		return domain.Cart{}, errors.New("out of stock")
	}
	idx := f.serverCart.Index(productID)
	if idx >= 0 {
		f.serverCart.Items[idx].Quantity += qty
	} else {
		f.serverCart.Items = append(f.serverCart.Items, domain.CartItem{ProductID: productID, UnitPrice: 1000, Quantity: qty})
	}
	return f.serverCart.Clone(), nil
}

func (f *fakeBackend) Cart(context.Context) (domain.Cart, error) {
	return f.serverCart.Clone(), nil
}

type fixture struct {
	kv      domain.KeyValueStore
	backend *fakeBackend
	cart    *cart.Service
	auth    *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	kv := memory.NewKeyValueStore()
	store := storage.NewJSONStore(kv)
	backend := &fakeBackend{password: "secret"}
	m := metrics.NewStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	cartSvc := cart.New(context.Background(), store, cart.WithMetrics(m))
	opts = append([]Option{WithCart(cartSvc, backend), WithMetrics(m)}, opts...)
	return &fixture{
		kv:      kv,
		backend: backend,
		cart:    cartSvc,
		auth:    New(store, backend, opts...),
	}
}

func TestLogin_StoresSessionAndReturnsUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var events []Event
	f.auth.Subscribe(func(e Event) { events = append(events, e) })

	user, err := f.auth.Login(ctx, " ana@marazul.cl ", "secret")
	require.NoError(t, err)
	assert.Equal(t, ana, user)

	current, err := f.auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, current)
	assert.True(t, f.auth.IsAuthenticated(ctx))
	assert.Equal(t, "jwt-ana@marazul.cl", f.auth.Token(ctx))

	raw, err := f.kv.Get(ctx, storage.DefaultKeys().Token)
	require.NoError(t, err)
	assert.Equal(t, "jwt-ana@marazul.cl", string(raw))

	require.Len(t, events, 1)
	assert.Equal(t, EventLogin, events[0].Kind)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Login(ctx, "", "secret")
	assert.ErrorIs(t, err, domain.ErrEmailRequired)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "")
	assert.ErrorIs(t, err, domain.ErrPasswordRequired)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "wrong")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.False(t, f.auth.IsAuthenticated(ctx))

	_, err = f.auth.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLogout_ClearsSessionAndCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, domain.Product{ID: "p1", Price: 500}, 1)
	require.NoError(t, err)

	var got Event
	f.auth.Subscribe(func(e Event) { got = e })

	f.auth.Logout(ctx)

	assert.False(t, f.auth.IsAuthenticated(ctx))
	assert.Empty(t, f.auth.Token(ctx))
	assert.True(t, f.cart.Cart().IsEmpty())
	for _, key := range []string{storage.DefaultKeys().Token, storage.DefaultKeys().User, storage.DefaultKeys().Cart} {
		_, err := f.kv.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, key)
	}
	assert.Equal(t, EventLogout, got.Kind)
	assert.Equal(t, ReasonUser, got.Reason)
	assert.Equal(t, ana.ID, got.User.ID)
}

func TestIsAuthenticated_RequiresTokenAndUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	keys := storage.DefaultKeys()

	require.NoError(t, f.kv.Set(ctx, keys.Token, []byte("orphan-token")))
	assert.False(t, f.auth.IsAuthenticated(ctx))

	require.NoError(t, f.kv.Delete(ctx, keys.Token))
	require.NoError(t, f.kv.Set(ctx, keys.User, []byte(`{"id":"u1"}`)))
	assert.False(t, f.auth.IsAuthenticated(ctx))

	require.NoError(t, f.kv.Set(ctx, keys.Token, []byte("t")))
	assert.True(t, f.auth.IsAuthenticated(ctx))
}

func TestLogin_MergesGuestCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.serverCart = domain.Cart{Items: []domain.CartItem{{ProductID: "jaiba", UnitPrice: 4300, Quantity: 1}}}

	_, err := f.cart.AddItem(ctx, domain.Product{ID: "merluza", Price: 1000}, 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, domain.Product{ID: "jaiba", Price: 4300}, 1)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)

	assert.Equal(t, []contract.CartLine{
		{ProductID: "merluza", Quantity: 2},
		{ProductID: "jaiba", Quantity: 1},
	}, f.backend.addCalls)
	assert.Equal(t, f.backend.serverCart, f.cart.Cart())

	jaiba, ok := f.cart.Cart().Find("jaiba")
	require.True(t, ok)
	assert.Equal(t, int32(2), jaiba.Quantity)
}

func TestLogin_MergeFailureDoesNotFailLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.failAdd = map[string]bool{"agotado": true}

	_, err := f.cart.AddItem(ctx, domain.Product{ID: "agotado", Price: 100}, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, domain.Product{ID: "merluza", Price: 1000}, 1)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)

	cart := f.cart.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "merluza", cart.Items[0].ProductID)
}

func TestLogin_MergeAbortsWhenSessionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.unauthorized = true
	// Имитация API-клиента: 401 на запрос с токеном закрывает сессию.
	f.backend.onAdd = func() { f.auth.HandleUnauthorized(ctx) }

	_, err := f.cart.AddItem(ctx, domain.Product{ID: "merluza", Price: 1000}, 1)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)
	assert.False(t, f.auth.IsAuthenticated(ctx))
	assert.True(t, f.cart.Cart().IsEmpty())
}

func TestLogin_MergeDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithGuestCartMerge(false))

	_, err := f.cart.AddItem(ctx, domain.Product{ID: "merluza", Price: 1000}, 1)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)
	assert.Empty(t, f.backend.addCalls)
	assert.Equal(t, int64(1), f.cart.ItemCount())
}

func TestHandleUnauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)

	var reason string
	f.auth.Subscribe(func(e Event) { reason = e.Reason })

	f.auth.HandleUnauthorized(ctx)
	assert.False(t, f.auth.IsAuthenticated(ctx))
	assert.Equal(t, ReasonUnauthorized, reason)
}

func TestRegisterAndUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.UpdateProfile(ctx, domain.User{FirstName: "X"})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	user, err := f.auth.Register(ctx, contract.Registration{FirstName: "Luis", Email: "luis@marazul.cl", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.True(t, f.auth.IsAuthenticated(ctx))

	echoed, err := f.auth.UpdateProfile(ctx, domain.User{FirstName: "Luis"})
	require.NoError(t, err)
	assert.Equal(t, "u2", echoed.ID)
	assert.Equal(t, "Luis (echo)", echoed.FirstName)

	current, err := f.auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, echoed, current)
}

func TestCustomKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithKeys(storage.Keys{Token: "legacy_token"}))

	_, err := f.auth.Login(ctx, "ana@marazul.cl", "secret")
	require.NoError(t, err)

	_, err = f.kv.Get(ctx, "legacy_token")
	assert.NoError(t, err)
	_, err = f.kv.Get(ctx, storage.DefaultKeys().User)
	assert.NoError(t, err)
}
