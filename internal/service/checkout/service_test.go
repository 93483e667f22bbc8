package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/service/cart"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
)

type fakeSession struct {
	user *domain.User
}

func (f fakeSession) CurrentUser(context.Context) (domain.User, error) {
	if f.user == nil {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return *f.user, nil
}

type fakeOrders struct {
	created []domain.Order
	err     error
}

func (f *fakeOrders) CreateOrder(_ context.Context, draft domain.Order) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	draft.ID = "o1"
	f.created = append(f.created, draft)
	return draft, nil
}

func (f *fakeOrders) Orders(context.Context) ([]domain.Order, error) {
	return f.created, nil
}

func newCart(t *testing.T) *cart.Service {
	t.Helper()
	return cart.New(context.Background(), storage.NewJSONStore(memory.NewKeyValueStore()))
}

func TestPlaceOrder_ClearsCartOnSuccess(t *testing.T) {
	ctx := context.Background()
	cartSvc := newCart(t)
	_, err := cartSvc.AddItem(ctx, domain.Product{ID: "merluza", Name: "Merluza", Price: 1000}, 3)
	require.NoError(t, err)

	orders := &fakeOrders{}
	svc := New(cartSvc, fakeSession{user: &domain.User{ID: "u1"}}, orders, "", nil)

	order, err := svc.PlaceOrder(ctx, "addr-1", "sin bolsa")
	require.NoError(t, err)

	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, int64(3000), order.Amount)
	assert.Equal(t, domain.DefaultCurrency, order.Currency)
	assert.Equal(t, "addr-1", order.AddressID)
	assert.Equal(t, []domain.OrderItem{{ProductID: "merluza", Name: "Merluza", Qty: 3, Price: 1000}}, order.Items)
	assert.True(t, cartSvc.Cart().IsEmpty())

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPlaceOrder_KeepsCartOnFailure(t *testing.T) {
	ctx := context.Background()
	cartSvc := newCart(t)
	_, err := cartSvc.AddItem(ctx, domain.Product{ID: "merluza", Price: 1000}, 1)
	require.NoError(t, err)

	boom := errors.New("payment gateway down")
	svc := New(cartSvc, fakeSession{user: &domain.User{ID: "u1"}}, &fakeOrders{err: boom}, "CLP", nil)

	_, err = svc.PlaceOrder(ctx, "", "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), cartSvc.ItemCount())
}

func TestPlaceOrder_Guards(t *testing.T) {
	ctx := context.Background()
	cartSvc := newCart(t)
	orders := &fakeOrders{}

	anonymous := New(cartSvc, fakeSession{}, orders, "", nil)
	_, err := anonymous.PlaceOrder(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = anonymous.History(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	loggedIn := New(cartSvc, fakeSession{user: &domain.User{ID: "u1"}}, orders, "", nil)
	_, err = loggedIn.PlaceOrder(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrItemsRequired)
	assert.Empty(t, orders.created)
}
