package backend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(memory.NewOrderRepository())
	store.SetPasswordCost(bcrypt.MinCost)
	require.NoError(t, Seed(store))
	return store
}

func TestStore_Authenticate(t *testing.T) {
	store := newSeededStore(t)

	user, err := store.Authenticate(" Demo@MarAzul.cl ", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "demo-user", user.ID)
	assert.Equal(t, "customer", user.Role)

	_, err = store.Authenticate(DemoEmail, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = store.Authenticate("ghost@marazul.cl", DemoPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestStore_CreateUserValidation(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.CreateUser(domain.User{}, "x")
	assert.ErrorIs(t, err, domain.ErrEmailRequired)
	_, err = store.CreateUser(domain.User{Email: "a@b.cl"}, "")
	assert.ErrorIs(t, err, domain.ErrPasswordRequired)
	_, err = store.CreateUser(domain.User{Email: DemoEmail}, "x")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestStore_UpdateProfileEmailConflict(t *testing.T) {
	store := newSeededStore(t)
	other, err := store.CreateUser(domain.User{Email: "otro@marazul.cl"}, "x")
	require.NoError(t, err)

	_, err = store.UpdateProfile(other.ID, domain.User{Email: DemoEmail})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	updated, err := store.UpdateProfile(other.ID, domain.User{Email: "NUEVO@marazul.cl"})
	require.NoError(t, err)
	assert.Equal(t, "nuevo@marazul.cl", updated.Email)

	_, err = store.Authenticate("nuevo@marazul.cl", "x")
	assert.NoError(t, err)
}

func TestStore_AddToCartAccumulatesAndClamps(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.AddToCart("u", "ostiones", 5)
	require.NoError(t, err)
	cart, err := store.AddToCart("u", "ostiones", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(8), cart.Items[0].Quantity)

	_, err = store.AddToCart("u", "absent", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	store.PutProduct(domain.Product{ID: "agotado", Name: "Agotado", Price: 100})
	_, err = store.AddToCart("u", "agotado", 1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
}

func TestStore_AddToCartHugeQuantityDoesNotWrap(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.AddToCart("u", "ostiones", 2)
	require.NoError(t, err)
	cart, err := store.AddToCart("u", "ostiones", math.MaxInt32)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(8), cart.Items[0].Quantity)
	assert.Positive(t, cart.Subtotal())
}

func TestStore_PlaceOrderIsAtomic(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.PlaceOrder("u", []domain.OrderItem{
		{ProductID: "salmon", Qty: 1},
		{ProductID: "jaiba", Qty: 99},
	}, 0, "", "", "")
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	p, err := store.Product("salmon")
	require.NoError(t, err)
	assert.Equal(t, int32(30), p.Stock, "stock untouched on failure")

	order, err := store.PlaceOrder("u", []domain.OrderItem{{ProductID: "salmon", Qty: 2, Price: 1}}, 2398000, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1199000), order.Items[0].Price, "priced from catalog")

	_, err = store.Order("someone-else", order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStore_ReviewsSortedByRating(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.AddReview(domain.Review{ProductID: "reineta", Rating: 2})
	require.NoError(t, err)
	_, err = store.AddReview(domain.Review{ProductID: "reineta", Rating: 5})
	require.NoError(t, err)

	reviews := store.Reviews("reineta")
	require.Len(t, reviews, 2)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Empty(t, store.Reviews("salmon"))
}
