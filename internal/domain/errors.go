package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrCartItemNotFound возвращается, если позиции с таким товаром нет в корзине.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrKeyNotFound: ключ отсутствует в хранилище.
	ErrKeyNotFound = errors.New("storage key not found")

	// ErrNotAuthenticated: операция требует активной сессии.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials: неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailRequired: email обязателен для входа и регистрации.
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordRequired: пароль обязателен для входа и регистрации.
	ErrPasswordRequired = errors.New("password is required")
	// ErrEmailTaken: пользователь с таким email уже существует.
	ErrEmailTaken = errors.New("email already registered")

	// Ошибка отсутствующего пользователя в заказе.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOutOfStock: товара нет в наличии.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrReviewRatingInvalid: рейтинг отзыва вне диапазона 1..5.
	ErrReviewRatingInvalid = errors.New("review rating must be between 1 and 5")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующим сущностям.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound)
}
