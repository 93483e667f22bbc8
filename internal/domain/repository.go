package domain

// OrderRepository описывает требования к хранилищу заказов эталонного бэкенда.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми; при limit <= 0 без ограничения.
	ListByUser(userID string, limit int) ([]Order, error)
}
