package domain

// Product описывает товар каталога. Цена хранится в минимальных единицах.
type Product struct {
	ID          string
	Name        string
	Price       int64
	ImageRef    string
	Unit        string
	Stock       int32
	CategoryID  string
	Description string
}

// LineItem строит позицию корзины для товара с заданным количеством.
func (p Product) LineItem(qty int32) CartItem {
	return CartItem{
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Quantity:   qty,
		ImageRef:   p.ImageRef,
		Unit:       p.Unit,
		StockLimit: p.Stock,
	}
}

// Category: раздел каталога.
type Category struct {
	ID   string
	Name string
	Slug string
}

// Review: отзыв покупателя о товаре.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Comment   string
}

// Validate проверяет обязательные поля отзыва.
func (r Review) Validate() []error {
	var errs []error
	if r.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if r.Rating < 1 || r.Rating > 5 {
		errs = append(errs, ErrReviewRatingInvalid)
	}
	return errs
}
