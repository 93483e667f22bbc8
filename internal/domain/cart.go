package domain

import "math"

// CartItem: одна позиция корзины.
//
// JSON-теги совпадают с форматом, который хранится на клиенте под ключом корзины.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	// UnitPrice: цена за единицу в минимальных денежных единицах.
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int32  `json:"quantity"`
	ImageRef  string `json:"imageRef,omitempty"`
	Unit      string `json:"unit,omitempty"`
	// StockLimit: доступный остаток; 0 означает «без ограничения».
	StockLimit int32 `json:"stockLimit,omitempty"`
}

// LineTotal возвращает стоимость позиции: цена × количество.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Validate проверяет поля позиции и возвращает список замечаний.
func (i CartItem) Validate() []error {
	var errs []error
	if i.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if i.Quantity <= 0 {
		errs = append(errs, ErrItemQtyInvalid)
	}
	if i.UnitPrice < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}
	return errs
}

// ClampQuantity ограничивает количество остатком на складе.
func ClampQuantity(qty, stockLimit int32) int32 {
	if stockLimit > 0 && qty > stockLimit {
		return stockLimit
	}
	return qty
}

// AddQuantity складывает количества без переполнения int32: сумма
// насыщается на math.MaxInt32 (и на math.MinInt32 снизу).
func AddQuantity(a, b int32) int32 {
	sum := int64(a) + int64(b)
	switch {
	case sum > math.MaxInt32:
		return math.MaxInt32
	case sum < math.MinInt32:
		return math.MinInt32
	}
	return int32(sum)
}

// Cart: упорядоченный список позиций, уникальных по ProductID.
//
// Итоги не кэшируются: ItemCount и Subtotal всегда пересчитываются по позициям.
type Cart struct {
	Items []CartItem
}

// ItemCount возвращает сумму количеств по всем позициям.
func (c Cart) ItemCount() int64 {
	var total int64
	for _, item := range c.Items {
		total += int64(item.Quantity)
	}
	return total
}

// Subtotal возвращает сумму цена × количество по всем позициям.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Index возвращает позицию товара в корзине или -1.
func (c Cart) Index(productID string) int {
	for idx, item := range c.Items {
		if item.ProductID == productID {
			return idx
		}
	}
	return -1
}

// Find возвращает позицию по идентификатору товара.
func (c Cart) Find(productID string) (CartItem, bool) {
	idx := c.Index(productID)
	if idx < 0 {
		return CartItem{}, false
	}
	return c.Items[idx], true
}

// Clone возвращает независимую копию корзины.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{Items: []CartItem{}}
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// NormalizeItems приводит произвольный список позиций к инвариантам корзины:
// позиции без товара или с количеством <= 0 отбрасываются, дубликаты
// схлопываются (количества складываются), количество ограничивается остатком.
// Порядок первых вхождений сохраняется.
func NormalizeItems(items []CartItem) []CartItem {
	result := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if idx, ok := index[item.ProductID]; ok {
			merged := result[idx]
			merged.Quantity = ClampQuantity(AddQuantity(merged.Quantity, item.Quantity), merged.StockLimit)
			result[idx] = merged
			continue
		}
		item.Quantity = ClampQuantity(item.Quantity, item.StockLimit)
		index[item.ProductID] = len(result)
		result = append(result, item)
	}

	return result
}
