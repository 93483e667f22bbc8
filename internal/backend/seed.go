package backend

import (
	"fmt"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// Демо-учётная запись.
const (
	DemoEmail    = "demo@marazul.cl"
	DemoPassword = "marazul123"
)

var demoCategories = []domain.Category{
	{ID: "pescados", Name: "Pescados", Slug: "pescados"},
	{ID: "mariscos", Name: "Mariscos", Slug: "mariscos"},
	{ID: "conservas", Name: "Conservas", Slug: "conservas"},
}

// Цены в минимальных единицах (сотых долях песо).
var demoProducts = []domain.Product{
	{ID: "merluza-austral", Name: "Merluza austral", Price: 699000, Unit: "kg", Stock: 25, CategoryID: "pescados", ImageRef: "/img/merluza.jpg", Description: "Filete fresco de merluza austral."},
	{ID: "reineta", Name: "Reineta", Price: 849000, Unit: "kg", Stock: 18, CategoryID: "pescados", ImageRef: "/img/reineta.jpg", Description: "Reineta entera, limpia."},
	{ID: "salmon", Name: "Salmón", Price: 1199000, Unit: "kg", Stock: 30, CategoryID: "pescados", ImageRef: "/img/salmon.jpg", Description: "Salmón atlántico en filete."},
	{ID: "ostiones", Name: "Ostiones", Price: 1490000, Unit: "kg", Stock: 8, CategoryID: "mariscos", ImageRef: "/img/ostiones.jpg", Description: "Ostiones con coral."},
	{ID: "choritos", Name: "Choritos", Price: 299000, Unit: "kg", Stock: 40, CategoryID: "mariscos", ImageRef: "/img/choritos.jpg", Description: "Choritos frescos de Chiloé."},
	{ID: "jaiba", Name: "Carne de jaiba", Price: 1890000, Unit: "500 g", Stock: 5, CategoryID: "mariscos", ImageRef: "/img/jaiba.jpg", Description: "Carne de jaiba pasteurizada."},
	{ID: "atun-lata", Name: "Atún en lata", Price: 189000, Unit: "unidad", Stock: 120, CategoryID: "conservas", ImageRef: "/img/atun.jpg", Description: "Atún en aceite, 160 g."},
}

// Seed заполняет хранилище демо-каталогом и демо-пользователем.
func Seed(store *Store) error {
	for _, c := range demoCategories {
		store.PutCategory(c)
	}
	for _, p := range demoProducts {
		store.PutProduct(p)
	}

	_, err := store.CreateUser(domain.User{
		ID:        "demo-user",
		FirstName: "Marina",
		LastName:  "Azul",
		Email:     DemoEmail,
	}, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	return nil
}
