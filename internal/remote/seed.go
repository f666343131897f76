package remote

import (
	"time"

	"storefront/internal/models"
)

// SeedDemo fills the store with a small catalog, one coupon and one order for local development
func (m *Memory) SeedDemo(now time.Time) {
	products := []models.Product{
		{ID: "p-kashmiri-shawl", Name: "Kashmiri Pashmina Shawl", Price: 4500, Category: "Shawls", SubCategory: "Pashmina", Images: []string{"/static/img/shawl.jpg"}, Sale: true},
		{ID: "p-walnut-box", Name: "Walnut Wood Jewellery Box", Price: 1800, Category: "Woodwork", SubCategory: "Boxes", Img: "/static/img/walnut-box.jpg"},
		{ID: "p-papier-mache", Name: "Papier-Mache Vase", Price: 950, Category: "Decor", SubCategory: "Papier-Mache"},
		{ID: "p-saffron", Name: "Saffron 2g", Price: 650, Category: "Spices", SoldOut: true},
	}
	for i, p := range products {
		p.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		m.PutProduct(p)
	}

	m.PutCoupon(models.Coupon{Code: "SAVE20", Percent: 20})

	placed := now.Add(-48 * time.Hour)
	m.PutOrder(models.Order{
		ID:         "demoorder0001",
		TrackingID: "#A1B2C3",
		UserEmail:  "demo@example.com",
		Status:     models.OrderStatusShipped,
		Product:    "Kashmiri Pashmina Shawl",
		Price:      4500,
		CreatedAt:  &placed,
	})
}
