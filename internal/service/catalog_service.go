package service

import (
	"context"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogService fetches the product catalog
type CatalogService struct {
	products ProductQuery
	group    singleflight.Group
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products ProductQuery) *CatalogService {
	return &CatalogService{products: products}
}

// Fetch returns the full catalog, newest first. Concurrent calls share one remote read.
func (s *CatalogService) Fetch(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Fetch")
	defer span.End()

	v, err, shared := s.group.Do("catalog", func() (interface{}, error) {
		start := time.Now()
		products, err := s.products.ListProducts(context.WithoutCancel(ctx))
		util.CatalogFetchLatency.Observe(time.Since(start).Seconds())
		return products, err
	})
	if err != nil {
		util.CatalogFetchFailedTotal.Inc()
		util.GetLogger().Error("Failed to fetch catalog", zap.Error(err))
		return nil, err
	}
	if shared {
		util.GetLogger().Debug("Catalog fetch shared")
	}
	return v.([]models.Product), nil
}

// Filter keeps products whose name or category contains q, ignoring case. An empty q keeps everything.
func Filter(products []models.Product, q string) []models.Product {
	return match(products, q, false)
}

// InstantSearch is Filter that also matches the sub-category
func InstantSearch(products []models.Product, q string) []models.Product {
	return match(products, q, true)
}

func match(products []models.Product, q string, withSubCategory bool) []models.Product {
	if q == "" {
		return products
	}
	q = strings.ToLower(q)

	out := []models.Product{}
	for _, p := range products {
		if contains(p.Name, q) || contains(p.Category, q) || (withSubCategory && contains(p.SubCategory, q)) {
			out = append(out, p)
		}
	}
	return out
}

func contains(field, lowerQ string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerQ)
}
