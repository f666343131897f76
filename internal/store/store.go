package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates the storefront tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type productRow struct {
	models.Product
	ImageList pq.StringArray `db:"images"`
}

// ListProducts retrieves all products, newest first
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Store.ListProducts")
	defer span.End()

	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, category, sub_category, images, img, sold_out, sale, created_at
		FROM products
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		p := r.Product
		p.Images = []string(r.ImageList)
		products = append(products, p)
	}
	return products, nil
}

// UpsertProduct inserts or replaces a product
func (s *Store) UpsertProduct(ctx context.Context, p models.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, category, sub_category, images, img, sold_out, sale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			images = EXCLUDED.images,
			img = EXCLUDED.img,
			sold_out = EXCLUDED.sold_out,
			sale = EXCLUDED.sale`,
		p.ID, p.Name, p.Price, p.Category, p.SubCategory, pq.StringArray(p.Images), p.Img, p.SoldOut, p.Sale, p.CreatedAt)
	return err
}
