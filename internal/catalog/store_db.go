package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresContentStore reads products from a `products` table kept in sync
// with the CMS.
type PostgresContentStore struct {
	db *sql.DB
}

func NewPostgresContentStore(db *sql.DB) *PostgresContentStore {
	return &PostgresContentStore{db: db}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks it answers.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresContentStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresContentStore) Query(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, title, price, description, discount_percentage, is_new, image_url,
			       COALESCE(array_to_string(tags, ','), '')
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return out, nil
}

func scanProduct(rows *sql.Rows) (Product, error) {
	var (
		p        Product
		title    sql.NullString
		desc     sql.NullString
		price    decimal.NullDecimal
		discount sql.NullFloat64
		isNew    sql.NullBool
		image    sql.NullString
		tags     string
	)

	if err := rows.Scan(&p.ID, &title, &price, &desc, &discount, &isNew, &image, &tags); err != nil {
		return Product{}, err
	}

	p.Title = title.String
	p.Description = desc.String
	p.IsNew = isNew.Bool
	p.ImageURL = image.String
	if price.Valid {
		v := NewPrice(price.Decimal)
		p.Price = &v
	}
	if discount.Valid {
		p.DiscountPercentage = &discount.Float64
	}
	if tags != "" {
		p.Tags = strings.Split(tags, ",")
	}
	return p, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
