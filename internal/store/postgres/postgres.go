package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"manware/pos/internal/domain"
)

// Store mirrors the in-memory state into Postgres. Documents are kept as
// jsonb payloads keyed by id; the service never queries inside them, it
// only reloads whole collections at startup.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_transaction ON sales (transaction_id)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM products`)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		var p domain.Product
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) LoadSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM sales`)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	defer rows.Close()

	var out []domain.Sale
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		var sale domain.Sale
		if err := json.Unmarshal(payload, &sale); err != nil {
			return nil, fmt.Errorf("decode sale: %w", err)
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

func (s *Store) LoadCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		var c domain.Customer
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, fmt.Errorf("decode customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	payload, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO products (id, payload, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		product.ID, payload)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *Store) SaveProducts(ctx context.Context, products []domain.Product) error {
	batch := &pgx.Batch{}
	for _, product := range products {
		payload, err := json.Marshal(product)
		if err != nil {
			return fmt.Errorf("encode product: %w", err)
		}
		batch.Queue(
			`INSERT INTO products (id, payload, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			product.ID, payload)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	return nil
}

func (s *Store) SaveSale(ctx context.Context, sale domain.Sale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("encode sale: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sales (id, transaction_id, payload, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET transaction_id = EXCLUDED.transaction_id, payload = EXCLUDED.payload, updated_at = now()`,
		sale.ID, sale.TransactionID, payload)
	if err != nil {
		return fmt.Errorf("save sale: %w", err)
	}
	return nil
}

func (s *Store) SaveSales(ctx context.Context, sales []domain.Sale) error {
	batch := &pgx.Batch{}
	for _, sale := range sales {
		payload, err := json.Marshal(sale)
		if err != nil {
			return fmt.Errorf("encode sale: %w", err)
		}
		batch.Queue(
			`INSERT INTO sales (id, transaction_id, payload, updated_at) VALUES ($1, $2, $3, now())
			 ON CONFLICT (id) DO UPDATE SET transaction_id = EXCLUDED.transaction_id, payload = EXCLUDED.payload, updated_at = now()`,
			sale.ID, sale.TransactionID, payload)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save sales: %w", err)
	}
	return nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	payload, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO customers (id, payload, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		customer.ID, payload)
	if err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
