package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists all bot state in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			wa_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			data_json TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			pause_bot BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id TEXT PRIMARY KEY,
			wa_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			wa_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			msg_type TEXT NOT NULL,
			body TEXT,
			wa_message_id TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_wa_id ON messages (wa_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			wa_id TEXT NOT NULL,
			order_date TEXT,
			order_type TEXT,
			quantity TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_wa_id ON orders (wa_id);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at);`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			wa_id TEXT NOT NULL,
			message TEXT NOT NULL,
			reason TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			tenant_slug TEXT NOT NULL,
			sku TEXT,
			name TEXT NOT NULL,
			description TEXT,
			price_cents INT NOT NULL CHECK (price_cents >= 0),
			currency TEXT NOT NULL DEFAULT 'BRL' CHECK (currency ~ '^[A-Z]{3}$'),
			image_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_tenant ON products (tenant_slug);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// ClaimMessage is an atomic insert-if-absent on the externally-assigned
// message id. Exactly one caller per id observes true, also under concurrent
// duplicate deliveries.
func (s *PostgresStore) ClaimMessage(ctx context.Context, messageID, conversationID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO processed_messages (message_id, wa_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (message_id) DO NOTHING`,
		messageID, conversationID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("claim message: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) LoadSession(ctx context.Context, conversationID string) (SessionRecord, error) {
	rec := SessionRecord{ConversationID: conversationID}
	err := s.pool.QueryRow(ctx,
		`SELECT state, data_json, updated_at, pause_bot FROM sessions WHERE wa_id=$1`,
		conversationID,
	).Scan(&rec.State, &rec.DataJSON, &rec.UpdatedAt, &rec.Paused)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSession(conversationID), nil
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("load session: %w", err)
	}
	return rec, nil
}

// SaveSession is a plain upsert: last writer wins, per design.
func (s *PostgresStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (wa_id, state, data_json, updated_at, pause_bot)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (wa_id) DO UPDATE SET
			state = EXCLUDED.state,
			data_json = EXCLUDED.data_json,
			updated_at = EXCLUDED.updated_at,
			pause_bot = EXCLUDED.pause_bot`,
		rec.ConversationID, rec.State, rec.DataJSON, rec.UpdatedAt, rec.Paused,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, conversationID string, paused bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET pause_bot=$1 WHERE wa_id=$2`,
		paused, conversationID,
	)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	rec := DefaultSession(conversationID)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (wa_id, state, data_json, updated_at, pause_bot)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (wa_id) DO UPDATE SET pause_bot = EXCLUDED.pause_bot`,
		rec.ConversationID, rec.State, rec.DataJSON, time.Now().UTC(), paused,
	)
	if err != nil {
		return fmt.Errorf("set paused insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPaused(ctx context.Context, conversationID string) (bool, error) {
	var paused bool
	err := s.pool.QueryRow(ctx,
		`SELECT pause_bot FROM sessions WHERE wa_id=$1`, conversationID,
	).Scan(&paused)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get paused: %w", err)
	}
	return paused, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, rec MessageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (wa_id, direction, msg_type, body, wa_message_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ConversationID, string(rec.Direction), rec.ContentType, rec.Body, nullable(rec.ExternalID), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT wa_id,
			MAX(created_at) AS last_at,
			SUM(CASE WHEN direction='in' THEN 1 ELSE 0 END) AS in_msgs,
			SUM(CASE WHEN direction!='in' THEN 1 ELSE 0 END) AS out_msgs
		 FROM messages
		 GROUP BY wa_id
		 ORDER BY MAX(created_at) DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []ConversationSummary
	for rows.Next() {
		var c ConversationSummary
		if err := rows.Scan(&c.ConversationID, &c.LastAt, &c.InboundCount, &c.OutboundCount); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, wa_id, direction, msg_type, COALESCE(body, ''), COALESCE(wa_message_id, ''), created_at
		 FROM messages
		 WHERE wa_id=$1
		 ORDER BY id ASC
		 LIMIT $2`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		var dir string
		if err := rows.Scan(&m.ID, &m.ConversationID, &dir, &m.ContentType, &m.Body, &m.ExternalID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Direction = Direction(dir)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveOrder(ctx context.Context, rec OrderRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orders (wa_id, order_date, order_type, quantity, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ConversationID, rec.Date, rec.Type, rec.Quantity, rec.Status, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]OrderRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, wa_id, COALESCE(order_date, ''), COALESCE(order_type, ''), COALESCE(quantity, ''), status, created_at
		 FROM orders
		 ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(&o.ID, &o.ConversationID, &o.Date, &o.Type, &o.Quantity, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddOutbox(ctx context.Context, conversationID, message, reason string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outbox (wa_id, message, reason, created_at) VALUES ($1, $2, $3, $4)`,
		conversationID, message, nullable(reason), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add outbox: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, tenantSlug string, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_slug, COALESCE(sku, ''), name, COALESCE(description, ''),
			price_cents, currency, COALESCE(image_url, ''), created_at, updated_at
		 FROM products
		 WHERE tenant_slug=$1
		 ORDER BY id DESC
		 LIMIT $2 OFFSET $3`,
		tenantSlug, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantSlug, &p.SKU, &p.Name, &p.Description,
			&p.PriceCents, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountProducts(ctx context.Context, tenantSlug string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE tenant_slug=$1`, tenantSlug,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, tenantSlug string, productID int64) (Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_slug, COALESCE(sku, ''), name, COALESCE(description, ''),
			price_cents, currency, COALESCE(image_url, ''), created_at, updated_at
		 FROM products WHERE tenant_slug=$1 AND id=$2`,
		tenantSlug, productID,
	).Scan(&p.ID, &p.TenantSlug, &p.SKU, &p.Name, &p.Description,
		&p.PriceCents, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if product.Currency == "" {
		product.Currency = "BRL"
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (tenant_slug, sku, name, description, price_cents, currency, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		product.TenantSlug, nullable(product.SKU), product.Name, nullable(product.Description),
		product.PriceCents, product.Currency, nullable(product.ImageURL),
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, tenantSlug string, productID int64, patch ProductPatch) (Product, error) {
	if patch.Empty() {
		return s.GetProduct(ctx, tenantSlug, productID)
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.SKU != nil {
		add("sku", *patch.SKU)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.PriceCents != nil {
		add("price_cents", *patch.PriceCents)
	}
	if patch.Currency != nil {
		add("currency", *patch.Currency)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}

	args = append(args, tenantSlug, productID)
	query := fmt.Sprintf(
		`UPDATE products SET %s, updated_at = NOW()
		 WHERE tenant_slug = $%d AND id = $%d
		 RETURNING id, tenant_slug, COALESCE(sku, ''), name, COALESCE(description, ''),
			price_cents, currency, COALESCE(image_url, ''), created_at, updated_at`,
		strings.Join(set, ", "), len(args)-1, len(args),
	)

	var p Product
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.TenantSlug, &p.SKU, &p.Name, &p.Description,
		&p.PriceCents, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, tenantSlug string, productID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM products WHERE tenant_slug=$1 AND id=$2`, tenantSlug, productID,
	)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// nullable maps empty strings to NULL for optional text columns.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
