package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) PRIMARY KEY,
		sku VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		current_price DOUBLE NOT NULL,
		min_price DOUBLE NOT NULL,
		max_price DOUBLE NOT NULL,
		stock INT NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_points (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		price DOUBLE NOT NULL,
		created_at DATETIME(3) NOT NULL,
		KEY pp_product_time (product_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) PRIMARY KEY,
		session_id VARCHAR(64) NULL,
		total DOUBLE NOT NULL,
		created_at DATETIME(3) NOT NULL,
		KEY orders_time (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		product_id CHAR(36) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		qty INT NOT NULL,
		price_at_purchase DOUBLE NOT NULL,
		KEY oi_order (order_id),
		KEY oi_product (product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS views (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		session_id VARCHAR(64) NULL,
		ip VARCHAR(64) NULL,
		user_agent VARCHAR(512) NULL,
		created_at DATETIME(3) NOT NULL,
		KEY views_product_time (product_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS ticks (
		number BIGINT PRIMARY KEY,
		ran_at DATETIME(3) NOT NULL,
		updated INT NOT NULL
	)`,
}

// EnsureSchema creates all tables if missing. Safe to call repeatedly.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const productColumns = `id, sku, name, current_price, min_price, max_price, stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CurrentPrice, &p.MinPrice, &p.MaxPrice,
		&p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products by id: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, name, current_price, min_price, max_price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(3), NOW(3))
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			current_price = VALUES(current_price),
			min_price = VALUES(min_price),
			max_price = VALUES(max_price),
			stock = VALUES(stock),
			updated_at = NOW(3)`,
		p.ID, p.SKU, p.Name, p.CurrentPrice, p.MinPrice, p.MaxPrice, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.SKU, err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProductPrice(ctx context.Context, id string, price float64) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET current_price = ?, updated_at = NOW(3) WHERE id = ?`,
		price, id,
	)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	return nil
}

// DecrementStock applies only while stock covers qty, so two checkouts racing
// for the same units cannot both win.
func (m *MySQLAdapter) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products SET stock = stock - ?, updated_at = NOW(3)
		WHERE id = ? AND stock >= ?`,
		qty, id, qty,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (m *MySQLAdapter) IncrementStock(ctx context.Context, id string, qty int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET stock = stock + ?, updated_at = NOW(3) WHERE id = ?`,
		qty, id,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) InsertPricePoint(ctx context.Context, pp domain.PricePoint) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO price_points (product_id, price, created_at) VALUES (?, ?, ?)`,
		pp.ProductID, pp.Price, pp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert price point: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListPricePoints(ctx context.Context, productID string, limit int) ([]domain.PricePoint, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_id, price, created_at FROM price_points
		WHERE product_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query price points: %w", err)
	}
	defer rows.Close()

	var out []domain.PricePoint
	for rows.Next() {
		var pp domain.PricePoint
		if err := rows.Scan(&pp.ID, &pp.ProductID, &pp.Price, &pp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// TrimPriceHistory keeps the most recent keep rows per product. The inner
// derived table works around MySQL's LIMIT-in-IN restriction.
func (m *MySQLAdapter) TrimPriceHistory(ctx context.Context, productID string, keep int) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM price_points
		WHERE product_id = ? AND id NOT IN (
			SELECT id FROM (
				SELECT id FROM price_points
				WHERE product_id = ?
				ORDER BY created_at DESC, id DESC
				LIMIT ?
			) keepers
		)`,
		productID, productID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("trim price history: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sessionID := sql.NullString{String: order.SessionID, Valid: order.SessionID != ""}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, total, created_at) VALUES (?, ?, ?, ?)`,
		order.ID, sessionID, order.Total, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, sku, name, qty, price_at_purchase)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, it.ProductID, it.SKU, it.Name, it.Qty, it.PriceAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit()
}

func (m *MySQLAdapter) SumOrderedQty(ctx context.Context, productID string, since time.Time) (int, error) {
	var qty int
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(oi.qty), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id = ? AND o.created_at >= ?`,
		productID, since,
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("sum ordered qty: %w", err)
	}
	return qty, nil
}

func (m *MySQLAdapter) InsertView(ctx context.Context, v domain.View) error {
	sessionID := sql.NullString{String: v.SessionID, Valid: v.SessionID != ""}
	ip := sql.NullString{String: v.IP, Valid: v.IP != ""}
	ua := sql.NullString{String: v.UserAgent, Valid: v.UserAgent != ""}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO views (product_id, session_id, ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.ProductID, sessionID, ip, ua, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) CountViews(ctx context.Context, productID string, since time.Time) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM views WHERE product_id = ? AND created_at >= ?`,
		productID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

func (m *MySQLAdapter) LastTickNumber(ctx context.Context) (int64, error) {
	var number int64
	err := m.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) FROM ticks`).Scan(&number)
	if err != nil {
		return 0, fmt.Errorf("query last tick: %w", err)
	}
	return number, nil
}

func (m *MySQLAdapter) InsertTick(ctx context.Context, t domain.Tick) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO ticks (number, ran_at, updated) VALUES (?, ?, ?)`,
		t.Number, t.RanAt, t.Updated,
	)
	if err != nil {
		return fmt.Errorf("insert tick %d: %w", t.Number, err)
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
