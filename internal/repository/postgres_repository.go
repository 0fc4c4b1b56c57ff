package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(cred *Credentials, logger *zap.Logger) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	logger.Info("connected to postgres", zap.String("host", cred.Host), zap.String("db", cred.DBName))
	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// RecordPaidOrder inserts the order once. A second insert for the same id returns
// domain.ErrDuplicateOrder.
func (r *Repository) RecordPaidOrder(ctx context.Context, order domain.PaidOrder) error {
	if strings.TrimSpace(order.OrderID) == "" {
		return ErrEmptyOrderID
	}

	items := order.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO paid_orders (order_id, amount, currency, customer_name, customer_email, customer_phone,
	              items, address, city, shipping_cost, notes, pickup, lang, paid_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.OrderID,
		order.Amount,
		order.Currency,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		itemsJSON,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.Cost,
		order.Shipping.Notes,
		order.Pickup,
		order.Lang,
		order.PaidAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateOrder
		}
		return fmt.Errorf("insert paid order: %w", insertErr)
	}
	return nil
}

// MarkNotified stamps the order once its emails went out.
func (r *Repository) MarkNotified(ctx context.Context, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE paid_orders SET notified_at = NOW() WHERE order_id = $1 AND notified_at IS NULL`, orderID)
	if err != nil {
		return fmt.Errorf("mark order notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark order notified: %w", err)
	}
	if n == 0 {
		if _, err := r.IsNotified(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) IsNotified(ctx context.Context, orderID string) (bool, error) {
	var notified bool
	err := r.db.QueryRowContext(ctx,
		`SELECT notified_at IS NOT NULL FROM paid_orders WHERE order_id = $1`, orderID).Scan(&notified)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrOrderNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query order notified: %w", err)
	}
	return notified, nil
}

const selectPaidOrder = `SELECT order_id, amount, currency, customer_name, customer_email, customer_phone,
	          items, address, city, shipping_cost, notes, pickup, lang, paid_at
	          FROM paid_orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaidOrder(row rowScanner) (*domain.PaidOrder, error) {
	var o domain.PaidOrder
	var itemsJSON []byte
	err := row.Scan(
		&o.OrderID,
		&o.Amount,
		&o.Currency,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&itemsJSON,
		&o.Shipping.Address,
		&o.Shipping.City,
		&o.Shipping.Cost,
		&o.Shipping.Notes,
		&o.Pickup,
		&o.Lang,
		&o.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	return &o, nil
}

func (r *Repository) GetPaidOrder(ctx context.Context, orderID string) (*domain.PaidOrder, error) {
	o, err := scanPaidOrder(r.db.QueryRowContext(ctx, selectPaidOrder+` WHERE order_id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query paid order: %w", err)
	}
	return o, nil
}

func (r *Repository) ListPaidOrdersByEmail(ctx context.Context, email string) ([]*domain.PaidOrder, error) {
	rows, err := r.db.QueryContext(ctx, selectPaidOrder+` WHERE customer_email = $1 ORDER BY paid_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("query paid orders by email: %w", err)
	}
	defer rows.Close()

	var orders []*domain.PaidOrder
	for rows.Next() {
		o, err := scanPaidOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paid order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paid orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
