package repository

import (
	"context"
	"errors"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
)

var ErrEmptyOrderID = errors.New("order id is required")

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// OrderLedger records every order whose payment was confirmed.
type OrderLedger interface {
	RecordPaidOrder(ctx context.Context, order domain.PaidOrder) error
	MarkNotified(ctx context.Context, orderID string) error
	IsNotified(ctx context.Context, orderID string) (bool, error)
	GetPaidOrder(ctx context.Context, orderID string) (*domain.PaidOrder, error)
	ListPaidOrdersByEmail(ctx context.Context, email string) ([]*domain.PaidOrder, error)
	RunMigrations() error
	Close() error
}
