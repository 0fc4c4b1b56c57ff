package domain

import "errors"

var (
	ErrDuplicateOrder = errors.New("order already recorded")
	ErrOrderNotFound  = errors.New("order not found")
)
