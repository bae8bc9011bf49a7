package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a purchase of a product moving from pending to delivery.
type Order struct {
	ID           int64
	ProductID    int64
	Quantity     int64
	TotalPrice   decimal.Decimal
	OrderedBy    int64
	Status       State
	DeliveryDate *time.Time
	OrderedAt    *time.Time
}

// OrderInput carries the fields needed to place an order.
type OrderInput struct {
	ProductID int64 `validate:"gt=0"`
	Quantity  int64 `validate:"gt=0"`
}
