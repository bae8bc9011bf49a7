package model

import "github.com/shopspring/decimal"

// Product is a catalogued lot owned by one farmer.
type Product struct {
	ID             int64
	Name           string
	QuantityOnHand int64
	UnitPrice      decimal.Decimal
	OwnerFarmerID  int64
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name          string `validate:"required,max=128"`
	Quantity      int64  `validate:"gte=0"`
	UnitPrice     decimal.Decimal
	OwnerFarmerID int64 `validate:"gt=0"`
}

// ProductView joins a product with its owner for presentation. The owner may
// be missing when the farmer was deleted.
type ProductView struct {
	Product
	OwnerName     string
	OwnerApproval State
	OwnerMissing  bool
}
