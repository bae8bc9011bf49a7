package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FarmerRequest carries editable farmer fields.
type FarmerRequest struct {
	Name             string  `json:"name"`
	TelNo            string  `json:"telNo"`
	Address          string  `json:"address"`
	AccountNo        string  `json:"accountNo"`
	NationalID       string  `json:"nationalId"`
	Site             string  `json:"site"`
	FarmSize         float64 `json:"farmSize"`
	HarvestPerSeason float64 `json:"harvestPerSeason"`
}

// FarmerResponse describes a cached farmer.
type FarmerResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	TelNo            string  `json:"telNo"`
	Address          string  `json:"address"`
	AccountNo        string  `json:"accountNo"`
	NationalID       string  `json:"nationalId"`
	Site             string  `json:"site"`
	FarmSize         float64 `json:"farmSize"`
	HarvestPerSeason float64 `json:"harvestPerSeason"`
	ApprovalStatus   string  `json:"approvalStatus"`
}

// ProductRequest carries editable product fields.
type ProductRequest struct {
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	OwnerFarmerID int64           `json:"farmerId"`
}

// ProductResponse describes a product joined with its owner.
type ProductResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	OwnerFarmerID int64           `json:"farmerId"`
	OwnerName     string          `json:"ownerName,omitempty"`
	OwnerApproval string          `json:"ownerApproval,omitempty"`
	OwnerMissing  bool            `json:"ownerMissing,omitempty"`
}

// OrderRequest places an order.
type OrderRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// OrderResponse describes a cached order.
type OrderResponse struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"productId"`
	Quantity     int64           `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	OrderedBy    int64           `json:"orderedBy"`
	Status       string          `json:"status"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	OrderedAt    *time.Time      `json:"orderedAt,omitempty"`
}

// UserRequest carries user fields. Password is write-only.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserResponse describes a console account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TrainingRequest carries training fields. ScheduledDate is YYYY-MM-DD.
type TrainingRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ScheduledDate string `json:"scheduledDate"`
}

// TrainingResponse describes a training session.
type TrainingResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
}
