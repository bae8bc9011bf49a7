package model

// Farmer is an onboarded supplier awaiting or holding approval.
type Farmer struct {
	ID               int64
	Name             string
	TelNo            string
	Address          string
	AccountNo        string
	NationalID       string
	Site             string
	FarmSize         float64
	HarvestPerSeason float64
	ApprovalStatus   State
}

// Approved reports whether the farmer may own sellable products.
func (f Farmer) Approved() bool {
	return f.ApprovalStatus == StateApproved
}

// FarmerInput carries the editable farmer fields.
type FarmerInput struct {
	Name             string  `validate:"required,max=128"`
	TelNo            string  `validate:"omitempty,max=32"`
	Address          string  `validate:"omitempty,max=256"`
	AccountNo        string  `validate:"omitempty,max=64"`
	NationalID       string  `validate:"omitempty,max=32"`
	Site             string  `validate:"required,max=128"`
	FarmSize         float64 `validate:"gte=0"`
	HarvestPerSeason float64 `validate:"gte=0"`
}
