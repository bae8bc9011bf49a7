package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// flexFloat accepts numbers and numeric strings; SQL decimals arrive quoted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*i = flexInt(v)
	return nil
}

// flexTime accepts RFC 3339 timestamps and plain dates.
type flexTime struct {
	time *time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		t.time = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.time = &parsed
			return nil
		}
	}
	return &time.ParseError{Layout: time.RFC3339, Value: s, Message: ": unsupported date"}
}

func dateOnly(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func state(raw string) model.State {
	s := model.State(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return model.StatePending
	}
	return s
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string  `json:"token"`
	Role   string  `json:"role"`
	UserID flexInt `json:"userId"`
}

type statusRequest struct {
	Status model.State `json:"status"`
}

type scheduleRequest struct {
	DeliveryDate string `json:"deliveryDate"`
}

type farmerDTO struct {
	FarmerID         flexInt   `json:"FarmerId"`
	FarmerName       string    `json:"FarmerName"`
	TelNo            string    `json:"TelNo"`
	Address          string    `json:"Address"`
	AccountNo        string    `json:"AccountNo"`
	NationalID       string    `json:"NationalId"`
	Site             string    `json:"Site"`
	FarmSize         flexFloat `json:"farmSize"`
	HarvestPerSeason flexFloat `json:"harvestPerSeason"`
	Status           string    `json:"status"`
}

func (d farmerDTO) model() model.Farmer {
	return model.Farmer{
		ID:               int64(d.FarmerID),
		Name:             d.FarmerName,
		TelNo:            d.TelNo,
		Address:          d.Address,
		AccountNo:        d.AccountNo,
		NationalID:       d.NationalID,
		Site:             d.Site,
		FarmSize:         float64(d.FarmSize),
		HarvestPerSeason: float64(d.HarvestPerSeason),
		ApprovalStatus:   state(d.Status),
	}
}

type farmerRequest struct {
	FarmerName       string  `json:"FarmerName"`
	TelNo            string  `json:"TelNo"`
	Address          string  `json:"Address"`
	AccountNo        string  `json:"AccountNo"`
	NationalID       string  `json:"NationalId"`
	Site             string  `json:"Site"`
	FarmSize         float64 `json:"farmSize"`
	HarvestPerSeason float64 `json:"harvestPerSeason"`
}

func newFarmerRequest(in model.FarmerInput) farmerRequest {
	return farmerRequest{
		FarmerName:       in.Name,
		TelNo:            in.TelNo,
		Address:          in.Address,
		AccountNo:        in.AccountNo,
		NationalID:       in.NationalID,
		Site:             in.Site,
		FarmSize:         in.FarmSize,
		HarvestPerSeason: in.HarvestPerSeason,
	}
}

type productDTO struct {
	ProductID    flexInt         `json:"ProductId"`
	ProductName  string          `json:"ProductName"`
	Quantity     flexInt         `json:"Quantity"`
	UnitPriceRwf decimal.Decimal `json:"UnitPriceRwf"`
	FarmerID     flexInt         `json:"FarmerId"`
}

func (d productDTO) model() model.Product {
	return model.Product{
		ID:             int64(d.ProductID),
		Name:           d.ProductName,
		QuantityOnHand: int64(d.Quantity),
		UnitPrice:      d.UnitPriceRwf,
		OwnerFarmerID:  int64(d.FarmerID),
	}
}

type productRequest struct {
	ProductName  string      `json:"ProductName"`
	Quantity     int64       `json:"Quantity"`
	UnitPriceRwf json.Number `json:"UnitPriceRwf"`
	FarmerID     int64       `json:"FarmerId"`
}

func newProductRequest(in model.ProductInput) productRequest {
	return productRequest{
		ProductName:  in.Name,
		Quantity:     in.Quantity,
		UnitPriceRwf: money(in.UnitPrice),
		FarmerID:     in.OwnerFarmerID,
	}
}

type orderDTO struct {
	OrderID      flexInt         `json:"OrderId"`
	ProductID    flexInt         `json:"ProductId"`
	Quantity     flexInt         `json:"Quantity"`
	TotalPrice   decimal.Decimal `json:"TotalPrice"`
	Status       string          `json:"Status"`
	OrderedBy    flexInt         `json:"OrderedBy"`
	DeliveryDate flexTime        `json:"deliveryDate"`
	OrderDate    flexTime        `json:"OrderDate"`
}

func (d orderDTO) model() model.Order {
	return model.Order{
		ID:           int64(d.OrderID),
		ProductID:    int64(d.ProductID),
		Quantity:     int64(d.Quantity),
		TotalPrice:   d.TotalPrice,
		OrderedBy:    int64(d.OrderedBy),
		Status:       state(d.Status),
		DeliveryDate: d.DeliveryDate.time,
		OrderedAt:    d.OrderDate.time,
	}
}

type orderRequest struct {
	ProductID int64 `json:"ProductId"`
	Quantity  int64 `json:"Quantity"`
	OrderedBy int64 `json:"OrderedBy"`
}

type userDTO struct {
	ID       flexInt `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
}

func (d userDTO) model() model.User {
	return model.User{ID: int64(d.ID), Username: d.Username, Email: d.Email, Role: model.Role(d.Role)}
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

type trainingDTO struct {
	TrainingID    flexInt  `json:"TrainingId"`
	TrainingTitle string   `json:"TrainingTitle"`
	Description   string   `json:"Description"`
	ScheduledDate flexTime `json:"ScheduledDate"`
}

func (d trainingDTO) model() model.Training {
	return model.Training{
		ID:            int64(d.TrainingID),
		Title:         d.TrainingTitle,
		Description:   d.Description,
		ScheduledDate: d.ScheduledDate.time,
	}
}

type trainingRequest struct {
	TrainingTitle string `json:"TrainingTitle"`
	Description   string `json:"Description"`
	ScheduledDate string `json:"ScheduledDate,omitempty"`
}
