package test

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// BackendStub is an in-memory backend service. Mutations change its data the
// way the real service does, so refetches observe them.
type BackendStub struct {
	mu sync.Mutex

	Farmers    []model.Farmer
	Products   []model.Product
	Orders     []model.Order
	Users      []model.User
	Trainings  []model.Training
	InvoicePDF []byte

	// Accounts maps username to password and identity for Login.
	Accounts map[string]Account

	// Errs fails the named operation, e.g. "ListOrders" or "SetOrderStatus".
	Errs map[string]error

	// Gate, when set, blocks mutations until it is closed or receives.
	Gate chan struct{}
	// Entered receives the operation name when a mutation starts.
	Entered chan string

	calls  []string
	nextID int64
}

// Account is a backend login.
type Account struct {
	Password  string
	Token     string
	Principal model.Principal
}

// NewBackendStub constructs an empty backend.
func NewBackendStub() *BackendStub {
	return &BackendStub{
		Accounts:   map[string]Account{},
		Errs:       map[string]error{},
		InvoicePDF: []byte("%PDF-1.4 invoice"),
		nextID:     1000,
	}
}

// SetErr fails op with err until cleared with a nil err.
func (b *BackendStub) SetErr(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.Errs, op)
		return
	}
	b.Errs[op] = err
}

// Calls returns the operations invoked so far.
func (b *BackendStub) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallCount returns how often op was invoked.
func (b *BackendStub) CallCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == op {
			n++
		}
	}
	return n
}

// OrderByID returns the backend copy of an order.
func (b *BackendStub) OrderByID(id int64) (model.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

// RejectedErr mimics a backend error status.
func RejectedErr(op string) error {
	return domainErrors.Rejected(op, http.StatusConflict)
}

// UnreachableErr mimics a transport failure.
func UnreachableErr(op string) error {
	return domainErrors.Unreachable(op, context.DeadlineExceeded)
}

func (b *BackendStub) record(op string) error {
	b.mu.Lock()
	b.calls = append(b.calls, op)
	err := b.Errs[op]
	b.mu.Unlock()
	return err
}

func (b *BackendStub) mutate(ctx context.Context, op string, apply func() error) error {
	if err := b.record(op); err != nil {
		return err
	}
	if b.Entered != nil {
		select {
		case b.Entered <- op:
		default:
		}
	}
	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return apply()
}

func (b *BackendStub) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *BackendStub) Login(_ context.Context, username, password string) (backend.LoginResult, error) {
	if err := b.record("Login"); err != nil {
		return backend.LoginResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.Accounts[username]
	if !ok || acc.Password != password {
		return backend.LoginResult{}, &domainErrors.AuthError{Op: "login", Err: domainErrors.ErrInvalidCredentials}
	}
	return backend.LoginResult{Token: acc.Token, Principal: acc.Principal}, nil
}

func (b *BackendStub) ListFarmers(context.Context) ([]model.Farmer, error) {
	if err := b.record("ListFarmers"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Farmers), nil
}

func (b *BackendStub) CreateFarmer(ctx context.Context, in model.FarmerInput) error {
	return b.mutate(ctx, "CreateFarmer", func() error {
		b.Farmers = append(b.Farmers, farmerFrom(b.id(), in, model.StatePending))
		return nil
	})
}

func (b *BackendStub) UpdateFarmer(ctx context.Context, id int64, in model.FarmerInput) error {
	return b.mutate(ctx, "UpdateFarmer", func() error {
		i := slices.IndexFunc(b.Farmers, func(f model.Farmer) bool { return f.ID == id })
		if i < 0 {
			return domainErrors.Rejected("update farmer", http.StatusNotFound)
		}
		b.Farmers[i] = farmerFrom(id, in, b.Farmers[i].ApprovalStatus)
		return nil
	})
}

func (b *BackendStub) DeleteFarmer(ctx context.Context, id int64) error {
	return b.mutate(ctx, "DeleteFarmer", func() error {
		b.Farmers = slices.DeleteFunc(b.Farmers, func(f model.Farmer) bool { return f.ID == id })
		return nil
	})
}

func (b *BackendStub) SetFarmerApproval(ctx context.Context, id int64, status model.State) error {
	return b.mutate(ctx, "SetFarmerApproval", func() error {
		i := slices.IndexFunc(b.Farmers, func(f model.Farmer) bool { return f.ID == id })
		if i < 0 {
			return domainErrors.Rejected("approve farmer", http.StatusNotFound)
		}
		b.Farmers[i].ApprovalStatus = status
		return nil
	})
}

func (b *BackendStub) ListProducts(context.Context) ([]model.Product, error) {
	if err := b.record("ListProducts"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Products), nil
}

func (b *BackendStub) CreateProduct(ctx context.Context, in model.ProductInput) error {
	return b.mutate(ctx, "CreateProduct", func() error {
		b.Products = append(b.Products, productFrom(b.id(), in))
		return nil
	})
}

func (b *BackendStub) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) error {
	return b.mutate(ctx, "UpdateProduct", func() error {
		i := slices.IndexFunc(b.Products, func(p model.Product) bool { return p.ID == id })
		if i < 0 {
			return domainErrors.Rejected("update product", http.StatusNotFound)
		}
		b.Products[i] = productFrom(id, in)
		return nil
	})
}

func (b *BackendStub) DeleteProduct(ctx context.Context, id int64) error {
	return b.mutate(ctx, "DeleteProduct", func() error {
		b.Products = slices.DeleteFunc(b.Products, func(p model.Product) bool { return p.ID == id })
		return nil
	})
}

func (b *BackendStub) ListOrders(context.Context) ([]model.Order, error) {
	if err := b.record("ListOrders"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Orders), nil
}

// CreateOrder prices the order and takes the quantity off the product stock.
func (b *BackendStub) CreateOrder(ctx context.Context, in model.OrderInput, orderedBy int64) error {
	return b.mutate(ctx, "CreateOrder", func() error {
		i := slices.IndexFunc(b.Products, func(p model.Product) bool { return p.ID == in.ProductID })
		if i < 0 || b.Products[i].QuantityOnHand < in.Quantity {
			return domainErrors.Rejected("create order", http.StatusBadRequest)
		}
		b.Products[i].QuantityOnHand -= in.Quantity
		now := time.Now().UTC()
		b.Orders = append(b.Orders, model.Order{
			ID:         b.id(),
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			TotalPrice: b.Products[i].UnitPrice.Mul(decimal.NewFromInt(in.Quantity)),
			OrderedBy:  orderedBy,
			Status:     model.StatePending,
			OrderedAt:  &now,
		})
		return nil
	})
}

func (b *BackendStub) SetOrderStatus(ctx context.Context, id int64, status model.State) error {
	return b.mutate(ctx, "SetOrderStatus", func() error {
		i := slices.IndexFunc(b.Orders, func(o model.Order) bool { return o.ID == id })
		if i < 0 {
			return domainErrors.Rejected("set order status", http.StatusNotFound)
		}
		b.Orders[i].Status = status
		return nil
	})
}

func (b *BackendStub) ScheduleDelivery(ctx context.Context, id int64, date time.Time) error {
	return b.mutate(ctx, "ScheduleDelivery", func() error {
		i := slices.IndexFunc(b.Orders, func(o model.Order) bool { return o.ID == id })
		if i < 0 {
			return domainErrors.Rejected("schedule delivery", http.StatusNotFound)
		}
		b.Orders[i].Status = model.StateScheduled
		b.Orders[i].DeliveryDate = &date
		return nil
	})
}

func (b *BackendStub) Invoice(context.Context, int64) ([]byte, error) {
	if err := b.record("Invoice"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.InvoicePDF), nil
}

func (b *BackendStub) ListUsers(context.Context) ([]model.User, error) {
	if err := b.record("ListUsers"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Users), nil
}

func (b *BackendStub) CreateUser(ctx context.Context, in model.UserInput) error {
	return b.mutate(ctx, "CreateUser", func() error {
		b.Users = append(b.Users, model.User{ID: b.id(), Username: in.Username, Email: in.Email, Role: in.Role})
		return nil
	})
}

func (b *BackendStub) UpdateUser(ctx context.Context, id int64, in model.UserInput) error {
	return b.mutate(ctx, "UpdateUser", func() error {
		i := slices.IndexFunc(b.Users, func(u model.User) bool { return u.ID == id })
		if i < 0 {
			return domainErrors.Rejected("update user", http.StatusNotFound)
		}
		b.Users[i] = model.User{ID: id, Username: in.Username, Email: in.Email, Role: in.Role}
		return nil
	})
}

func (b *BackendStub) DeleteUser(ctx context.Context, id int64) error {
	return b.mutate(ctx, "DeleteUser", func() error {
		b.Users = slices.DeleteFunc(b.Users, func(u model.User) bool { return u.ID == id })
		return nil
	})
}

func (b *BackendStub) ListTrainings(context.Context) ([]model.Training, error) {
	if err := b.record("ListTrainings"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Trainings), nil
}

func (b *BackendStub) CreateTraining(ctx context.Context, in model.TrainingInput) error {
	return b.mutate(ctx, "CreateTraining", func() error {
		b.Trainings = append(b.Trainings, model.Training{ID: b.id(), Title: in.Title, Description: in.Description, ScheduledDate: in.ScheduledDate})
		return nil
	})
}

func (b *BackendStub) UpdateTraining(ctx context.Context, id int64, in model.TrainingInput) error {
	return b.mutate(ctx, "UpdateTraining", func() error {
		i := slices.IndexFunc(b.Trainings, func(t model.Training) bool { return t.ID == id })
		if i < 0 {
			return domainErrors.Rejected("update training", http.StatusNotFound)
		}
		b.Trainings[i] = model.Training{ID: id, Title: in.Title, Description: in.Description, ScheduledDate: in.ScheduledDate}
		return nil
	})
}

func (b *BackendStub) DeleteTraining(ctx context.Context, id int64) error {
	return b.mutate(ctx, "DeleteTraining", func() error {
		b.Trainings = slices.DeleteFunc(b.Trainings, func(t model.Training) bool { return t.ID == id })
		return nil
	})
}

func farmerFrom(id int64, in model.FarmerInput, status model.State) model.Farmer {
	return model.Farmer{
		ID:               id,
		Name:             in.Name,
		TelNo:            in.TelNo,
		Address:          in.Address,
		AccountNo:        in.AccountNo,
		NationalID:       in.NationalID,
		Site:             in.Site,
		FarmSize:         in.FarmSize,
		HarvestPerSeason: in.HarvestPerSeason,
		ApprovalStatus:   status,
	}
}

func productFrom(id int64, in model.ProductInput) model.Product {
	return model.Product{
		ID:             id,
		Name:           in.Name,
		QuantityOnHand: in.Quantity,
		UnitPrice:      in.UnitPrice,
		OwnerFarmerID:  in.OwnerFarmerID,
	}
}

var _ backend.Client = (*BackendStub)(nil)
