package test

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Fixtures produces random but reproducible domain entities.
type Fixtures struct {
	faker *gofakeit.Faker
}

// NewFixtures seeds a generator. The same seed yields the same entities.
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{faker: gofakeit.New(seed)}
}

// Farmer returns a farmer with the given id and approval status.
func (f *Fixtures) Farmer(id int64, status model.State) model.Farmer {
	return model.Farmer{
		ID:               id,
		Name:             f.faker.Name(),
		TelNo:            f.faker.Phone(),
		Address:          f.faker.Street(),
		AccountNo:        f.faker.AchAccount(),
		NationalID:       f.faker.SSN(),
		Site:             f.faker.City(),
		FarmSize:         f.faker.Float64Range(0.5, 40),
		HarvestPerSeason: f.faker.Float64Range(10, 5000),
		ApprovalStatus:   status,
	}
}

// FarmerInput returns a valid farmer payload.
func (f *Fixtures) FarmerInput() model.FarmerInput {
	fm := f.Farmer(0, model.StatePending)
	return model.FarmerInput{
		Name:             fm.Name,
		TelNo:            fm.TelNo,
		Address:          fm.Address,
		AccountNo:        fm.AccountNo,
		NationalID:       fm.NationalID,
		Site:             fm.Site,
		FarmSize:         fm.FarmSize,
		HarvestPerSeason: fm.HarvestPerSeason,
	}
}

// Product returns a product owned by owner with the given stock.
func (f *Fixtures) Product(id, owner, stock int64) model.Product {
	return model.Product{
		ID:             id,
		Name:           f.faker.ProductName(),
		QuantityOnHand: stock,
		UnitPrice:      decimal.NewFromInt(int64(f.faker.Number(100, 5000))),
		OwnerFarmerID:  owner,
	}
}

// Order returns an order for product with a total computed from unitPrice.
func (f *Fixtures) Order(id int64, product model.Product, quantity, orderedBy int64, status model.State) model.Order {
	orderedAt := f.faker.DateRange(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	).UTC()
	return model.Order{
		ID:         id,
		ProductID:  product.ID,
		Quantity:   quantity,
		TotalPrice: product.UnitPrice.Mul(decimal.NewFromInt(quantity)),
		OrderedBy:  orderedBy,
		Status:     status,
		OrderedAt:  &orderedAt,
	}
}

// User returns a user with the given role.
func (f *Fixtures) User(id int64, role model.Role) model.User {
	return model.User{ID: id, Username: f.faker.Username(), Email: f.faker.Email(), Role: role}
}

// Training returns a training scheduled at when.
func (f *Fixtures) Training(id int64, when time.Time) model.Training {
	return model.Training{ID: id, Title: f.faker.Sentence(4), Description: f.faker.Sentence(12), ScheduledDate: &when}
}

// Password returns a password accepted by user payload validation.
func (f *Fixtures) Password() string {
	return f.faker.Password(true, true, true, false, false, 12)
}
