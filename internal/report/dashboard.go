package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

const dayLayout = "2006-01-02"

// DayCount is the number of orders placed on one calendar day.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Dashboard aggregates the cached collections for the landing page.
type Dashboard struct {
	Farmers      map[model.State]int `json:"farmers"`
	Products     int                 `json:"products"`
	Stock        int64               `json:"stock"`
	Orders       map[model.State]int `json:"orders"`
	Revenue      decimal.Decimal     `json:"revenue"`
	OrdersPerDay []DayCount          `json:"ordersPerDay"`
	Users        int                 `json:"users"`
	Trainings    int                 `json:"trainings"`
}

// revenueStates are the order states that count as sold.
var revenueStates = map[model.State]bool{
	model.StateApproved:  true,
	model.StateScheduled: true,
	model.StateDelivered: true,
}

// Compute builds the dashboard from a snapshot. Collections the principal
// cannot read are simply empty.
func Compute(snap model.Snapshot) Dashboard {
	d := Dashboard{
		Farmers:   make(map[model.State]int),
		Orders:    make(map[model.State]int),
		Revenue:   decimal.Zero,
		Products:  len(snap.Products),
		Users:     len(snap.Users),
		Trainings: len(snap.Trainings),
	}
	for _, f := range snap.Farmers {
		d.Farmers[f.ApprovalStatus]++
	}
	for _, p := range snap.Products {
		d.Stock += p.QuantityOnHand
	}

	perDay := make(map[string]int)
	for _, o := range snap.Orders {
		d.Orders[o.Status]++
		if revenueStates[o.Status] {
			d.Revenue = d.Revenue.Add(o.TotalPrice)
		}
		if o.OrderedAt != nil {
			perDay[o.OrderedAt.UTC().Format(dayLayout)]++
		}
	}

	d.OrdersPerDay = make([]DayCount, 0, len(perDay))
	for day, n := range perDay {
		d.OrdersPerDay = append(d.OrdersPerDay, DayCount{Day: day, Count: n})
	}
	sort.Slice(d.OrdersPerDay, func(i, j int) bool { return d.OrdersPerDay[i].Day < d.OrdersPerDay[j].Day })
	return d
}
