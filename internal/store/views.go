package store

import "github.com/polkiloo/farmsupply/internal/domain/model"

// ProductViews joins products with their owners. A deleted owner leaves the
// view with OwnerMissing set.
func (s *Store) ProductViews() []model.ProductView {
	return JoinProducts(s.Snapshot())
}

// JoinProducts joins the products of snap with their owners.
func JoinProducts(snap model.Snapshot) []model.ProductView {
	owners := make(map[int64]model.Farmer, len(snap.Farmers))
	for _, f := range snap.Farmers {
		owners[f.ID] = f
	}

	views := make([]model.ProductView, 0, len(snap.Products))
	for _, p := range snap.Products {
		v := model.ProductView{Product: p}
		if owner, ok := owners[p.OwnerFarmerID]; ok {
			v.OwnerName = owner.Name
			v.OwnerApproval = owner.ApprovalStatus
		} else {
			v.OwnerMissing = true
		}
		views = append(views, v)
	}
	return views
}

// Order returns the cached order with id.
func (s *Store) Order(id int64) (model.Order, bool) {
	for _, o := range s.Snapshot().Orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

// Farmer returns the cached farmer with id.
func (s *Store) Farmer(id int64) (model.Farmer, bool) {
	for _, f := range s.Snapshot().Farmers {
		if f.ID == id {
			return f, true
		}
	}
	return model.Farmer{}, false
}
