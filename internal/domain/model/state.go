package model

// State is a lifecycle state shared by farmer approval and orders.
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateScheduled State = "scheduled"
	StateDelivered State = "delivered"
)

// EntityKind names the entity a command or transition targets.
type EntityKind string

const (
	KindFarmer   EntityKind = "farmer"
	KindProduct  EntityKind = "product"
	KindOrder    EntityKind = "order"
	KindUser     EntityKind = "user"
	KindTraining EntityKind = "training"
)

// Collection names a cached entity collection.
type Collection string

const (
	CollectionFarmers   Collection = "farmers"
	CollectionProducts  Collection = "products"
	CollectionOrders    Collection = "orders"
	CollectionUsers     Collection = "users"
	CollectionTrainings Collection = "trainings"
)

// Collections lists every cached collection in resync order.
var Collections = []Collection{
	CollectionFarmers,
	CollectionProducts,
	CollectionOrders,
	CollectionUsers,
	CollectionTrainings,
}

// Collection returns the collection that holds entities of kind k.
func (k EntityKind) Collection() Collection {
	switch k {
	case KindFarmer:
		return CollectionFarmers
	case KindProduct:
		return CollectionProducts
	case KindOrder:
		return CollectionOrders
	case KindUser:
		return CollectionUsers
	case KindTraining:
		return CollectionTrainings
	}
	return ""
}
