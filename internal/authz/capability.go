package authz

import "github.com/polkiloo/farmsupply/internal/domain/model"

// Resource is a route or capability named in the capability table.
type Resource string

const (
	ResourceUsers           Resource = "users:manage"
	ResourceFarmersWrite    Resource = "farmers:write"
	ResourceFarmersApprove  Resource = "farmers:approve"
	ResourceFarmersRead     Resource = "farmers:read"
	ResourceTrainingsManage Resource = "trainings:manage"
	ResourceTrainingsView   Resource = "trainings:view"
	ResourceProductsManage  Resource = "products:manage"
	ResourceProductsRead    Resource = "products:read"
	ResourceOrdersCreate    Resource = "orders:create"
	ResourceOrdersApprove   Resource = "orders:approve"
	ResourceOrdersFulfil    Resource = "orders:fulfil"
	ResourceOrdersRead      Resource = "orders:read"
	ResourceReportsExport   Resource = "reports:export"
)

// Dashboard returns the dashboard route owned by role.
func Dashboard(role model.Role) Resource {
	return Resource("dashboard:" + string(role))
}

// Scope narrows which entities of a readable collection a role sees.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAssigned
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeAssigned:
		return "assigned"
	case ScopeAll:
		return "all"
	}
	return "none"
}

// capabilities is the role x resource table. Absent entries are denied.
var capabilities = map[model.Role]map[Resource]Scope{
	model.RoleAdmin: {
		Dashboard(model.RoleAdmin): ScopeAll,
		ResourceUsers:              ScopeAll,
		ResourceFarmersWrite:       ScopeAll,
		ResourceFarmersApprove:     ScopeAll,
		ResourceFarmersRead:        ScopeAll,
		ResourceTrainingsManage:    ScopeAll,
		ResourceTrainingsView:      ScopeAll,
		ResourceProductsRead:       ScopeAll,
		ResourceOrdersApprove:      ScopeAll,
		ResourceOrdersRead:         ScopeAll,
		ResourceReportsExport:      ScopeAll,
	},
	model.RoleFieldOfficer: {
		Dashboard(model.RoleFieldOfficer): ScopeAll,
		ResourceFarmersWrite:              ScopeAll,
		ResourceFarmersRead:               ScopeAll,
		ResourceTrainingsView:             ScopeAll,
		ResourceProductsManage:            ScopeAll,
		ResourceProductsRead:              ScopeAll,
		ResourceOrdersFulfil:              ScopeAll,
		ResourceOrdersRead:                ScopeAssigned,
	},
	model.RoleFinanceOfficer: {
		Dashboard(model.RoleFinanceOfficer): ScopeAll,
		ResourceProductsRead:                ScopeAll,
		ResourceOrdersCreate:                ScopeAll,
		ResourceOrdersRead:                  ScopeOwn,
	},
	model.RoleTrainee: {
		Dashboard(model.RoleTrainee): ScopeAll,
	},
}

type edge struct {
	kind     model.EntityKind
	from, to model.State
}

// transitionCapabilities maps every lifecycle edge to the capability that
// may trigger it.
var transitionCapabilities = map[edge]Resource{
	{model.KindFarmer, model.StatePending, model.StateApproved}:  ResourceFarmersApprove,
	{model.KindFarmer, model.StatePending, model.StateRejected}:  ResourceFarmersApprove,
	{model.KindOrder, model.StatePending, model.StateApproved}:   ResourceOrdersApprove,
	{model.KindOrder, model.StatePending, model.StateRejected}:   ResourceOrdersApprove,
	{model.KindOrder, model.StateApproved, model.StateScheduled}: ResourceOrdersFulfil,
	{model.KindOrder, model.StateScheduled, model.StateDelivered}: ResourceOrdersFulfil,
}

// CommandResource returns the capability required by a non-transition command.
func CommandResource(kind model.EntityKind, action model.Action) (Resource, bool) {
	switch kind {
	case model.KindFarmer:
		switch action {
		case model.ActionCreate, model.ActionUpdate, model.ActionDelete:
			return ResourceFarmersWrite, true
		}
	case model.KindProduct:
		switch action {
		case model.ActionCreate, model.ActionUpdate, model.ActionDelete:
			return ResourceProductsManage, true
		}
	case model.KindOrder:
		if action == model.ActionCreate {
			return ResourceOrdersCreate, true
		}
	case model.KindUser:
		switch action {
		case model.ActionCreate, model.ActionUpdate, model.ActionDelete:
			return ResourceUsers, true
		}
	case model.KindTraining:
		switch action {
		case model.ActionCreate, model.ActionUpdate, model.ActionDelete:
			return ResourceTrainingsManage, true
		}
	}
	return "", false
}

// ReadResource returns the capability needed to read a collection.
func ReadResource(c model.Collection) Resource {
	switch c {
	case model.CollectionFarmers:
		return ResourceFarmersRead
	case model.CollectionProducts:
		return ResourceProductsRead
	case model.CollectionOrders:
		return ResourceOrdersRead
	case model.CollectionUsers:
		return ResourceUsers
	case model.CollectionTrainings:
		return ResourceTrainingsView
	}
	return ""
}
