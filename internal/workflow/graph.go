package workflow

import "github.com/polkiloo/farmsupply/internal/domain/model"

// Edge is a legal step of an entity lifecycle.
type Edge struct {
	From model.State
	To   model.State
}

// Graph is the edge list of one lifecycle.
type Graph []Edge

// FarmerApproval is the farmer approval lifecycle. Both targets are terminal.
var FarmerApproval = Graph{
	{model.StatePending, model.StateApproved},
	{model.StatePending, model.StateRejected},
}

// OrderLifecycle is the order lifecycle. Delivered and rejected are terminal.
var OrderLifecycle = Graph{
	{model.StatePending, model.StateApproved},
	{model.StatePending, model.StateRejected},
	{model.StateApproved, model.StateScheduled},
	{model.StateScheduled, model.StateDelivered},
}

// GraphFor returns the lifecycle of kind. Entities without a lifecycle
// report false.
func GraphFor(kind model.EntityKind) (Graph, bool) {
	switch kind {
	case model.KindFarmer:
		return FarmerApproval, true
	case model.KindOrder:
		return OrderLifecycle, true
	}
	return nil, false
}

// HasEdge reports whether from -> to is a legal step.
func (g Graph) HasEdge(from, to model.State) bool {
	for _, e := range g {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// HasState reports whether s appears in the lifecycle.
func (g Graph) HasState(s model.State) bool {
	for _, e := range g {
		if e.From == s || e.To == s {
			return true
		}
	}
	return false
}

// IsTarget reports whether some edge ends in s.
func (g Graph) IsTarget(s model.State) bool {
	for _, e := range g {
		if e.To == s {
			return true
		}
	}
	return false
}

// ValidTarget reports whether to may be requested for kind at all. Farmer
// transitions are approval decisions and accept only decision outcomes.
// Order targets need only belong to the lifecycle.
func ValidTarget(kind model.EntityKind, to model.State) bool {
	graph, ok := GraphFor(kind)
	if !ok {
		return false
	}
	if kind == model.KindFarmer {
		return graph.IsTarget(to)
	}
	return graph.HasState(to)
}

// Targets lists the states reachable in one step from s.
func (g Graph) Targets(s model.State) []model.State {
	var out []model.State
	for _, e := range g {
		if e.From == s {
			out = append(out, e.To)
		}
	}
	return out
}

// Terminal reports whether s is a lifecycle state with no outgoing edge.
func (g Graph) Terminal(s model.State) bool {
	return g.HasState(s) && len(g.Targets(s)) == 0
}

// Initial returns the state new entities start in.
func (g Graph) Initial() model.State {
	if len(g) == 0 {
		return ""
	}
	return g[0].From
}
