package authz

import (
	"sort"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Guard answers permission questions from the static capability table. It
// never performs I/O and never fails: denial is a plain false.
type Guard struct{}

// NewGuard constructs Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// CanAccess reports whether the principal may use resource. A nil principal
// is denied everything.
func (g *Guard) CanAccess(p *model.Principal, resource Resource) bool {
	return g.scope(p, resource) != ScopeNone
}

// CanTransition reports whether the principal may move an entity of kind
// from one state to another. Pairs that are not lifecycle edges are denied.
func (g *Guard) CanTransition(p *model.Principal, kind model.EntityKind, from, to model.State) bool {
	resource, ok := transitionCapabilities[edge{kind, from, to}]
	if !ok {
		return false
	}
	return g.CanAccess(p, resource)
}

// ReadScope returns how much of a collection the principal may see.
func (g *Guard) ReadScope(p *model.Principal, c model.Collection) Scope {
	return g.scope(p, ReadResource(c))
}

// Readable lists the collections the principal may read.
func (g *Guard) Readable(p *model.Principal) []model.Collection {
	var out []model.Collection
	for _, c := range model.Collections {
		if g.ReadScope(p, c) != ScopeNone {
			out = append(out, c)
		}
	}
	return out
}

// Capabilities returns a copy of the resources granted to role with their
// scope. SortedResources orders the keys.
func (g *Guard) Capabilities(role model.Role) map[Resource]Scope {
	granted := capabilities[role]
	out := make(map[Resource]Scope, len(granted))
	for r, s := range granted {
		out[r] = s
	}
	return out
}

// SortedResources returns the keys of caps in name order.
func SortedResources(caps map[Resource]Scope) []Resource {
	out := make([]Resource, 0, len(caps))
	for r := range caps {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Guard) scope(p *model.Principal, resource Resource) Scope {
	if p == nil {
		return ScopeNone
	}
	return capabilities[p.Role][resource]
}
