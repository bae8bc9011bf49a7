package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/polkiloo/farmsupply/internal/authz"
	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Authorizer is the part of the guard the engine consults.
type Authorizer interface {
	CanAccess(p *model.Principal, resource authz.Resource) bool
	CanTransition(p *model.Principal, kind model.EntityKind, from, to model.State) bool
}

// Option customises Engine.
type Option func(*Engine)

// WithStrictApproval makes unapproved owner farmers a validation failure for
// product and order commands.
func WithStrictApproval(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithClock replaces the clock used to reject past delivery dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine validates commands against the lifecycles and the cached state. It
// never mutates the state it is given and never performs I/O.
type Engine struct {
	guard    Authorizer
	validate *validator.Validate
	strict   bool
	now      func() time.Time
}

// NewEngine constructs Engine.
func NewEngine(guard Authorizer, opts ...Option) *Engine {
	e := &Engine{
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply checks cmd for principal p against state and returns the resulting
// logical state. Errors are *errors.WorkflowError values.
func (e *Engine) Apply(p *model.Principal, cmd model.Command, state model.Snapshot) (model.TransitionResult, error) {
	if cmd.Action == model.ActionTransition {
		return e.applyTransition(p, cmd, state)
	}
	return e.applyMutation(p, cmd, state)
}

func (e *Engine) applyTransition(p *model.Principal, cmd model.Command, state model.Snapshot) (model.TransitionResult, error) {
	var from, to model.State
	if cmd.Transition != nil {
		from, to = cmd.Transition.From, cmd.Transition.To
	}
	fail := func(err error) (model.TransitionResult, error) {
		return model.TransitionResult{}, &domainErrors.WorkflowError{
			Entity: string(cmd.Entity), ID: cmd.ID, From: string(from), To: string(to), Err: err,
		}
	}

	graph, ok := GraphFor(cmd.Entity)
	if !ok {
		return fail(domainErrors.ErrIllegalTransition)
	}

	current, found := currentState(state, cmd.Entity, cmd.ID)
	if from == "" {
		if found {
			from = current
		} else {
			from = graph.source(to)
		}
	}

	if graph.Terminal(from) {
		return fail(domainErrors.ErrIllegalTransition)
	}
	if !ValidTarget(cmd.Entity, to) {
		return fail(domainErrors.ErrInvalidTarget)
	}
	if !graph.HasEdge(from, to) {
		return fail(domainErrors.ErrIllegalTransition)
	}
	if to == model.StateScheduled && (cmd.DeliveryDate == nil || e.isPast(*cmd.DeliveryDate)) {
		return fail(domainErrors.ErrMissingDeliveryDate)
	}
	if !e.guard.CanTransition(p, cmd.Entity, from, to) {
		return fail(domainErrors.ErrUnauthorized)
	}
	if !found {
		return fail(domainErrors.ErrUnknownEntity)
	}
	if current != from {
		return fail(domainErrors.ErrIllegalTransition)
	}

	return model.TransitionResult{Accepted: true, NewState: to}, nil
}

func (e *Engine) applyMutation(p *model.Principal, cmd model.Command, state model.Snapshot) (model.TransitionResult, error) {
	fail := func(err error) (model.TransitionResult, error) {
		return model.TransitionResult{}, &domainErrors.WorkflowError{Entity: string(cmd.Entity), ID: cmd.ID, Err: err}
	}

	resource, ok := authz.CommandResource(cmd.Entity, cmd.Action)
	if !ok {
		return fail(domainErrors.ErrIllegalTransition)
	}
	if !e.guard.CanAccess(p, resource) {
		return fail(domainErrors.ErrUnauthorized)
	}

	if cmd.Action == model.ActionUpdate || cmd.Action == model.ActionDelete {
		if !exists(state, cmd.Entity, cmd.ID) {
			return fail(domainErrors.ErrUnknownEntity)
		}
	}
	if cmd.Action == model.ActionDelete {
		return model.TransitionResult{Accepted: true}, nil
	}

	var (
		newState model.State
		err      error
	)
	switch cmd.Entity {
	case model.KindFarmer:
		err = e.checkStruct(cmd.Farmer)
		if cmd.Action == model.ActionCreate {
			newState = FarmerApproval.Initial()
		}
	case model.KindProduct:
		err = e.checkProduct(cmd.Product, state)
	case model.KindOrder:
		err = e.checkOrder(cmd.Order, state)
		newState = OrderLifecycle.Initial()
	case model.KindUser:
		err = e.checkUser(cmd.Action, cmd.User)
	case model.KindTraining:
		err = e.checkStruct(cmd.Training)
	default:
		err = domainErrors.ErrIllegalTransition
	}
	if err != nil {
		return fail(err)
	}

	return model.TransitionResult{Accepted: true, NewState: newState}, nil
}

func (e *Engine) checkProduct(in *model.ProductInput, state model.Snapshot) error {
	if err := e.checkStruct(in); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: UnitPrice must not be negative", domainErrors.ErrInvalidPayload)
	}
	return e.checkOwner(in.OwnerFarmerID, state)
}

func (e *Engine) checkOrder(in *model.OrderInput, state model.Snapshot) error {
	if in == nil {
		return domainErrors.ErrInvalidPayload
	}
	if in.Quantity <= 0 {
		return domainErrors.ErrInvalidQuantity
	}
	if err := e.checkStruct(in); err != nil {
		return err
	}

	product, ok := findProduct(state, in.ProductID)
	if !ok {
		return domainErrors.ErrUnknownEntity
	}
	if in.Quantity > product.QuantityOnHand {
		return domainErrors.ErrInsufficientStock
	}
	return e.checkOwner(product.OwnerFarmerID, state)
}

func (e *Engine) checkUser(action model.Action, in *model.UserInput) error {
	if err := e.checkStruct(in); err != nil {
		return err
	}
	if action == model.ActionCreate && in.Password == "" {
		return fmt.Errorf("%w: Password is required", domainErrors.ErrInvalidPayload)
	}
	return nil
}

// checkOwner enforces strict approval. Without cached farmers the backend
// remains the only judge.
func (e *Engine) checkOwner(farmerID int64, state model.Snapshot) error {
	if !e.strict || state.Provenance[model.CollectionFarmers].Version == 0 {
		return nil
	}
	for _, f := range state.Farmers {
		if f.ID == farmerID {
			if f.Approved() {
				return nil
			}
			break
		}
	}
	return domainErrors.ErrUnapprovedOwner
}

func (e *Engine) checkStruct(payload any) error {
	if isNil(payload) {
		return domainErrors.ErrInvalidPayload
	}
	err := e.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domainErrors.ErrInvalidPayload, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", domainErrors.ErrInvalidPayload, strings.Join(fields, ", "))
}

// isPast compares calendar days so that today is still a valid delivery date.
func (e *Engine) isPast(date time.Time) bool {
	now := e.now().In(date.Location())
	y, m, d := date.Date()
	ny, nm, nd := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

func (g Graph) source(to model.State) model.State {
	for _, e := range g {
		if e.To == to {
			return e.From
		}
	}
	return ""
}

func isNil(payload any) bool {
	switch v := payload.(type) {
	case nil:
		return true
	case *model.FarmerInput:
		return v == nil
	case *model.ProductInput:
		return v == nil
	case *model.OrderInput:
		return v == nil
	case *model.UserInput:
		return v == nil
	case *model.TrainingInput:
		return v == nil
	}
	return false
}

func currentState(state model.Snapshot, kind model.EntityKind, id int64) (model.State, bool) {
	switch kind {
	case model.KindFarmer:
		for _, f := range state.Farmers {
			if f.ID == id {
				return f.ApprovalStatus, true
			}
		}
	case model.KindOrder:
		for _, o := range state.Orders {
			if o.ID == id {
				return o.Status, true
			}
		}
	}
	return "", false
}

func findProduct(state model.Snapshot, id int64) (model.Product, bool) {
	for _, p := range state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

func exists(state model.Snapshot, kind model.EntityKind, id int64) bool {
	switch kind {
	case model.KindFarmer, model.KindOrder:
		_, ok := currentState(state, kind, id)
		return ok
	case model.KindProduct:
		_, ok := findProduct(state, id)
		return ok
	case model.KindUser:
		for _, u := range state.Users {
			if u.ID == id {
				return true
			}
		}
	case model.KindTraining:
		for _, t := range state.Trainings {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}
