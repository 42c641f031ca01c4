package actors

import "github.com/kasuganosora/actorai/game/ai"

// Status is the result of a behaviour tree node tick.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

// TickContext is passed to every node during one Update.
type TickContext struct {
	World ai.World
	Self  ai.ActorID
	// Changed is set by actions that touched the world.
	Changed bool
}

// Node is a single node in a behaviour tree.
type Node interface {
	Tick(ctx *TickContext) Status
}

// ---- Composite nodes ----

// Selector succeeds as soon as one child succeeds (logical OR).
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(ctx *TickContext) Status {
	for _, c := range s.Children {
		switch c.Tick(ctx) {
		case StatusSuccess:
			return StatusSuccess
		case StatusRunning:
			return StatusRunning
		}
	}
	return StatusFailure
}

// Sequence succeeds only when all children succeed (logical AND).
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(ctx *TickContext) Status {
	for _, c := range s.Children {
		switch c.Tick(ctx) {
		case StatusFailure:
			return StatusFailure
		case StatusRunning:
			return StatusRunning
		}
	}
	return StatusSuccess
}

// ---- Leaf nodes ----

// Condition evaluates a predicate against the world.
type Condition func(ctx *TickContext) bool

func (c Condition) Tick(ctx *TickContext) Status {
	if c(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// Action changes the world and always succeeds.
type Action func(ctx *TickContext)

func (a Action) Tick(ctx *TickContext) Status {
	a(ctx)
	ctx.Changed = true
	return StatusSuccess
}

// ---- Decorators ----

// Not negates the result of its child.
type Not struct {
	Child Node
}

func (n Not) Tick(ctx *TickContext) Status {
	switch n.Child.Tick(ctx) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

// Tree wraps the root node.
type Tree struct {
	Root Node
}

// Run ticks the tree once and reports whether any action fired.
func (t *Tree) Run(w ai.World, self ai.ActorID) bool {
	if t.Root == nil {
		return false
	}
	ctx := &TickContext{World: w, Self: self}
	t.Root.Tick(ctx)
	return ctx.Changed
}

// goalIs is the most common condition in the built-in trees.
func goalIs(goal int) Condition {
	return func(ctx *TickContext) bool { return ctx.World.Goal(ctx.Self) == goal }
}

func flagIs(flag int) Condition {
	return func(ctx *TickContext) bool { return ctx.World.FlagQuery(flag) }
}

func setGoal(goal int) Action {
	return func(ctx *TickContext) { ctx.World.SetGoal(ctx.Self, goal) }
}
