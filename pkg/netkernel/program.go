package netkernel

// RuleCtx is the mutable traversal state a worker hands to a tag's
// visit/apply rule. Rules mutate Host/Cont directly to redirect
// traversal — mirroring the spec's "redirects host to the first child"
// language — rather than returning a new state, since the reducer's
// outer loop (reducer.go) re-reads these fields after every call.
type RuleCtx struct {
	Heap  *Heap
	Bag   *RedexBag
	Deque *VisitDeque // the calling worker's own visit queue
	Prog  *Program
	Tid   int
	Host  uint32 // slot holding the Ptr currently under consideration
	Cont  uint64 // continuation id the current host will complete into
	Full  bool   // true under normalize's full-normal-form traversal
}

// funRule is the common contract both interpreted and compiled function
// bundles satisfy; it exists only to let FunEntry dispatch without
// caring which representation backs a given function id.
type funRule interface {
	strictIdx() []int
	visit(ctx *RuleCtx) bool
	apply(ctx *RuleCtx) bool
}

// InterpretedRule is a rule bundle described declaratively: a
// strict-argument index (computed by the out-of-scope front-end) plus a
// pattern table mapping a constructor id to the apply recipe to run
// when that constructor reaches the first strict argument position. Visit is
// generic: it is implemented once, in rule_fun.go, shared by every
// InterpretedRule.
type InterpretedRule struct {
	StrictIdx []int
	Patterns  map[int32]func(ctx *RuleCtx) bool
}

func (r *InterpretedRule) strictIdx() []int { return r.StrictIdx }

func (r *InterpretedRule) visit(ctx *RuleCtx) bool {
	return genericFunVisit(ctx, r.StrictIdx)
}

func (r *InterpretedRule) apply(ctx *RuleCtx) bool {
	if len(r.StrictIdx) == 0 {
		return false
	}
	call := ctx.Heap.LoadPtr(ctx.Host)
	arg := ctx.Heap.LoadArg(call.Loc(), uint32(r.StrictIdx[0]))
	if arg.Tag() != TagCtr {
		return false
	}
	recipe, ok := r.Patterns[arg.Ext()]
	if !ok {
		return false
	}
	return recipe(ctx)
}

// CompiledRule is a rule bundle backed by two opaque closures generated
// by the (out-of-scope) front-end compiler; both honor the same
// (ctx) -> bool visit/apply contract as InterpretedRule.
type CompiledRule struct {
	StrictIdx []int
	VisitFn   func(ctx *RuleCtx) bool
	ApplyFn   func(ctx *RuleCtx) bool
}

func (r *CompiledRule) strictIdx() []int       { return r.StrictIdx }
func (r *CompiledRule) visit(ctx *RuleCtx) bool { return r.VisitFn(ctx) }
func (r *CompiledRule) apply(ctx *RuleCtx) bool { return r.ApplyFn(ctx) }

// FunEntry is the per-function-id table entry: exactly one of
// Interpreted or Compiled is set.
type FunEntry struct {
	Interpreted *InterpretedRule
	Compiled    *CompiledRule
}

func (e *FunEntry) rule() funRule {
	if e.Interpreted != nil {
		return e.Interpreted
	}
	return e.Compiled
}

// Program is the immutable function table and arity table the reducer
// consumes from the (out-of-scope) front-end/compiler. Funs maps a
// function id to its rule bundle; CtorArity and FunArity map a
// constructor/function id to its static argument count.
type Program struct {
	Funs      map[int32]*FunEntry
	CtorArity map[int32]int
	FunArity  map[int32]int
}

// NewProgram returns an empty, ready-to-populate program table.
func NewProgram() *Program {
	return &Program{
		Funs:      make(map[int32]*FunEntry),
		CtorArity: make(map[int32]int),
		FunArity:  make(map[int32]int),
	}
}

// ArityOf returns the static arity of p's node, consulting CtorArity or
// FunArity depending on tag; other tags have no declared arity and
// report zero.
func (prog *Program) ArityOf(p Ptr) int {
	switch p.Tag() {
	case TagCtr:
		return prog.CtorArity[p.Ext()]
	case TagFun:
		return prog.FunArity[p.Ext()]
	default:
		return 0
	}
}
