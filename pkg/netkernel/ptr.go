// Package netkernel implements the parallel graph-reduction core of an
// interaction-net / optimal-lambda-calculus runtime: a multi-worker
// reducer that rewrites a shared, tagged-pointer graph in place to weak
// head normal form or, in full mode, to normal form.
package netkernel

import "fmt"

// Tag identifies the kind of node a Ptr addresses.
type Tag uint8

// The fixed, exhaustive tag set. Dispatch on Tag is a closed switch
// everywhere in this package; there is no open registration of new tags.
const (
	TagVar Tag = iota // bound variable occurrence
	TagLam            // lambda abstraction: slot0 = var backref, slot1 = body
	TagApp            // application: slot0 = function, slot1 = argument
	TagSup            // superposition: slot0 = left, slot1 = right, ext = label
	TagDp0            // duplication projector 0: slot2 = payload, ext = label
	TagDp1            // duplication projector 1: slot2 = payload, ext = label
	TagOp2            // binary operator over two numeric operands
	TagCtr            // data constructor: ext = constructor id, arity via Program
	TagFun            // user function call: ext = function id
	TagNum            // numeric leaf
	TagEra            // erased / sentinel leaf
)

func (t Tag) String() string {
	switch t {
	case TagVar:
		return "VAR"
	case TagLam:
		return "LAM"
	case TagApp:
		return "APP"
	case TagSup:
		return "SUP"
	case TagDp0:
		return "DP0"
	case TagDp1:
		return "DP1"
	case TagOp2:
		return "OP2"
	case TagCtr:
		return "CTR"
	case TagFun:
		return "FUN"
	case TagNum:
		return "NUM"
	case TagEra:
		return "ERA"
	default:
		return fmt.Sprintf("TAG(%d)", uint8(t))
	}
}

// IsWHNF reports whether a node with this tag is already in weak head
// normal form — i.e. it cannot be reduced further at the top without
// first reducing something else into it.
func IsWHNF(t Tag) bool {
	switch t {
	case TagCtr, TagNum, TagLam, TagSup, TagEra, TagVar:
		return true
	default:
		return false
	}
}

// Ptr is a fixed-width tagged pointer: the unit of value in the heap.
// Logically immutable — "mutating" a node means linking a new Ptr into
// a heap slot, never editing a Ptr value in place.
//
// Layout: tag in bits [0:8), ext in bits [8:32), loc in bits [32:64).
type Ptr uint64

const (
	ptrTagBits = 8
	ptrExtBits = 24
	ptrExtMax  = 1<<ptrExtBits - 1
	ptrLocMax  = 1<<32 - 1
)

// NewPtr packs a tag, auxiliary value, and slot address into a Ptr.
// It panics if ext or loc overflow their field width — this is a
// programmer error (front-end contract violation), never a runtime
// condition the reducer needs to recover from.
func NewPtr(tag Tag, ext int32, loc uint32) Ptr {
	if ext < 0 || ext > ptrExtMax {
		panic(fmt.Sprintf("netkernel: ext %d out of range for Ptr", ext))
	}
	return Ptr(uint64(tag) | uint64(uint32(ext))<<ptrTagBits | uint64(loc)<<(ptrTagBits+ptrExtBits))
}

// Tag extracts the node kind.
func (p Ptr) Tag() Tag { return Tag(p & (1<<ptrTagBits - 1)) }

// Ext extracts the auxiliary field (function/constructor id, or label).
func (p Ptr) Ext() int32 { return int32((p >> ptrTagBits) & ptrExtMax) }

// Loc extracts the heap slot address.
func (p Ptr) Loc() uint32 { return uint32(p >> (ptrTagBits + ptrExtBits)) }

// IsWHNF reports whether p's own tag is already in weak head normal form.
func (p Ptr) IsWHNF() bool { return IsWHNF(p.Tag()) }

func (p Ptr) String() string {
	return fmt.Sprintf("%s(ext=%d,loc=%d)", p.Tag(), p.Ext(), p.Loc())
}

// Era is the sentinel pointer written into a slot by take_arg until its
// next link; it also serves as the leaf node for the erased tag.
var Era = NewPtr(TagEra, 0, 0)

// App constructs an application pointer at the given slot.
func App(loc uint32) Ptr { return NewPtr(TagApp, 0, loc) }

// Lam constructs a lambda pointer at the given slot.
func Lam(loc uint32) Ptr { return NewPtr(TagLam, 0, loc) }

// Sup constructs a superposition pointer with the given duplication label.
func Sup(label int32, loc uint32) Ptr { return NewPtr(TagSup, label, loc) }

// Dp0 constructs the left duplication projector with the given label.
func Dp0(label int32, loc uint32) Ptr { return NewPtr(TagDp0, label, loc) }

// Dp1 constructs the right duplication projector with the given label.
func Dp1(label int32, loc uint32) Ptr { return NewPtr(TagDp1, label, loc) }

// Var constructs a bound-variable occurrence backreferencing loc.
func Var(loc uint32) Ptr { return NewPtr(TagVar, 0, loc) }

// Num constructs an inline numeric leaf. The numeric value is stored in
// ext and loc is zero; there is no heap-slot form for values that do
// not fit in ext.
func Num(value int32) Ptr { return NewPtr(TagNum, value, 0) }

// Ctr constructs a data constructor pointer; ext is the constructor id
// and loc is the base of its (arity-determined) argument slots.
func Ctr(ctorID int32, loc uint32) Ptr { return NewPtr(TagCtr, ctorID, loc) }

// Fun constructs a user function call pointer; ext is the function id
// and loc is the base of its argument slots.
func Fun(funID int32, loc uint32) Ptr { return NewPtr(TagFun, funID, loc) }

// Op2 constructs a binary operator pointer; ext identifies the operator
// and loc is the base of its two operand slots.
func Op2(opID int32, loc uint32) Ptr { return NewPtr(TagOp2, opID, loc) }
