package regioncheck

import (
	"fmt"
	"go/token"
)

// This file defines the control-flow-graph representation the analysis
// consumes. A front-end (such as package gossa) produces one Func per
// analyzed function body; the analysis never mutates it.

// ValueID identifies a single static definition of interest within one
// function body: a local binding, a parameter, a closure or an intermediate
// result.
type ValueID int

// NoValue marks an absent result or operand.
const NoValue ValueID = -1

// Value carries the facts about a definition the analysis needs: whether its
// type is sendable and where it was defined. Sendable values are transparent
// to the analysis; they are never placed in a region.
type Value struct {
	ID       ValueID
	Name     string
	Type     string // printable type, used in diagnostic messages
	Sendable bool
	Pos      token.Pos
}

// OpKind discriminates the operation kinds the transfer functions know about.
type OpKind int

const (
	// OpInit allocates Result freshly. Non-sendable Args are merged into the
	// result's region (the initializer may cross-reference them).
	OpInit OpKind = iota
	// OpFieldRead is Result = Args[0].f.
	OpFieldRead
	// OpAlias is Result = Args[0].
	OpAlias
	// OpFieldWrite is Args[0].f = Args[1].
	OpFieldWrite
	// OpCapture makes Result a closure capturing Args.
	OpCapture
	// OpCall invokes Call. Its effect depends on how the classifier reports
	// the call site.
	OpCall
	// OpAccess is a plain use of Args: a read, a return, an escape. It does
	// not change the partition.
	OpAccess
)

var opKindNames = [...]string{
	OpInit:       "init",
	OpFieldRead:  "fieldread",
	OpAlias:      "alias",
	OpFieldWrite: "fieldwrite",
	OpCapture:    "capture",
	OpCall:       "call",
	OpAccess:     "access",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("opkind(%d)", int(k))
}

// Op is one operation in a basic block.
type Op struct {
	Kind   OpKind
	Result ValueID // NoValue when the operation produces nothing
	Args   []ValueID
	Call   *CallSite // set iff Kind == OpCall
	Pos    token.Pos
}

// CallSite describes a single call operation. The analysis itself attaches no
// meaning to Callee; the classifier is the sole source of crossing facts.
type CallSite struct {
	// Callee is a printable name for the call target, used in diagnostics.
	Callee string
	// Args are the call operands, including the receiver if any.
	Args []ValueID
	// Captures are the values captured by a closure this call schedules for
	// concurrent execution. Only meaningful when the classifier reports the
	// call as task-spawning.
	Captures []ValueID
	Result   ValueID
	Pos      token.Pos
}

// Param is a function parameter. PreTransferred marks a parameter whose
// region is assumed transferred already at entry; no shipped front-end sets
// it, but the seed state honors it.
type Param struct {
	Value          ValueID
	PreTransferred bool
}

// Block is a basic block. Succs and Preds index into Func.Blocks.
type Block struct {
	Index int
	Ops   []Op
	Succs []int
	Preds []int
}

// Func is the per-function CFG. Block 0 is the entry block. Well-formedness
// (every referenced ValueID defined, every edge in range, Succs/Preds
// mirrored) is a precondition; the analysis does not recover from a malformed
// Func.
type Func struct {
	Name   string
	Domain string // isolation domain the body executes under
	Params []Param
	Values []*Value
	Blocks []*Block
}

// Value returns the value with the given id.
func (fn *Func) Value(id ValueID) *Value { return fn.Values[id] }

// Builder assembles a Func. It exists for front-ends and tests; the zero
// value is not usable, use NewFunc.
type Builder struct {
	fn *Func
}

func NewFunc(name, domain string) *Builder {
	return &Builder{fn: &Func{Name: name, Domain: domain}}
}

// AddValue registers a new definition and returns its id.
func (b *Builder) AddValue(name, typ string, sendable bool, pos token.Pos) ValueID {
	id := ValueID(len(b.fn.Values))
	b.fn.Values = append(b.fn.Values, &Value{
		ID:       id,
		Name:     name,
		Type:     typ,
		Sendable: sendable,
		Pos:      pos,
	})
	return id
}

// AddParam registers a value that is also a function parameter.
func (b *Builder) AddParam(name, typ string, sendable bool, pos token.Pos) ValueID {
	id := b.AddValue(name, typ, sendable, pos)
	b.fn.Params = append(b.fn.Params, Param{Value: id})
	return id
}

// AddBlock appends an empty basic block and returns it for op insertion.
func (b *Builder) AddBlock() *Block {
	blk := &Block{Index: len(b.fn.Blocks)}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

// Edge records a control-flow edge between two blocks added earlier.
func (b *Builder) Edge(from, to *Block) {
	from.Succs = append(from.Succs, to.Index)
	to.Preds = append(to.Preds, from.Index)
}

// Finish returns the assembled Func.
func (b *Builder) Finish() *Func { return b.fn }
