// Package gossa is the Go front-end of the analysis: it translates go/ssa
// function bodies into the CFG representation package regioncheck consumes
// and implements the isolation classifier for Go programs, where `go`
// statements and configured spawn APIs are the isolation-crossing calls.
package gossa

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck"
	"github.com/regioncheck/regioncheck/internal/slices"
)

// callFacts is what the classifier knows about one translated call site.
type callFacts struct {
	name   string // normalized callee name
	goStmt bool
}

// Program accumulates translated functions and classifies their call sites.
// Add functions sequentially; a built Program is read-only and safe to use
// from the parallel analysis.
type Program struct {
	cfg      *Config
	oracle   *Oracle
	spawners map[string]struct{}

	funcs []*regioncheck.Func
	facts map[*regioncheck.CallSite]callFacts
}

func NewProgram(cfg *Config) *Program {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Program{
		cfg:      cfg,
		oracle:   cfg.oracle(),
		spawners: cfg.spawnerSet(),
		facts:    make(map[*regioncheck.CallSite]callFacts),
	}
}

// Funcs returns every function added so far.
func (p *Program) Funcs() []*regioncheck.Func { return p.funcs }

// Classify implements regioncheck.Classifier.
func (p *Program) Classify(fn *regioncheck.Func, call *regioncheck.CallSite) regioncheck.CallClass {
	facts := p.facts[call]

	if facts.goStmt {
		return regioncheck.CallClass{
			Kind:         regioncheck.CallTaskSpawning,
			CallerDomain: fn.Domain,
			CalleeDomain: fn.Domain,
		}
	}
	if _, ok := p.spawners[facts.name]; ok {
		return regioncheck.CallClass{
			Kind:         regioncheck.CallTaskSpawning,
			CallerDomain: fn.Domain,
			CalleeDomain: fn.Domain,
		}
	}

	// An unpinned callee executes in the caller's domain.
	if callee, pinned := p.cfg.pinnedDomain(facts.name); pinned && callee != fn.Domain {
		return regioncheck.CallClass{
			Kind:         regioncheck.CallActorEntering,
			CallerDomain: fn.Domain,
			CalleeDomain: callee,
		}
	}
	return regioncheck.CallClass{
		Kind:         regioncheck.CallSameDomain,
		CallerDomain: fn.Domain,
		CalleeDomain: fn.Domain,
	}
}

// AddFunction translates one ssa function and registers it with the program.
// Functions without blocks (external declarations) are skipped.
func (p *Program) AddFunction(fn *ssa.Function) *regioncheck.Func {
	if len(fn.Blocks) == 0 {
		return nil
	}

	tr := &translator{
		prog: p,
		src:  fn,
		b:    regioncheck.NewFunc(fn.String(), p.cfg.domainOf(fn.String())),
		ids:  make(map[ssa.Value]regioncheck.ValueID),
	}
	out := tr.run()
	p.funcs = append(p.funcs, out)
	return out
}

type translator struct {
	prog *Program
	src  *ssa.Function
	b    *regioncheck.Builder
	ids  map[ssa.Value]regioncheck.ValueID
}

func (tr *translator) run() *regioncheck.Func {
	for _, param := range tr.src.Params {
		tr.ids[param] = tr.b.AddParam(param.Name(), param.Type().String(),
			tr.sendable(param.Type()), param.Pos())
	}
	// Free variables enter the body like parameters: each starts in its own
	// region.
	for _, fv := range tr.src.FreeVars {
		tr.ids[fv] = tr.b.AddParam(fv.Name(), fv.Type().String(),
			tr.sendable(fv.Type()), fv.Pos())
	}

	blocks := make([]*regioncheck.Block, len(tr.src.Blocks))
	for i := range tr.src.Blocks {
		blocks[i] = tr.b.AddBlock()
	}
	for i, sb := range tr.src.Blocks {
		for _, succ := range sb.Succs {
			tr.b.Edge(blocks[i], blocks[succ.Index])
		}
		tr.translateBlock(sb, blocks[i])
	}

	return tr.b.Finish()
}

func (tr *translator) sendable(t types.Type) bool {
	return tr.prog.oracle.Sendable(t)
}

// vid returns the analysis value for an ssa value, registering it on first
// use. Operands like constants and globals become values of the referencing
// function; cross-function identity is irrelevant to a per-function run.
func (tr *translator) vid(v ssa.Value) regioncheck.ValueID {
	if id, ok := tr.ids[v]; ok {
		return id
	}
	id := tr.b.AddValue(v.Name(), v.Type().String(), tr.sendable(v.Type()), v.Pos())
	tr.ids[v] = id
	return id
}

func (tr *translator) vids(vs []ssa.Value) []regioncheck.ValueID {
	return slices.Map(vs, tr.vid)
}

func (tr *translator) translateBlock(sb *ssa.BasicBlock, out *regioncheck.Block) {
	emit := func(op regioncheck.Op) { out.Ops = append(out.Ops, op) }

	init := func(res ssa.Value, pos token.Pos, args ...ssa.Value) {
		emit(regioncheck.Op{
			Kind:   regioncheck.OpInit,
			Result: tr.vid(res),
			Args:   tr.vids(args),
			Pos:    pos,
		})
	}
	read := func(res, x ssa.Value, pos token.Pos) {
		emit(regioncheck.Op{
			Kind:   regioncheck.OpFieldRead,
			Result: tr.vid(res),
			Args:   []regioncheck.ValueID{tr.vid(x)},
			Pos:    pos,
		})
	}
	alias := func(res, x ssa.Value, pos token.Pos) {
		emit(regioncheck.Op{
			Kind:   regioncheck.OpAlias,
			Result: tr.vid(res),
			Args:   []regioncheck.ValueID{tr.vid(x)},
			Pos:    pos,
		})
	}
	write := func(dst, src ssa.Value, pos token.Pos) {
		emit(regioncheck.Op{
			Kind:   regioncheck.OpFieldWrite,
			Result: regioncheck.NoValue,
			Args:   []regioncheck.ValueID{tr.vid(dst), tr.vid(src)},
			Pos:    pos,
		})
	}
	access := func(pos token.Pos, args ...ssa.Value) {
		if len(args) == 0 {
			return
		}
		emit(regioncheck.Op{
			Kind:   regioncheck.OpAccess,
			Result: regioncheck.NoValue,
			Args:   tr.vids(args),
			Pos:    pos,
		})
	}

	for _, insn := range sb.Instrs {
		switch t := insn.(type) {
		case *ssa.Alloc, *ssa.MakeMap, *ssa.MakeSlice, *ssa.MakeChan:
			init(t.(ssa.Value), insn.Pos())

		case *ssa.MakeClosure:
			emit(regioncheck.Op{
				Kind:   regioncheck.OpCapture,
				Result: tr.vid(t),
				Args:   tr.vids(t.Bindings),
				Pos:    t.Pos(),
			})

		case *ssa.UnOp:
			if t.Op == token.MUL || t.Op == token.ARROW {
				read(t, t.X, t.Pos())
			}

		case *ssa.Field:
			read(t, t.X, t.Pos())
		case *ssa.FieldAddr:
			read(t, t.X, t.Pos())
		case *ssa.Index:
			read(t, t.X, t.Pos())
		case *ssa.IndexAddr:
			read(t, t.X, t.Pos())
		case *ssa.Lookup:
			read(t, t.X, t.Pos())
		case *ssa.Extract:
			read(t, t.Tuple, t.Pos())

		case *ssa.Phi:
			for _, edge := range t.Edges {
				alias(t, edge, t.Pos())
			}

		case *ssa.ChangeType:
			alias(t, t.X, t.Pos())
		case *ssa.ChangeInterface:
			alias(t, t.X, t.Pos())
		case *ssa.Convert:
			alias(t, t.X, t.Pos())
		case *ssa.MakeInterface:
			alias(t, t.X, t.Pos())
		case *ssa.Slice:
			alias(t, t.X, t.Pos())
		case *ssa.SliceToArrayPointer:
			alias(t, t.X, t.Pos())
		case *ssa.TypeAssert:
			alias(t, t.X, t.Pos())
		case *ssa.Range:
			alias(t, t.X, t.Pos())
		case *ssa.Next:
			read(t, t.Iter, t.Pos())

		case *ssa.Store:
			write(t.Addr, t.Val, t.Pos())
		case *ssa.MapUpdate:
			write(t.Map, t.Key, t.Pos())
			write(t.Map, t.Value, t.Pos())
		case *ssa.Send:
			write(t.Chan, t.X, t.Pos())

		case *ssa.Select:
			for _, st := range t.States {
				if st.Dir == types.SendOnly {
					write(st.Chan, st.Send, t.Pos())
				}
			}
			init(t, t.Pos())

		case *ssa.BinOp:
			access(t.Pos(), t.X, t.Y)

		case *ssa.Return:
			access(t.Pos(), t.Results...)
		case *ssa.Panic:
			access(t.Pos(), t.X)

		case ssa.CallInstruction:
			tr.translateCall(t, emit)

		case *ssa.If, *ssa.Jump, *ssa.RunDefers, *ssa.DebugRef:
			// No region effect.
		}
	}
}

// translateCall lowers Call, Defer and Go instructions. The classification of
// the resulting call site happens later, in Program.Classify; here only the
// facts are recorded.
func (tr *translator) translateCall(insn ssa.CallInstruction, emit func(regioncheck.Op)) {
	common := insn.Common()

	operands := common.Args
	if common.IsInvoke() {
		// The receiver interface value is an operand too.
		operands = append([]ssa.Value{common.Value}, operands...)
	} else if _, isFn := common.Value.(*ssa.Function); !isFn {
		if _, isBuiltin := common.Value.(*ssa.Builtin); !isBuiltin {
			// Dynamic call through a closure value: using the closure uses
			// everything it captured.
			operands = append([]ssa.Value{common.Value}, operands...)
		}
	}

	result := regioncheck.NoValue
	if v := insn.Value(); v != nil {
		result = tr.vid(v)
	}

	_, isGo := insn.(*ssa.Go)
	site := &regioncheck.CallSite{
		Callee: calleeName(common),
		Args:   tr.vids(operands),
		Result: result,
		Pos:    insn.Pos(),
	}
	if isGo {
		// Everything the goroutine can reach moves with it.
		site.Captures = site.Args
		site.Args = nil
	}

	tr.prog.facts[site] = callFacts{
		name:   normalizeFuncName(calleeName(common)),
		goStmt: isGo,
	}

	emit(regioncheck.Op{
		Kind:   regioncheck.OpCall,
		Result: result,
		Args:   site.Args,
		Call:   site,
		Pos:    insn.Pos(),
	})
}

func calleeName(common *ssa.CallCommon) string {
	switch {
	case common.IsInvoke():
		return common.Method.FullName()
	case common.StaticCallee() != nil:
		return common.StaticCallee().String()
	default:
		return common.Value.Name()
	}
}
