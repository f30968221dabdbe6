package regioncheck

import (
	"log"

	"github.com/regioncheck/regioncheck/internal/slices"
)

// analysis holds the inputs of one function's run. It is exclusively owned by
// that run; no two runs share one.
type analysis struct {
	fn         *Func
	classifier Classifier
}

// accessRecord is one diagnosable use of a value whose region is transferred
// at the point of use.
type accessRecord struct {
	value ValueID
	op    *Op
	site  *TransferSite
}

// accessSink receives access records during the final evaluation pass. A nil
// sink disables collection; the fixpoint iterations run with a nil sink.
type accessSink func(rec accessRecord)

// apply evaluates one operation against st, mutating it in place. Rules apply
// only to non-sendable operands; sendable operands are invisible here.
//
// Uses are checked against the state before the operation's own merges take
// effect. Accesses never mutate the state: transferred-ness is sticky and is
// not healed by later uses.
func (a *analysis) apply(st *state, op *Op, sink accessSink) {
	switch op.Kind {
	case OpInit:
		args := a.tracked(op.Args)
		a.checkAccess(st, args, op, sink)
		region := st.unionAll(args)
		if res := op.Result; a.isTracked(res) {
			if region == NoValue {
				// Fresh init: a new region containing only the result.
				st.track(res)
			} else {
				st.union(res, region)
			}
		}

	case OpFieldRead, OpAlias:
		x := op.Args[0]
		a.checkAccess(st, a.tracked(op.Args[:1]), op, sink)
		switch {
		case a.isTracked(x) && a.isTracked(op.Result):
			st.union(op.Result, x)
		case a.isTracked(op.Result):
			// Reading a non-sendable value out of a sendable container
			// starts a fresh region.
			st.track(op.Result)
		}

	case OpFieldWrite:
		args := a.tracked(op.Args)
		a.checkAccess(st, args, op, sink)
		st.unionAll(args)

	case OpCapture:
		captured := a.tracked(op.Args)
		a.checkAccess(st, captured, op, sink)
		region := st.unionAll(captured)
		if a.isTracked(op.Result) {
			if region == NoValue {
				st.track(op.Result)
			} else {
				st.union(op.Result, region)
			}
		}

	case OpCall:
		a.applyCall(st, op, sink)

	case OpAccess:
		a.checkAccess(st, a.tracked(op.Args), op, sink)

	default:
		log.Panicf("Unhandled operation kind: %v", op.Kind)
	}
}

func (a *analysis) applyCall(st *state, op *Op, sink accessSink) {
	call := op.Call
	class := a.classifier.Classify(a.fn, call)
	args := a.tracked(call.Args)

	switch class.Kind {
	case CallSameDomain:
		a.checkAccess(st, args, op, sink)
		// The callee is conservatively assumed capable of cross-referencing
		// its non-sendable arguments and of returning any of them.
		region := st.unionAll(args)
		a.placeResult(st, call.Result, region)

	case CallActorEntering:
		// Arguments here are transfer operands, not access sites; a region
		// transferred twice merely accumulates sites.
		region := st.unionAll(args)
		region = a.placeResult(st, call.Result, region)
		if region != NoValue {
			st.markTransferred(region, &TransferSite{
				Call:   call,
				Class:  class,
				Values: args,
			})
		}

	case CallTaskSpawning:
		// The spawned closure's body runs concurrently with the caller's
		// continuation, so everything it can reach is transferred. Direct
		// call operands cover fronts that pass values positionally instead
		// of by capture.
		moved := unionValues(a.tracked(call.Captures), args)
		region := st.unionAll(moved)
		if region != NoValue {
			st.markTransferred(region, &TransferSite{
				Call:   call,
				Class:  class,
				Values: moved,
			})
		}

	default:
		log.Panicf("Unhandled call kind: %v", class.Kind)
	}
}

// placeResult puts a non-sendable call result into the merged argument
// region, or into a fresh one when no argument contributed. Returns the
// region holding the result, or the argument region unchanged.
func (a *analysis) placeResult(st *state, res ValueID, region ValueID) ValueID {
	if !a.isTracked(res) {
		return region
	}
	if region == NoValue {
		return st.track(res)
	}
	return st.union(res, region)
}

// isTracked reports whether v is a value the partition may hold.
func (a *analysis) isTracked(v ValueID) bool {
	return v != NoValue && !a.fn.Values[v].Sendable
}

// tracked filters vs down to the non-sendable operands.
func (a *analysis) tracked(vs []ValueID) []ValueID {
	return slices.Filter(vs, a.isTracked)
}

// checkAccess records an access for every given operand whose region is
// transferred at this point, once per contributing transfer site.
func (a *analysis) checkAccess(st *state, vs []ValueID, op *Op, sink accessSink) {
	if sink == nil {
		return
	}
	for _, v := range vs {
		if !st.transferred(v) {
			continue
		}
		for _, site := range st.transferSites(v) {
			sink(accessRecord{value: v, op: op, site: site})
		}
	}
}
