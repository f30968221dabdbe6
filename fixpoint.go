package regioncheck

import (
	"github.com/regioncheck/regioncheck/internal/queue"
)

// The fixpoint driver is a standard worklist dataflow algorithm. Because
// union only coarsens a finite partition and transfer records only grow, the
// per-block states climb a lattice of finite height and the worklist drains
// after at most (blocks × tracked values) re-visits.

// fixpoint computes the converged entry state of every reachable block.
// Unreachable blocks keep a nil entry and generate no diagnostics.
func (a *analysis) fixpoint() []*state {
	entries := make([]*state, len(a.fn.Blocks))
	if len(a.fn.Blocks) == 0 {
		return entries
	}

	entries[0] = a.seed()
	var work queue.Queue[int]
	work.Push(0)

	for !work.Empty() {
		bi := work.Pop()
		block := a.fn.Blocks[bi]

		exit := entries[bi].clone()
		for i := range block.Ops {
			a.apply(exit, &block.Ops[i], nil)
		}

		for _, si := range block.Succs {
			if entries[si] == nil {
				entries[si] = exit.clone()
				work.Push(si)
				continue
			}
			next := entries[si].join(exit)
			if !entries[si].equal(next) {
				entries[si] = next
				work.Push(si)
			}
		}
	}

	return entries
}

// seed builds the entry-block state: every non-sendable parameter starts in a
// singleton region. A parameter flagged as pre-transferred is marked with a
// synthetic entry site so later accesses diagnose against the declaration.
func (a *analysis) seed() *state {
	st := newState(a.fn)
	for _, p := range a.fn.Params {
		if !a.isTracked(p.Value) {
			continue
		}
		region := st.track(p.Value)
		if p.PreTransferred {
			v := a.fn.Values[p.Value]
			st.markTransferred(region, &TransferSite{
				Call: &CallSite{
					Callee: "<entry>",
					Args:   []ValueID{p.Value},
					Result: NoValue,
					Pos:    v.Pos,
				},
				Class: CallClass{
					Kind:         CallActorEntering,
					CallerDomain: a.fn.Domain,
				},
				Values: []ValueID{p.Value},
			})
		}
	}
	return st
}

// collect re-evaluates every reachable block once from its converged entry
// state, recording the access sites diagnostics are synthesized from. The
// fixpoint iterations themselves run with a nil sink so only the final,
// stable states contribute.
func (a *analysis) collect(entries []*state) []accessRecord {
	var recs []accessRecord
	sink := func(rec accessRecord) { recs = append(recs, rec) }
	for bi, entry := range entries {
		if entry == nil {
			continue
		}
		st := entry.clone()
		block := a.fn.Blocks[bi]
		for i := range block.Ops {
			a.apply(st, &block.Ops[i], sink)
		}
	}
	return recs
}
