package regioncheck

import (
	"log"

	"github.com/regioncheck/regioncheck/internal/slices"
)

// TransferSite records one isolation-crossing call together with the values
// it transferred. Sites are deduplicated by their CallSite, so re-evaluating
// a block during the fixpoint does not grow a region's site list. A record is
// immutable once stored; a merge that grows the value set replaces it.
type TransferSite struct {
	Call  *CallSite
	Class CallClass
	// Values transferred at the site.
	Values []ValueID
}

// state is the abstraction at one program point: a partition of the tracked
// non-sendable values into regions, plus per-region transfer records. Regions
// only ever coarsen and transfer records only ever grow, which bounds the
// fixpoint (see fixpoint.go).
//
// The partition is a union-find over ValueIDs with path compression, in the
// style of a term unifier: parent[v] == v marks a representative and
// parent[v] == NoValue marks a value with no region yet.
type state struct {
	fn     *Func
	parent []ValueID
	// sites is keyed by region representative. A non-empty list means the
	// region is transferred; the list holds every site responsible.
	sites map[ValueID][]*TransferSite
}

func newState(fn *Func) *state {
	parent := make([]ValueID, len(fn.Values))
	for i := range parent {
		parent[i] = NoValue
	}
	return &state{
		fn:     fn,
		parent: parent,
		sites:  make(map[ValueID][]*TransferSite),
	}
}

// tracked reports whether v has a region at this point.
func (s *state) tracked(v ValueID) bool {
	return v != NoValue && s.parent[v] != NoValue
}

// track ensures v has a region, allocating a fresh singleton one if needed,
// and returns the representative. Tracking a sendable value is a bug in the
// caller.
func (s *state) track(v ValueID) ValueID {
	if s.fn.Values[v].Sendable {
		log.Panicf("tracking sendable value %s", s.fn.Values[v].Name)
	}
	if s.parent[v] == NoValue {
		s.parent[v] = v
		return v
	}
	return s.find(v)
}

// find returns the representative of v's region.
func (s *state) find(v ValueID) ValueID {
	if s.parent[v] == v {
		return v
	}
	r := s.find(s.parent[v])
	s.parent[v] = r
	return r
}

// union merges the regions of a and b and returns the resulting
// representative. A no-op when they already share a region. Transfer records
// of both regions are combined additively.
func (s *state) union(a, b ValueID) ValueID {
	ra, rb := s.track(a), s.track(b)
	if ra == rb {
		return rb
	}

	s.parent[ra] = rb
	if sa := s.sites[ra]; len(sa) > 0 {
		s.sites[rb] = mergeSites(s.sites[rb], sa)
		delete(s.sites, ra)
	}
	return rb
}

// unionAll merges all given values into one region. Returns the
// representative, or NoValue for an empty slice.
func (s *state) unionAll(vs []ValueID) ValueID {
	if len(vs) == 0 {
		return NoValue
	}
	r := s.track(vs[0])
	for _, v := range vs[1:] {
		r = s.union(r, v)
	}
	return r
}

// markTransferred appends site to the region's transfer record. Marking an
// already-transferred region is additive, not a fault: a region may be
// transferred redundantly along converging paths.
func (s *state) markTransferred(region ValueID, site *TransferSite) {
	s.sites[region] = mergeSites(s.sites[region], []*TransferSite{site})
}

// transferred reports whether v's region is transferred at this point.
func (s *state) transferred(v ValueID) bool {
	return s.tracked(v) && len(s.sites[s.find(v)]) > 0
}

// transferSites returns the sites responsible for v's region being
// transferred, in first-recorded order.
func (s *state) transferSites(v ValueID) []*TransferSite {
	if !s.tracked(v) {
		return nil
	}
	return s.sites[s.find(v)]
}

// mergeSites unions src into dst preserving order, deduplicating by call
// site. When both lists carry a record for the same call the transferred
// value sets are combined into a replacement record; the originals stay
// untouched since clone shares them across states.
func mergeSites(dst, src []*TransferSite) []*TransferSite {
	for _, site := range src {
		merged := false
		for i, have := range dst {
			if have.Call == site.Call {
				vals := unionValues(append([]ValueID(nil), have.Values...), site.Values)
				if len(vals) != len(have.Values) {
					repl := *have
					repl.Values = vals
					dst[i] = &repl
				}
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, site)
		}
	}
	return dst
}

func unionValues(dst, src []ValueID) []ValueID {
	for _, v := range src {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// clone returns an independent copy of s. Site records are shared; they are
// never mutated after being stored (mergeSites replaces instead).
func (s *state) clone() *state {
	parent := make([]ValueID, len(s.parent))
	copy(parent, s.parent)
	sites := make(map[ValueID][]*TransferSite, len(s.sites))
	for r, list := range s.sites {
		sites[r] = append([]*TransferSite(nil), list...)
	}
	return &state{fn: s.fn, parent: parent, sites: sites}
}

// join returns the coarsest-but-sound combination of two states reached along
// different control-flow edges into the same point: the finest partition that
// is a common coarsening of both inputs, with transferred flags ORed and
// transfer-site lists unioned.
func (s *state) join(o *state) *state {
	r := s.clone()
	for i, p := range o.parent {
		if p == NoValue {
			continue
		}
		v := ValueID(i)
		// Any pair unioned in either input is unioned in the result.
		r.union(v, o.find(v))
	}
	for rep, list := range o.sites {
		nr := r.find(rep)
		r.sites[nr] = mergeSites(r.sites[nr], list)
	}
	return r
}

// canonical maps every tracked value to the smallest member of its region,
// giving a representation of the partition independent of union order.
func (s *state) canonical() map[ValueID]ValueID {
	min := make(map[ValueID]ValueID)
	for i, p := range s.parent {
		if p == NoValue {
			continue
		}
		v := ValueID(i)
		r := s.find(v)
		if m, ok := min[r]; !ok || v < m {
			min[r] = v
		}
	}
	out := make(map[ValueID]ValueID, len(min))
	for i, p := range s.parent {
		if p == NoValue {
			continue
		}
		v := ValueID(i)
		out[v] = min[s.find(v)]
	}
	return out
}

// equal reports whether two states describe the same partition with the same
// transfer records. Used as the fixpoint convergence check.
func (s *state) equal(o *state) bool {
	cs, co := s.canonical(), o.canonical()
	if len(cs) != len(co) {
		return false
	}
	for v, m := range cs {
		if om, ok := co[v]; !ok || om != m {
			return false
		}
	}
	for v := range cs {
		if !sameCalls(s.transferSites(v), o.transferSites(v)) {
			return false
		}
	}
	return true
}

// sameCalls compares two site lists as sets of call sites.
func sameCalls(a, b []*TransferSite) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x.Call == y.Call {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
