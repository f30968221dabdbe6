package regioncheck

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a function with n non-sendable values and no blocks, enough
// to exercise the partition in isolation.
func fixture(n int) *Func {
	b := NewFunc("fixture", "main")
	for i := 0; i < n; i++ {
		b.AddValue(string(rune('a'+i)), "*T", false, token.Pos(i+1))
	}
	return b.Finish()
}

func site(pos token.Pos) *TransferSite {
	return &TransferSite{
		Call:  &CallSite{Callee: "cross", Result: NoValue, Pos: pos},
		Class: CallClass{Kind: CallActorEntering, CallerDomain: "main", CalleeDomain: "worker"},
	}
}

func TestPartition(t *testing.T) {
	t.Run("UnionFind", func(t *testing.T) {
		fn := fixture(4)
		st := newState(fn)

		require.False(t, st.tracked(0))
		st.track(0)
		require.True(t, st.tracked(0))
		assert.Equal(t, ValueID(0), st.find(0))

		st.union(0, 1)
		st.union(2, 3)
		assert.Equal(t, st.find(0), st.find(1))
		assert.Equal(t, st.find(2), st.find(3))
		assert.NotEqual(t, st.find(0), st.find(2))

		// Union is idempotent.
		before := st.canonical()
		st.union(1, 0)
		assert.Equal(t, before, st.canonical())
	})

	t.Run("TransferRecordsFollowMerges", func(t *testing.T) {
		fn := fixture(3)
		st := newState(fn)
		s1, s2 := site(10), site(20)

		st.markTransferred(st.track(0), s1)
		st.markTransferred(st.track(1), s2)
		require.True(t, st.transferred(0))
		require.False(t, st.transferred(2))

		// Merging a transferred region with a fresh one stays transferred.
		st.union(0, 2)
		assert.True(t, st.transferred(2))

		// Merging two transferred regions accumulates both sites.
		st.union(0, 1)
		assert.Len(t, st.transferSites(2), 2)
	})

	t.Run("RetransferIsAdditive", func(t *testing.T) {
		fn := fixture(1)
		st := newState(fn)
		s1 := site(10)

		r := st.track(0)
		st.markTransferred(r, s1)
		st.markTransferred(r, s1)
		assert.Len(t, st.transferSites(0), 1, "same call should not duplicate")

		st.markTransferred(r, site(20))
		assert.Len(t, st.transferSites(0), 2)
	})
}

func TestJoin(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		fn := fixture(4)
		st := newState(fn)
		st.union(0, 1)
		st.markTransferred(st.track(2), site(10))

		assert.True(t, st.join(st).equal(st))
	})

	t.Run("Commutative", func(t *testing.T) {
		fn := fixture(4)
		a, b := newState(fn), newState(fn)
		a.union(0, 1)
		a.markTransferred(a.find(0), site(10))
		b.union(1, 2)
		b.track(3)

		assert.True(t, a.join(b).equal(b.join(a)))
	})

	t.Run("FinestCommonCoarsening", func(t *testing.T) {
		fn := fixture(4)
		a, b := newState(fn), newState(fn)
		a.union(0, 1)
		b.union(1, 2)
		b.track(3)

		j := a.join(b)
		// Pairs unioned in either input are unioned in the result.
		assert.Equal(t, j.find(0), j.find(1))
		assert.Equal(t, j.find(1), j.find(2))
		// Values kept separate by both inputs stay separate.
		assert.NotEqual(t, j.find(3), j.find(0))
	})

	t.Run("TransferredFlagOrs", func(t *testing.T) {
		fn := fixture(2)
		a, b := newState(fn), newState(fn)
		a.markTransferred(a.track(0), site(10))
		b.track(0)
		b.markTransferred(b.track(1), site(20))

		j := a.join(b)
		assert.True(t, j.transferred(0))
		assert.True(t, j.transferred(1))

		// The inputs are not disturbed.
		assert.False(t, b.transferred(0))
		assert.False(t, a.tracked(1))
	})

	t.Run("SiteListsUnion", func(t *testing.T) {
		fn := fixture(2)
		a, b := newState(fn), newState(fn)
		a.markTransferred(a.track(0), site(10))
		b.union(0, 1)
		b.markTransferred(b.find(0), site(20))

		j := a.join(b)
		assert.Len(t, j.transferSites(1), 2)
	})

	t.Run("SiteValueSetsMergeWithoutAliasing", func(t *testing.T) {
		// Both inputs hold a record for the same call but with different
		// value sets. The join carries the union; the inputs' records keep
		// their own sets.
		fn := fixture(2)
		call := &CallSite{Callee: "cross", Result: NoValue, Pos: 10}
		class := CallClass{Kind: CallActorEntering, CallerDomain: "main", CalleeDomain: "worker"}
		sa := &TransferSite{Call: call, Class: class, Values: []ValueID{0}}
		sb := &TransferSite{Call: call, Class: class, Values: []ValueID{1}}

		a, b := newState(fn), newState(fn)
		a.markTransferred(a.track(0), sa)
		b.union(0, 1)
		b.markTransferred(b.find(0), sb)

		j := a.join(b)
		sites := j.transferSites(0)
		require.Len(t, sites, 1)
		assert.ElementsMatch(t, []ValueID{0, 1}, sites[0].Values)
		assert.Equal(t, []ValueID{0}, sa.Values)
		assert.Equal(t, []ValueID{1}, sb.Values)
	})
}
