package graph

import (
	"math/rand"
	"testing"

	"github.com/coplib/orderengine/internal/model"
	"github.com/stretchr/testify/require"
)

func tid(id uint64) model.IdT { return model.IdT{ID: id, Date: 20260101} }

func obj(key uint64) model.ObjectInTransaction {
	return model.ObjectInTransaction{Kind: model.KindOrder, Key: tid(key)}
}

func TestAddSingleNodeIsRoot(t *testing.T) {
	g := New()
	ok, delta := g.Add(tid(1), "t1", model.NewObjects(obj(100)))
	require.True(t, ok)
	require.Equal(t, 1, delta)
	require.Equal(t, 1, g.RootFrontierLen())

	key, val, ok := g.Next(model.IdT{})
	require.True(t, ok)
	require.Equal(t, tid(1), key)
	require.Equal(t, "t1", val)
}

func TestDuplicateAddFails(t *testing.T) {
	g := New()
	ok, _ := g.Add(tid(1), "t1", model.NewObjects(obj(100)))
	require.True(t, ok)
	ok, delta := g.Add(tid(1), "t1-again", model.NewObjects(obj(100)))
	require.False(t, ok)
	require.Zero(t, delta)
}

// TestOverlappingObjectsAreOrdered exercises the core graph invariant:
// for t1.id < t2.id sharing an object, t1 becomes an ancestor of t2 and
// only t1 is root-eligible until it is removed.
func TestOverlappingObjectsAreOrdered(t *testing.T) {
	g := New()
	g.Add(tid(1), "t1", model.NewObjects(obj(100)))
	ok, delta := g.Add(tid(2), "t2", model.NewObjects(obj(100)))
	require.True(t, ok)
	require.Zero(t, delta, "t2 shares object 100 with t1 so it must not be root")
	require.Equal(t, 1, g.RootFrontierLen())

	parents, exists := g.GetParents(tid(2))
	require.True(t, exists)
	require.Equal(t, []model.IdT{tid(1)}, parents)

	_, next2, ok := g.Next(tid(1))
	require.False(t, ok, "t2 must not appear in the root frontier before t1 is removed")
	_ = next2

	removed, delta := g.Remove(tid(1))
	require.True(t, removed)
	require.Equal(t, 1, delta, "t2 is promoted to root once its only parent is gone")

	key, _, ok := g.Next(model.IdT{})
	require.True(t, ok)
	require.Equal(t, tid(2), key)
}

func TestDisjointObjectsAreBothRoots(t *testing.T) {
	g := New()
	g.Add(tid(1), "t1", model.NewObjects(obj(100)))
	ok, delta := g.Add(tid(2), "t2", model.NewObjects(obj(200)))
	require.True(t, ok)
	require.Equal(t, 1, delta)
	require.Equal(t, 2, g.RootFrontierLen())
}

func TestRemoveUnknownKeyFails(t *testing.T) {
	g := New()
	ok, delta := g.Remove(tid(99))
	require.False(t, ok)
	require.Zero(t, delta)
}

// TestSiblingOrderIsAscending checks that root-frontier iteration and
// sibling enumeration follow ascending key order, per spec.md §4.A
// tie-breaking.
func TestSiblingOrderIsAscending(t *testing.T) {
	g := New()
	for _, id := range []uint64{5, 1, 3, 2, 4} {
		g.Add(tid(id), id, model.NewObjects(obj(1000+id)))
	}
	var seen []uint64
	cursor := model.IdT{}
	for {
		key, val, ok := g.Next(cursor)
		if !ok {
			break
		}
		seen = append(seen, val.(uint64))
		cursor = key
	}
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
}

// TestBenchmarkOrdering inserts 1000 transactions, each touching 3 random
// objects from a universe of 50, then drains the graph in root order and
// checks that for every pair sharing an object, the earlier-id transaction
// was drained first. Mirrors spec.md §8's 1000-transaction benchmark.
func TestBenchmarkOrdering(t *testing.T) {
	const n = 1000
	const universe = 50
	rng := rand.New(rand.NewSource(42))

	g := New()
	objectsOf := make(map[uint64][]uint64, n)
	for i := uint64(1); i <= n; i++ {
		objs := model.ObjectsInTransaction{}
		chosen := map[uint64]bool{}
		for len(chosen) < 3 {
			chosen[uint64(rng.Intn(universe))] = true
		}
		for k := range chosen {
			objs.Add(obj(k))
			objectsOf[i] = append(objectsOf[i], k)
		}
		ok, _ := g.Add(tid(i), i, objs)
		require.True(t, ok)
	}

	drainOrder := make(map[uint64]int, n)
	position := 0
	for {
		key, val, ok := g.Next(model.IdT{})
		if !ok {
			break
		}
		id := val.(uint64)
		drainOrder[id] = position
		position++
		removed, _ := g.Remove(key)
		require.True(t, removed)
	}
	require.Equal(t, n, position)
	require.Equal(t, 0, g.Len())

	lastSeenPerObject := make(map[uint64]int)
	for id := uint64(1); id <= n; id++ {
		pos := drainOrder[id]
		for _, o := range objectsOf[id] {
			if last, ok := lastSeenPerObject[o]; ok {
				require.Less(t, last, pos, "object %d must be touched in ascending-id order", o)
			}
			lastSeenPerObject[o] = pos
		}
	}
}

// TestMixedChurnLeavesEmptyGraph runs 100 iterations of random add/remove
// against a small seed population (spec.md §8 "mixed churn") and checks
// the graph ends empty with no leaked nodes.
func TestMixedChurnLeavesEmptyGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New()
	live := map[uint64]bool{}
	var nextID uint64 = 1

	for iter := 0; iter < 100; iter++ {
		if len(live) == 0 || rng.Intn(20) != 0 {
			id := nextID
			nextID++
			objs := model.NewObjects(obj(uint64(rng.Intn(10))))
			ok, _ := g.Add(tid(id), id, objs)
			require.True(t, ok)
			live[id] = true
		} else {
			var victim uint64
			for id := range live {
				victim = id
				break
			}
			removed, _ := g.Remove(tid(victim))
			require.True(t, removed)
			delete(live, victim)
		}
	}
	for id := range live {
		removed, _ := g.Remove(tid(id))
		require.True(t, removed)
	}
	require.Equal(t, 0, g.Len())
	require.Equal(t, 0, g.RootFrontierLen())
}
