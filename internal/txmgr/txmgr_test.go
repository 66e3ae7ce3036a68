package txmgr

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/coplib/orderengine/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeTxn struct {
	id      model.TransactionId
	objects model.ObjectsInTransaction
	ran     int32
}

func newFakeTxn(objects model.ObjectsInTransaction) *fakeTxn {
	return &fakeTxn{objects: objects}
}

func (t *fakeTxn) ID() model.TransactionId               { return t.id }
func (t *fakeTxn) SetID(id model.TransactionId)           { t.id = id }
func (t *fakeTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }
func (t *fakeTxn) Execute() bool {
	atomic.AddInt32(&t.ran, 1)
	return true
}

type countingObserver struct{ n int32 }

func (o *countingObserver) OnReadyToExecute() { atomic.AddInt32(&o.n, 1) }

func order(key uint64) model.ObjectInTransaction {
	return model.ObjectInTransaction{Kind: model.KindOrder, Key: model.IdT{ID: key, Date: 1}}
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	m := New(model.NewIDGeneratorWithDate(20260101))
	t1 := newFakeTxn(model.NewObjects(order(1)))
	t2 := newFakeTxn(model.NewObjects(order(2)))

	id1 := m.Add(t1)
	id2 := m.Add(t2)

	require.True(t, id1.Less(id2))
	require.Equal(t, id1, t1.ID())
	require.Equal(t, id2, t2.ID())
}

func TestObserverFiresOutsideLockOnReady(t *testing.T) {
	m := New(model.NewIDGeneratorWithDate(20260101))
	obs := &countingObserver{}
	m.Attach(obs)

	m.Add(newFakeTxn(model.NewObjects(order(1))))
	require.EqualValues(t, 1, atomic.LoadInt32(&obs.n))
}

func TestOverlappingTransactionsOrderedByIteration(t *testing.T) {
	m := New(model.NewIDGeneratorWithDate(20260101))
	t1 := newFakeTxn(model.NewObjects(order(100)))
	t2 := newFakeTxn(model.NewObjects(order(100)))

	id1 := m.Add(t1)
	id2 := m.Add(t2)

	it := m.Iterator()
	require.True(t, it.Next())
	key, tr, ok := it.Get()
	require.True(t, ok)
	require.Equal(t, id1, key)
	require.Same(t, t1, tr)

	require.False(t, it.Next(), "t2 must not be a root while t1 is still in the graph")

	require.True(t, m.Remove(id1))

	it2 := m.Iterator()
	require.True(t, it2.Next())
	key2, tr2, ok := it2.Get()
	require.True(t, ok)
	require.Equal(t, id2, key2)
	require.Same(t, t2, tr2)
}

// TestClaimReadyGrantsEachRootToExactlyOneCaller guards against the race
// where two concurrent callers both observe the same root before either
// removes it: ClaimReady must hand out each root to exactly one caller,
// unlike Iterator which only peeks.
func TestClaimReadyGrantsEachRootToExactlyOneCaller(t *testing.T) {
	m := New(model.NewIDGeneratorWithDate(20260101))
	const n = 64
	txns := make([]*fakeTxn, n)
	for i := range txns {
		txns[i] = newFakeTxn(model.NewObjects(order(uint64(i + 1))))
		m.Add(txns[i])
	}

	claimed := make(chan model.TransactionId, n)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, tr, ok := m.ClaimReady()
				if !ok {
					return
				}
				require.NotNil(t, tr)
				claimed <- id
			}
		}()
	}
	wg.Wait()
	close(claimed)

	seen := make(map[model.TransactionId]int)
	for id := range claimed {
		seen[id]++
	}
	require.Len(t, seen, n, "every root must be claimed exactly once in total")
	for id, count := range seen {
		require.Equal(t, 1, count, "root %s claimed more than once", id)
	}
}

func TestDoubleAttachPanics(t *testing.T) {
	m := New(model.NewIDGeneratorWithDate(20260101))
	m.Attach(&countingObserver{})
	require.Panics(t, func() { m.Attach(&countingObserver{}) })
}
