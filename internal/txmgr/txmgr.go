// Package txmgr implements the Transaction Manager (spec.md §4.B): a
// mutex-guarded wrapper around the dependency graph (internal/graph) that
// assigns transaction ids, inserts/removes transactions, and notifies a
// single observer whenever a graph mutation makes new transactions
// root-eligible.
package txmgr

import (
	"fmt"
	"sync"

	"github.com/coplib/orderengine/internal/graph"
	"github.com/coplib/orderengine/internal/model"
)

// Transaction is the unit of work the graph orders. Id is assigned exactly
// once, by Manager.Add, before the transaction is inserted into the graph.
type Transaction interface {
	// ID returns the transaction's id. Zero/invalid before Add assigns one.
	ID() model.TransactionId
	// SetID assigns the transaction's id. Called exactly once, by Manager.Add.
	SetID(id model.TransactionId)
	// RelatedObjects returns the read/write set the graph keys dependency
	// tracking on.
	RelatedObjects() model.ObjectsInTransaction
	// Execute runs the transaction's body. Returning false marks it as
	// having failed a precondition (spec.md §7 PreconditionFailure); the
	// transaction still completes and unlinks from the graph either way.
	Execute() bool
}

// Observer receives a notification whenever an Add/Remove makes the root
// frontier non-empty-increasing. Only one observer may be attached at a
// time, per spec.md §4.B.
type Observer interface {
	OnReadyToExecute()
}

// Manager wraps the dependency graph under a single mutex and assigns
// monotonic transaction ids via an IDGenerator.
type Manager struct {
	mu    sync.Mutex
	g     *graph.Graph
	idGen *model.IDGenerator
	obs   Observer
}

// New constructs a Manager backed by idGen for id assignment.
func New(idGen *model.IDGenerator) *Manager {
	return &Manager{
		g:     graph.New(),
		idGen: idGen,
	}
}

// Attach registers the single observer for ready-to-execute notifications.
// A second Attach without an intervening Detach is a programming error.
func (m *Manager) Attach(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.obs != nil {
		panic("txmgr: observer already attached")
	}
	m.obs = obs
}

// Detach removes and returns the current observer, or nil if none is set.
func (m *Manager) Detach() Observer {
	m.mu.Lock()
	defer m.mu.Unlock()
	obs := m.obs
	m.obs = nil
	return obs
}

// Add assigns the next id (under the lock, immediately before the graph
// insert, so id assignment and graph order stay monotonic together),
// inserts t into the graph, and — outside the lock — notifies the
// observer if the insertion grew the root frontier.
func (m *Manager) Add(t Transaction) model.TransactionId {
	m.mu.Lock()
	id := m.idGen.Next()
	t.SetID(id)
	ok, delta := m.g.Add(id, t, t.RelatedObjects())
	obs := m.obs
	m.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("txmgr: double-add of transaction id %s", id))
	}
	if delta > 0 && obs != nil {
		obs.OnReadyToExecute()
	}
	return id
}

// Remove unlinks id from the graph, promoting any children whose last
// parent was id. The observer is notified outside the lock if that
// promotion grew the root frontier.
func (m *Manager) Remove(id model.TransactionId) bool {
	m.mu.Lock()
	ok, delta := m.g.Remove(id)
	obs := m.obs
	m.mu.Unlock()

	if ok && delta > 0 && obs != nil {
		obs.OnReadyToExecute()
	}
	return ok
}

// GetParentTransactions returns id's direct parents in ascending order.
func (m *Manager) GetParentTransactions(id model.TransactionId) ([]model.TransactionId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.GetParents(id)
}

// GetRelatedTransactions returns id's direct children in ascending order.
func (m *Manager) GetRelatedTransactions(id model.TransactionId) ([]model.TransactionId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.GetChildren(id)
}

// RootFrontierLen reports the current root-frontier size, for metrics.
func (m *Manager) RootFrontierLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.RootFrontierLen()
}

// Len reports the total number of live transactions in the graph, for
// Task Manager's wait_until_transactions_finished.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.Len()
}

// ClaimReady atomically removes and returns the smallest root in the
// frontier, under the manager lock, so that exactly one caller ever
// receives a given root — unlike Iterator, which only peeks. Concurrent
// transaction workers (Task Manager, spec.md §4.F) must call this rather
// than Iterator to pull work, so that two workers racing for the same
// root can never both observe and execute it. The claimed transaction
// stays in the graph (its parents/children/read-write-set bookkeeping is
// untouched) until the caller finishes executing it and calls Remove.
func (m *Manager) ClaimReady() (model.TransactionId, Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, val, ok := m.g.ClaimRoot()
	if !ok {
		return model.TransactionId{}, nil, false
	}
	tr, _ := val.(Transaction)
	return key, tr, true
}

// Iterator returns a cursor serialized by the manager's lock, per
// spec.md §4.B ("all calls serialized by the manager lock").
func (m *Manager) Iterator() *Iterator {
	return &Iterator{m: m}
}

// Iterator walks the root frontier in ascending key order without
// claiming anything: every root it visits remains eligible for
// ClaimReady. It exists for read-only inspection (tests, diagnostics);
// concurrent workers pulling work must use ClaimReady instead, or they
// can race each other onto the same root. Every method call takes the
// manager's lock for its duration.
type Iterator struct {
	m       *Manager
	key     model.TransactionId
	tr      Transaction
	valid   bool
}

// Next advances the iterator to the next root strictly after its current
// position and reports whether one was found.
func (it *Iterator) Next() bool {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	key, val, ok := it.m.g.Next(it.key)
	if !ok {
		it.valid = false
		return false
	}
	it.key = key
	it.tr, _ = val.(Transaction)
	it.valid = true
	return true
}

// Get returns the transaction at the iterator's current position.
func (it *Iterator) Get() (model.TransactionId, Transaction, bool) {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	return it.key, it.tr, it.valid
}

// IsValid reports whether the iterator currently points at a live root.
func (it *Iterator) IsValid() bool {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	return it.valid
}
