// Package graph implements the NLinkTree: the transaction dependency graph
// (spec.md §4.A). It tracks transactions, the objects each one reads or
// writes, and the parent->child causal edges that overlapping read/write
// sets impose, exposing the current root frontier — the transactions with
// no unresolved parents, i.e. safe to execute concurrently.
//
// Graph itself holds no lock: spec.md's concurrency model puts the single
// mutex in the Transaction Manager (internal/txmgr), which serializes every
// call into the graph. Graph is not safe for concurrent use on its own.
package graph

import (
	"sort"

	"github.com/coplib/orderengine/internal/model"
	"github.com/google/btree"
)

type nodeKey = model.TransactionId

// Value is the payload a graph node carries. The txmgr package supplies a
// concrete Transaction implementation; graph only needs to store and
// return it.
type Value any

type node struct {
	key       nodeKey
	value     Value
	dependsOn model.ObjectsInTransaction
	parents   map[nodeKey]*node
	children  map[nodeKey]*node
}

type objParam struct {
	usedIn map[nodeKey]struct{}
}

// Graph is the NLinkTree. The zero value is not usable; construct with New.
type Graph struct {
	nodes   map[nodeKey]*node
	objects map[model.ObjectInTransaction]*objParam
	roots   *btree.BTreeG[nodeKey]
	cursor  nodeKey // instance-wide iteration cursor, per spec.md §4.A "next"
}

func keyLess(a, b nodeKey) bool { return a.Less(b) }

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[nodeKey]*node),
		objects: make(map[model.ObjectInTransaction]*objParam),
		roots:   btree.NewG(32, keyLess),
	}
}

// Add inserts key with the given value and read/write set. It returns
// false if key is already present (a no-op; callers treat a repeat add as
// a programming error per spec.md §4.B). readyDelta reports how many
// additional transactions became root-eligible as a side effect (0 or 1
// for Add: the new node itself, if it has no parents).
func (g *Graph) Add(key nodeKey, value Value, deps model.ObjectsInTransaction) (ok bool, readyDelta int) {
	if _, exists := g.nodes[key]; exists {
		return false, 0
	}
	n := getNode()
	n.key = key
	n.value = value
	n.dependsOn = deps

	for i := 0; i < deps.Len(); i++ {
		o := deps.At(i)
		op, exists := g.objects[o]
		if !exists {
			op = &objParam{usedIn: make(map[nodeKey]struct{})}
			g.objects[o] = op
		}
		for t := range op.usedIn {
			if t.Less(key) {
				parent := g.nodes[t]
				parent.children[key] = n
				n.parents[t] = parent
			}
		}
		op.usedIn[key] = struct{}{}
	}

	g.nodes[key] = n
	if len(n.parents) == 0 {
		g.roots.ReplaceOrInsert(key)
		readyDelta = 1
	}
	return true, readyDelta
}

// Remove deletes key, promoting any child whose last remaining parent was
// key to the root frontier. readyDelta counts such promotions.
func (g *Graph) Remove(key nodeKey) (ok bool, readyDelta int) {
	n, exists := g.nodes[key]
	if !exists {
		return false, 0
	}

	for i := 0; i < n.dependsOn.Len(); i++ {
		o := n.dependsOn.At(i)
		if op, exists := g.objects[o]; exists {
			delete(op.usedIn, key)
			if len(op.usedIn) == 0 {
				delete(g.objects, o)
			}
		}
	}

	for ck, c := range n.children {
		delete(c.parents, key)
		if len(c.parents) == 0 {
			g.roots.ReplaceOrInsert(ck)
			readyDelta++
		}
	}
	for pk, p := range n.parents {
		delete(p.children, key)
		_ = pk
	}

	g.roots.Delete(key)
	delete(g.nodes, key)
	putNode(n)
	return true, readyDelta
}

// GetParents returns key's direct parents in ascending key order.
func (g *Graph) GetParents(key nodeKey) ([]nodeKey, bool) {
	n, exists := g.nodes[key]
	if !exists {
		return nil, false
	}
	return sortedKeys(n.parents), true
}

// GetChildren returns key's direct children in ascending key order.
func (g *Graph) GetChildren(key nodeKey) ([]nodeKey, bool) {
	n, exists := g.nodes[key]
	if !exists {
		return nil, false
	}
	return sortedKeys(n.children), true
}

// Next advances the root-frontier cursor to the first root strictly
// greater than after, in ascending key order. A zero IdT means "from the
// beginning", since no valid transaction id is the zero value. The cursor
// is instance-wide and not reentrant, matching spec.md §4.A.
func (g *Graph) Next(after nodeKey) (key nodeKey, value Value, ok bool) {
	g.roots.AscendGreaterOrEqual(after, func(item nodeKey) bool {
		if item == after {
			return true
		}
		key = item
		ok = true
		return false
	})
	if !ok {
		return nodeKey{}, nil, false
	}
	g.cursor = key
	return key, g.nodes[key].value, true
}

// ClaimRoot removes and returns the smallest key in the root frontier,
// leaving its node otherwise intact (parents/children/dependsOn are
// untouched; only the frontier membership is consumed). This is the
// primitive that makes handing a root to a worker atomic: once claimed,
// the same key cannot be claimed again until the caller finishes and
// calls Remove, even though the node stays in the graph in the
// meantime. Safe for ResetCursor/Next/Advance to keep running against a
// claimed-but-not-yet-removed node, since only the frontier entry is
// gone.
func (g *Graph) ClaimRoot() (key nodeKey, value Value, ok bool) {
	item, found := g.roots.DeleteMin()
	if !found {
		return nodeKey{}, nil, false
	}
	n, exists := g.nodes[item]
	if !exists {
		return nodeKey{}, nil, false
	}
	return item, n.value, true
}

// Advance moves the cursor to the next root after its current position
// and returns it, mirroring the original's no-argument next(K*, V*)
// overload that continues from the instance-wide cursor rather than an
// explicit "after" key.
func (g *Graph) Advance() (key nodeKey, value Value, ok bool) {
	return g.Next(g.cursor)
}

// Current returns the node at the cursor's current position, if any.
func (g *Graph) Current() (key nodeKey, value Value, ok bool) {
	n, exists := g.nodes[g.cursor]
	if !exists {
		return nodeKey{}, nil, false
	}
	return g.cursor, n.value, true
}

// ResetCursor rewinds the iteration cursor to the beginning of the root
// frontier.
func (g *Graph) ResetCursor() { g.cursor = nodeKey{} }

// RootFrontierLen reports the current size of the root frontier, for
// metrics (internal/metrics.Registry.RootFrontierSize).
func (g *Graph) RootFrontierLen() int { return g.roots.Len() }

// Len reports the total number of live transactions tracked by the graph.
func (g *Graph) Len() int { return len(g.nodes) }

func sortedKeys(m map[nodeKey]*node) []nodeKey {
	out := make([]nodeKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
