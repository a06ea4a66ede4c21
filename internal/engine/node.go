package engine

import "github.com/roach88/drawseq/internal/ir"

// Node is one link of a batch chain. Dispatchers read the chain through
// Next and cannot relink it; only the owning Sequence sets next.
type Node struct {
	Op   ir.Op
	next *Node
}

// Next returns the following node, or nil at the tail.
func (n *Node) Next() *Node {
	return n.next
}

// Len counts the nodes reachable from head.
func Len(head *Node) int {
	n := 0
	for ; head != nil; head = head.next {
		n++
	}
	return n
}

// Ops collects the ops of a chain in order. The returned slice shares the
// op values (and their buffers) with the chain, so it must not outlive the
// dispatch that received it.
func Ops(head *Node) []ir.Op {
	ops := make([]ir.Op, 0, 16)
	for ; head != nil; head = head.next {
		ops = append(ops, head.Op)
	}
	return ops
}
