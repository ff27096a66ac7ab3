// Package minqueue implements a binary min-heap whose
// elements can have their priority changed in place.
package minqueue

import (
	"container/heap"
	"errors"
)

// ErrFull is returned when inserting into a queue that is
// already at capacity.
var ErrFull = errors.New("queue is at capacity")

// An Entry is a (key, value) pair read out of a queue.
type Entry struct {
	Key   int
	Value int
}

// Empty is returned by PopMin and PeekMin when the queue
// has no elements. It is a plain value; compare with ==.
var Empty = Entry{Key: -1, Value: -1}

// A Node is an element tracked by a Queue.
//
// Callers keep a pointer to each Node they insert so that
// its value can later be changed with Update.
type Node struct {
	Key   int
	Value int

	// Position in the heap, or -1 if not in a queue.
	index int
}

// NewNode creates a Node that is not yet in any queue.
func NewNode(key, value int) *Node {
	return &Node{Key: key, Value: value, index: -1}
}

// Entry gets the node's current (key, value) pair.
func (n *Node) Entry() Entry {
	return Entry{Key: n.Key, Value: n.Value}
}

// A Queue is a bounded min-heap of Nodes ordered by Value.
//
// A Queue is not safe for concurrent use.
type Queue struct {
	capacity int
	nodes    nodeHeap
}

// New creates an empty queue that holds at most capacity
// nodes.
func New(capacity int) *Queue {
	return &Queue{capacity: capacity, nodes: make(nodeHeap, 0, capacity)}
}

// Len gets the number of nodes in the queue.
func (q *Queue) Len() int {
	return len(q.nodes)
}

// IsEmpty checks if the queue has no nodes.
func (q *Queue) IsEmpty() bool {
	return len(q.nodes) == 0
}

// Contains checks if n is currently in q.
func (q *Queue) Contains(n *Node) bool {
	return n.index >= 0 && n.index < len(q.nodes) && q.nodes[n.index] == n
}

// Insert adds a node to the queue.
func (q *Queue) Insert(n *Node) error {
	if len(q.nodes) == q.capacity {
		return ErrFull
	}
	heap.Push(&q.nodes, n)
	return nil
}

// PeekMin gets the smallest entry without removing it.
func (q *Queue) PeekMin() Entry {
	if len(q.nodes) == 0 {
		return Empty
	}
	return q.nodes[0].Entry()
}

// PopMin removes and returns the smallest entry.
func (q *Queue) PopMin() Entry {
	if len(q.nodes) == 0 {
		return Empty
	}
	return heap.Pop(&q.nodes).(*Node).Entry()
}

// Update changes the value of a node in the queue and
// restores the heap order.
//
// Setting a node to its current value leaves the heap
// untouched.
func (q *Queue) Update(n *Node, value int) {
	if !q.Contains(n) {
		panic("node is not in this queue")
	}
	if value == n.Value {
		return
	}
	n.Value = value
	heap.Fix(&q.nodes, n.index)
}

// check verifies the heap order, returning the index of
// the first node that is smaller than its parent or -1.
func (q *Queue) check() int {
	for i := 1; i < len(q.nodes); i++ {
		if q.nodes[i].Value < q.nodes[(i-1)/2].Value {
			return i
		}
	}
	return -1
}

type nodeHeap []*Node

func (h nodeHeap) Len() int {
	return len(h)
}

func (h nodeHeap) Less(i, j int) bool {
	return h[i].Value < h[j].Value
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x interface{}) {
	n := x.(*Node)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	n.index = -1
	return n
}
