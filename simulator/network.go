package simulator

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// ErrNodeDown is returned when a message is sent from or
// to a Node that a Network currently treats as offline.
var ErrNodeDown = errors.New("node is down")

// A Node represents a machine on a virtual network.
type Node struct {
	unused int
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port creates a new Port connected to the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port is a point of communication on a Node.
type Port struct {
	// The Node to which the Port is attached.
	Node *Node

	// A stream of *Message objects.
	Incoming *EventStream
}

// Recv blocks until the next message arrives.
func (p *Port) Recv(h *Handle) *Message {
	return h.Poll(p.Incoming).Message.(*Message)
}

// TryRecv returns the next message that has already
// arrived, or nil if there is none.
func (p *Port) TryRecv(h *Handle) *Message {
	event := h.TryPoll(p.Incoming)
	if event == nil {
		return nil
	}
	return event.Message.(*Message)
}

// A Message is a chunk of data sent between ports.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}
	Size    float64
}

// A Network is an abstract way of moving messages between
// ports.
type Network interface {
	// Send schedules messages for delivery on the
	// destination ports' incoming streams.
	//
	// It never blocks. On success, the i-th Timer fires
	// when the i-th message is delivered; senders use it
	// as the delivery confirmation.
	//
	// On error, none of the messages were sent.
	Send(h *Handle, msgs ...*Message) ([]*Timer, error)
}

// A RandomNetwork assigns an independent random delay in
// [0, MaxLatency) to every message, so messages from one
// sender may overtake each other.
//
// A zero MaxLatency is treated as 1.
type RandomNetwork struct {
	MaxLatency float64
}

// Send sends the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) ([]*Timer, error) {
	maxLatency := r.MaxLatency
	if maxLatency == 0 {
		maxLatency = 1
	}
	timers := make([]*Timer, len(msgs))
	for i, msg := range msgs {
		timers[i] = h.Schedule(msg.Dest.Incoming, msg, rand.Float64()*maxLatency)
	}
	return timers, nil
}

// A ConstantNetwork delivers every message after the same
// fixed latency.
type ConstantNetwork struct {
	Latency float64
}

// Send sends the messages with a fixed delay.
func (c ConstantNetwork) Send(h *Handle, msgs ...*Message) ([]*Timer, error) {
	timers := make([]*Timer, len(msgs))
	for i, msg := range msgs {
		timers[i] = h.Schedule(msg.Dest.Incoming, msg, c.Latency)
	}
	return timers, nil
}

// An OrderedNetwork delivers the messages bound for each
// destination in the order they were sent, while still
// randomizing latency. Nodes can be taken offline to
// inject transport failures.
type OrderedNetwork struct {
	Rate             float64
	MaxRandomLatency float64

	lock      sync.Mutex
	nextTimes map[*Node]float64
	downNodes map[*Node]bool
	timers    map[*Node][]*Timer
}

// NewOrderedNetwork creates an OrderedNetwork where each
// message takes Size/rate plus up to maxRandomLatency.
func NewOrderedNetwork(rate float64, maxRandomLatency float64) *OrderedNetwork {
	return &OrderedNetwork{
		Rate:             rate,
		MaxRandomLatency: maxRandomLatency,
		nextTimes:        map[*Node]float64{},
		downNodes:        map[*Node]bool{},
		timers:           map[*Node][]*Timer{},
	}
}

// Send sends the messages over the network in order.
//
// It fails with ErrNodeDown, sending nothing, if any
// message touches a Node that is down.
func (o *OrderedNetwork) Send(h *Handle, msgs ...*Message) ([]*Timer, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	for _, msg := range msgs {
		if o.downNodes[msg.Source.Node] || o.downNodes[msg.Dest.Node] {
			return nil, ErrNodeDown
		}
	}

	o.cleanupTimers(h)

	curTime := h.Time()
	timers := make([]*Timer, len(msgs))
	for i, msg := range msgs {
		src := msg.Source.Node
		dest := msg.Dest.Node
		delay := rand.Float64()*o.MaxRandomLatency + msg.Size/o.Rate
		if t, ok := o.nextTimes[dest]; ok && t > curTime {
			delay += t - curTime
		}
		o.nextTimes[dest] = curTime + delay

		timer := h.Schedule(msg.Dest.Incoming, msg, delay)
		o.timers[dest] = append(o.timers[dest], timer)
		o.timers[src] = append(o.timers[src], timer)
		timers[i] = timer
	}
	return timers, nil
}

// SetDown takes a Node offline or brings it back.
//
// Taking a Node down drops every message that is still in
// flight to or from it.
func (o *OrderedNetwork) SetDown(h *Handle, node *Node, down bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.downNodes[node] = down
	if !down {
		return
	}

	delete(o.nextTimes, node)

	o.cleanupTimers(h)
	canceled := map[*Timer]bool{}
	for _, t := range o.timers[node] {
		canceled[t] = true
		h.Cancel(t)
	}
	delete(o.timers, node)
	o.filterTimers(func(t *Timer) bool {
		return !canceled[t]
	})
}

func (o *OrderedNetwork) cleanupTimers(h *Handle) {
	now := h.Time()
	o.filterTimers(func(t *Timer) bool {
		return t.Time() >= now
	})
}

func (o *OrderedNetwork) filterTimers(keep func(t *Timer) bool) {
	for node, timers := range o.timers {
		for i := 0; i < len(timers); i++ {
			if !keep(timers[i]) {
				essentials.UnorderedDelete(&timers, i)
				i--
			}
		}
		o.timers[node] = timers
	}
}
