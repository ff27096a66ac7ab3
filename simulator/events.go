package simulator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// ErrDeadlock is returned by EventLoop.Run when every
// Goroutine is blocked and no timer can wake any of them.
var ErrDeadlock = errors.New("deadlock: all Handles are polling")

// An EventStream is a uni-directional queue of events
// passed through an EventLoop.
//
// A stream belongs to exactly one EventLoop.
type EventStream struct {
	loop    *EventLoop
	pending []interface{}
}

// An Event is a message delivered on some EventStream.
type Event struct {
	Message interface{}
	Stream  *EventStream
}

// A Timer is a single delivery scheduled for the
// (virtual) future.
type Timer struct {
	time  float64
	event *Event
	done  bool
}

// Time gets the virtual time at which the timer fires.
//
// While the loop's time is below a timer's Time(), the
// timer is guaranteed not to have fired.
func (t *Timer) Time() float64 {
	return t.time
}

// A Handle is one Goroutine's access to an EventLoop.
// Handles must not be shared between Goroutines.
type Handle struct {
	*EventLoop

	// Set only while the Goroutine is blocked in Poll.
	pollStreams []*EventStream
	pollChan    chan<- *Event
}

// Poll blocks until an event arrives on one of the
// streams. Streams earlier in the list take priority when
// more than one already has a pending event.
func (h *Handle) Poll(streams ...*EventStream) *Event {
	ch := make(chan *Event, 1)
	h.modifyHandles(func() {
		if h.pollStreams != nil {
			panic("Handle is shared between Goroutines")
		}
		if event := popPending(streams); event != nil {
			ch <- event
			return
		}
		h.pollStreams = streams
		h.pollChan = ch
	})
	return <-ch
}

// TryPoll is a non-blocking Poll.
// It returns nil if none of the streams has an event
// waiting, and never lets virtual time advance.
func (h *Handle) TryPoll(streams ...*EventStream) *Event {
	var event *Event
	h.modify(func() {
		event = popPending(streams)
	})
	return event
}

// Schedule creates a Timer that delivers msg on stream
// after delay units of virtual time.
func (h *Handle) Schedule(stream *EventStream, msg interface{}, delay float64) *Timer {
	if stream.loop != h.EventLoop {
		panic("EventStream is not associated with the correct EventLoop")
	}
	var timer *Timer
	h.modify(func() {
		timer = &Timer{
			time:  h.time + delay,
			event: &Event{Message: msg, Stream: stream},
		}
		if math.IsInf(timer.time, 0) || math.IsNaN(timer.time) {
			panic(fmt.Sprintf("invalid deadline: %f", timer.time))
		}
		h.timers = append(h.timers, timer)
	})
	return timer
}

// Cancel stops a scheduled timer.
// Cancelling a timer that already fired has no effect.
func (h *Handle) Cancel(t *Timer) {
	h.modify(func() {
		for i, timer := range h.timers {
			if timer == t {
				essentials.UnorderedDelete(&h.timers, i)
				t.done = true
				return
			}
		}
	})
}

// Done reports whether t has fired or been cancelled.
func (h *Handle) Done(t *Timer) bool {
	var done bool
	h.modify(func() {
		done = t.done
	})
	return done
}

// Sleep blocks for delay units of virtual time.
func (h *Handle) Sleep(delay float64) {
	stream := h.Stream()
	h.Schedule(stream, nil, delay)
	h.Poll(stream)
}

// SleepUntil blocks until the virtual clock reaches t.
// It returns immediately if t is not in the future.
func (h *Handle) SleepUntil(t float64) {
	if delay := t - h.Time(); delay > 0 {
		h.Sleep(delay)
	}
}

// An EventLoop is a global scheduler for the events of a
// simulated distributed system.
//
// Goroutines that use an EventLoop must be started with
// EventLoop.Go().
//
// Virtual time only advances once every live Goroutine
// is blocked in Poll, so simulated workers can compute
// for as long as they like between messages.
type EventLoop struct {
	lock    sync.Mutex
	timers  []*Timer
	handles []*Handle

	time float64

	running  bool
	notifyCh chan struct{}
}

// NewEventLoop creates an event loop whose clock starts
// at 0.
func NewEventLoop() *EventLoop {
	return &EventLoop{notifyCh: make(chan struct{}, 1)}
}

// Stream creates a new EventStream.
func (e *EventLoop) Stream() *EventStream {
	return &EventStream{loop: e}
}

// Go runs f in a Goroutine with its own Handle.
func (e *EventLoop) Go(f func(h *Handle)) {
	h := &Handle{EventLoop: e}
	e.lock.Lock()
	e.handles = append(e.handles, h)
	e.lock.Unlock()
	go func() {
		defer e.modifyHandles(func() {
			for i, handle := range e.handles {
				if handle == h {
					essentials.UnorderedDelete(&e.handles, i)
					return
				}
			}
			panic("cannot free handle that does not exist")
		})
		f(h)
	}()
}

// Run drives the loop until every Goroutine started with
// Go() has returned.
//
// It returns ErrDeadlock if the remaining Goroutines are
// all polling and no timer is left to wake them.
// Run must not be called from more than one Goroutine.
func (e *EventLoop) Run() error {
	e.lock.Lock()
	if e.running {
		e.lock.Unlock()
		panic("EventLoop is already running.")
	}
	e.running = true
	e.lock.Unlock()

	defer func() {
		e.lock.Lock()
		e.running = false
		e.lock.Unlock()
	}()

	for range e.notifyCh {
		if shouldContinue, err := e.step(); !shouldContinue {
			return err
		}
	}

	panic("unreachable")
}

// MustRun is like Run, but it panics on a deadlock.
func (e *EventLoop) MustRun() {
	if err := e.Run(); err != nil {
		panic(err)
	}
}

// Time gets the current virtual time.
func (e *EventLoop) Time() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.time
}

// modify runs f with the loop locked. f must not change
// which handles are polling.
func (e *EventLoop) modify(f func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	f()
}

// modifyHandles is like modify, but wakes up the
// scheduler afterwards since f may change polling state.
func (e *EventLoop) modifyHandles(f func()) {
	e.lock.Lock()
	defer func() {
		e.lock.Unlock()
		select {
		case e.notifyCh <- struct{}{}:
		default:
		}
	}()
	f()
}

// step fires timers until one of them wakes a Goroutine.
//
// The first return value is false once the loop can no
// longer make progress; the error is set on a deadlock.
func (e *EventLoop) step() (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.handles) == 0 {
		return false, nil
	}

	for _, h := range e.handles {
		if len(h.pollStreams) == 0 {
			// Someone is still computing in real time.
			return true, nil
		}
	}

	for len(e.timers) > 0 {
		// Timers with equal deadlines fire in random order.
		indices := rand.Perm(len(e.timers))

		minIdx := indices[0]
		for _, i := range indices[1:] {
			if e.timers[i].time < e.timers[minIdx].time {
				minIdx = i
			}
		}
		timer := e.timers[minIdx]

		essentials.UnorderedDelete(&e.timers, minIdx)
		timer.done = true
		e.time = math.Max(e.time, timer.time)
		if e.deliver(timer.event) {
			return true, nil
		}
	}

	return false, ErrDeadlock
}

func (e *EventLoop) deliver(event *Event) bool {
	// Receivers polling the same stream are woken in
	// random order.
	for _, i := range rand.Perm(len(e.handles)) {
		h := e.handles[i]
		for _, stream := range h.pollStreams {
			if stream == event.Stream {
				h.pollChan <- event
				h.pollChan = nil
				h.pollStreams = nil
				return true
			}
		}
	}
	event.Stream.pending = append(event.Stream.pending, event.Message)
	return false
}

func popPending(streams []*EventStream) *Event {
	for _, stream := range streams {
		if len(stream.pending) > 0 {
			msg := stream.pending[0]
			essentials.OrderedDelete(&stream.pending, 0)
			return &Event{Message: msg, Stream: stream}
		}
	}
	return nil
}
