// Package collcomm gives each simulated worker a view of
// the network: tagged point-to-point messages, a
// non-blocking receive, and the collectives that the
// shortest-path protocols synchronize on.
package collcomm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/unixpickle/dist-sssp/metrics"
	"github.com/unixpickle/dist-sssp/simulator"
	"github.com/unixpickle/essentials"
)

// AnySource matches a message from any worker in Recv and
// TryRecv.
const AnySource = -1

// DefaultOutboxSlots is the number of unconfirmed messages
// a worker may have in flight to one destination.
const DefaultOutboxSlots = 4

// ErrSendFailed is returned once a send is still failing
// after the retry policy gives up.
var ErrSendFailed = errors.New("send failed")

// A Packet is the payload of every message.
//
// Protocol messages carry exactly one integer; collectives
// may carry whole vectors.
type Packet struct {
	Tag  int
	Data []int
}

// RetryPolicy bounds how a failed send is retried.
// Intervals are in units of virtual time.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including
	// the first. Zero means 5.
	MaxAttempts int

	// InitialInterval is the first back-off delay. Zero
	// means 0.01.
	InitialInterval float64

	// Multiplier scales each successive delay. Zero means
	// 2.
	Multiplier float64
}

func (r RetryPolicy) backOff() backoff.BackOff {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	interval := r.InitialInterval
	if interval <= 0 {
		interval = 0.01
	}
	multiplier := r.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(interval * float64(time.Second))
	b.MaxInterval = time.Duration(interval * math.Pow(multiplier, float64(attempts)) * float64(time.Second))
	b.Multiplier = multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Options configures the Comms created by SpawnComms.
type Options struct {
	// Log defaults to a disabled logger.
	Log *zerolog.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics

	Retry RetryPolicy

	// OutboxSlots defaults to DefaultOutboxSlots.
	OutboxSlots int
}

// Comms is a single worker's view of the network.
//
// A Comms may only be used from the Goroutine that owns
// its Handle.
type Comms struct {
	// Handle is the worker's handle on the event loop.
	Handle *simulator.Handle

	// Port is the current worker's port.
	Port *simulator.Port

	// Ports contains ports to all the workers, including
	// the current one.
	Ports []*simulator.Port

	// Network is the network connecting the workers.
	Network simulator.Network

	Log     zerolog.Logger
	Metrics *metrics.Metrics

	index int
	retry RetryPolicy
	slots int

	// Messages that arrived but have not been matched by a
	// receive yet, in arrival order.
	stash []*envelope

	// Delivery timers of unconfirmed sends, per destination.
	outbox [][]*simulator.Timer

	epoch int
}

type envelope struct {
	source int
	packet *Packet
}

// SpawnComms creates Comms objects for every node in a
// network and calls f for each node in its own Goroutine.
func SpawnComms(loop *simulator.EventLoop, network simulator.Network, nodes []*simulator.Node,
	opts Options, f func(c *Comms)) {
	ports := make([]*simulator.Port, len(nodes))
	for i, node := range nodes {
		ports[i] = node.Port(loop)
	}
	logger := zerolog.Nop()
	if opts.Log != nil {
		logger = *opts.Log
	}
	slots := opts.OutboxSlots
	if slots <= 0 {
		slots = DefaultOutboxSlots
	}
	for i := range nodes {
		idx := i
		loop.Go(func(h *simulator.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    ports[idx],
				Ports:   ports,
				Network: network,
				Log:     logger.With().Int("rank", idx).Logger(),
				Metrics: opts.Metrics,
				index:   idx,
				retry:   opts.Retry,
				slots:   slots,
				outbox:  make([][]*simulator.Timer, len(ports)),
			})
		})
	}
}

// Size gets the number of workers.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// Index returns the current worker's rank.
func (c *Comms) Index() int {
	return c.index
}

// IndexOf returns any port's rank.
func (c *Comms) IndexOf(p *simulator.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("unknown port")
}

// SendInt sends a single integer.
func (c *Comms) SendInt(dst, tag, value int) error {
	return c.Send(dst, tag, []int{value})
}

// Send sends a tagged vector to the worker with rank dst.
//
// Sending to oneself never touches the network. Otherwise
// Send first waits for a free outbox slot towards dst,
// then retries network failures according to the retry
// policy, returning an error wrapping ErrSendFailed if
// they persist.
func (c *Comms) Send(dst, tag int, data []int) error {
	payload := append([]int{}, data...)
	if dst == c.index {
		c.stash = append(c.stash, &envelope{
			source: dst,
			packet: &Packet{Tag: tag, Data: payload},
		})
		c.Metrics.MessageSent(metrics.KindLocal)
		return nil
	}

	c.reserveSlot(dst)

	msg := &simulator.Message{
		Source:  c.Port,
		Dest:    c.Ports[dst],
		Message: &Packet{Tag: tag, Data: payload},
		Size:    float64((len(payload) + 1) * 8),
	}
	policy := c.retry.backOff()
	for attempt := 1; ; attempt++ {
		timers, err := c.Network.Send(c.Handle, msg)
		if err == nil {
			c.outbox[dst] = append(c.outbox[dst], timers...)
			if tag < 0 {
				c.Metrics.MessageSent(metrics.KindCollective)
			} else {
				c.Metrics.MessageSent(metrics.KindData)
			}
			return nil
		}
		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			c.Log.Error().Err(err).Int("dest", dst).Int("tag", tag).Int("attempts", attempt).
				Msg("giving up on send")
			return fmt.Errorf("%w: to worker %d after %d attempts: %v", ErrSendFailed, dst, attempt, err)
		}
		c.Metrics.Retry()
		c.Log.Warn().Err(err).Int("dest", dst).Int("tag", tag).Dur("backoff", delay).
			Msg("send failed, retrying")
		c.Handle.Sleep(delay.Seconds())
	}
}

// Recv blocks until a message from src with the given tag
// arrives and returns its payload.
//
// Messages that do not match are kept, in order, for later
// receives.
func (c *Comms) Recv(src, tag int) []int {
	for {
		if data, ok := c.popMatch(src, tag); ok {
			return data
		}
		c.stashMessage(c.Port.Recv(c.Handle))
	}
}

// RecvInt is like Recv for single-integer messages.
func (c *Comms) RecvInt(src, tag int) int {
	return c.Recv(src, tag)[0]
}

// TryRecv returns the oldest message from src with the
// given tag if one has already arrived. It never blocks.
func (c *Comms) TryRecv(src, tag int) ([]int, bool) {
	for {
		msg := c.Port.TryRecv(c.Handle)
		if msg == nil {
			break
		}
		c.stashMessage(msg)
	}
	return c.popMatch(src, tag)
}

// TryRecvInt is like TryRecv for single-integer messages.
func (c *Comms) TryRecvInt(src, tag int) (int, bool) {
	data, ok := c.TryRecv(src, tag)
	if !ok {
		return 0, false
	}
	return data[0], true
}

// Flush blocks until every message this worker sent over
// the network has been delivered.
func (c *Comms) Flush() {
	for dst := range c.outbox {
		c.waitSlots(dst, 1)
	}
}

// NextCollectiveTag returns a fresh tag for one collective
// operation.
//
// Collective tags are negative, so they never collide with
// protocol tags. Because every worker enters collectives in
// the same order, all workers compute the same tag for the
// same operation.
func (c *Comms) NextCollectiveTag() int {
	c.epoch++
	return -c.epoch
}

func (c *Comms) reserveSlot(dst int) {
	c.waitSlots(dst, c.slots)
}

// waitSlots blocks until fewer than limit sends to dst are
// unconfirmed.
func (c *Comms) waitSlots(dst, limit int) {
	for {
		pending := c.outbox[dst][:0]
		earliest := math.Inf(1)
		for _, t := range c.outbox[dst] {
			if !c.Handle.Done(t) {
				pending = append(pending, t)
				earliest = math.Min(earliest, t.Time())
			}
		}
		c.outbox[dst] = pending
		if len(pending) < limit {
			return
		}
		if earliest > c.Handle.Time() {
			c.Handle.SleepUntil(earliest)
		} else {
			// Due now, but an equal-time timer may fire first.
			c.Handle.Sleep(0)
		}
	}
}

func (c *Comms) stashMessage(msg *simulator.Message) {
	packet, ok := msg.Message.(*Packet)
	if !ok {
		panic(fmt.Sprintf("unexpected message type %T", msg.Message))
	}
	c.stash = append(c.stash, &envelope{source: c.IndexOf(msg.Source), packet: packet})
}

func (c *Comms) popMatch(src, tag int) ([]int, bool) {
	for i, env := range c.stash {
		if env.packet.Tag == tag && (src == AnySource || env.source == src) {
			essentials.OrderedDelete(&c.stash, i)
			return env.packet.Data, true
		}
	}
	return nil, false
}
