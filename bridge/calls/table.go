// Package calls implements the correlation table that matches asynchronous
// far-side replies to the outbound call that issued them.
package calls

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("bridge/calls")

var (
	// ErrTimeout fails a call whose reply did not arrive within the
	// configured interval
	ErrTimeout = errors.New("call timed out")
	// ErrConnectionLost fails every call still pending when the far-side
	// channel closes
	ErrConnectionLost = errors.New("connection lost")
)

var (
	registeredCalls = metrics.GetOrCreateCounter(`toolbridge_calls_registered_total`)
	resolvedCalls   = metrics.GetOrCreateCounter(`toolbridge_calls_resolved_total`)
	failedCalls     = metrics.GetOrCreateCounter(`toolbridge_calls_failed_total`)
	timedOutCalls   = metrics.GetOrCreateCounter(`toolbridge_calls_timed_out_total`)
	drainedCalls    = metrics.GetOrCreateCounter(`toolbridge_calls_drained_total`)
)

// DefaultTimeout is how long a call may stay pending before it is evicted.
const DefaultTimeout = 30 * time.Second

// Outcome is the terminal state of one pending call: either a raw result or
// an error, never both.
type Outcome struct {
	Result json.RawMessage
	Err    error
}

// pendingCall is the bookkeeping record for one outstanding call. It is
// owned exclusively by the table from registration until completion.
type pendingCall struct {
	id      uint64
	ch      chan Outcome
	timer   *time.Timer
	created time.Time
}

// Table correlates outbound call identifiers to their pending outcomes.
// Identifiers are monotonically assigned and never reused while a call with
// that identifier is pending. Exactly one completion (resolve, fail, timeout
// or drain) wins per call; later completions are silently ignored.
type Table struct {
	timeout time.Duration
	nextID  atomic.Uint64
	pending *xsync.MapOf[uint64, *pendingCall]
}

// NewTable creates a correlation table. A non-positive timeout selects
// DefaultTimeout.
func NewTable(timeout time.Duration) *Table {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Table{
		timeout: timeout,
		pending: xsync.NewMapOf[uint64, *pendingCall](),
	}
}

// Register allocates the next identifier, creates a pending call and arms
// its timeout. The caller awaits the returned channel, which receives
// exactly one outcome.
func (t *Table) Register() (uint64, <-chan Outcome) {
	id := t.nextID.Add(1)

	p := &pendingCall{
		id:      id,
		ch:      make(chan Outcome, 1), // buffered so completion never blocks
		created: time.Now(),
	}
	p.timer = time.AfterFunc(t.timeout, func() {
		if t.complete(id, Outcome{Err: ErrTimeout}) {
			timedOutCalls.Inc()
			Logger.Warningf("Call %d timed out after %s", id, t.timeout)
		}
	})
	t.pending.Store(id, p)

	registeredCalls.Inc()
	return id, p.ch
}

// Resolve completes the call with a successful result. A missing identifier
// (late reply after timeout eviction) is a no-op.
func (t *Table) Resolve(id uint64, result json.RawMessage) bool {
	if t.complete(id, Outcome{Result: result}) {
		resolvedCalls.Inc()
		return true
	}
	return false
}

// Fail completes the call with an error. A missing identifier is a no-op.
func (t *Table) Fail(id uint64, err error) bool {
	if t.complete(id, Outcome{Err: err}) {
		failedCalls.Inc()
		return true
	}
	return false
}

// Drain removes and fails every remaining pending call with a
// connection-lost error. Invoked when the far-side channel closes.
func (t *Table) Drain() int {
	// Collect first: completing while ranging would mutate the map
	// under the iteration
	ids := make([]uint64, 0)
	t.pending.Range(func(id uint64, _ *pendingCall) bool {
		ids = append(ids, id)
		return true
	})

	n := 0
	for _, id := range ids {
		if t.complete(id, Outcome{Err: ErrConnectionLost}) {
			drainedCalls.Inc()
			n++
		}
	}

	if n > 0 {
		Logger.Warningf("Drained %d pending calls on disconnect", n)
	}
	return n
}

// Len returns the number of calls currently pending.
func (t *Table) Len() int {
	return t.pending.Size()
}

// complete is the single check-and-remove step deciding the winner between
// reply, fault, timeout and drain. The timer is stopped on completion so no
// timer fires after an early resolution.
func (t *Table) complete(id uint64, out Outcome) bool {
	p, ok := t.pending.LoadAndDelete(id)
	if !ok {
		return false
	}
	p.timer.Stop()
	p.ch <- out
	return true
}
