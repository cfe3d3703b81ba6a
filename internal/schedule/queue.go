// Package schedule provides a bounded, time-ordered store of brightness
// commands for planned playback. The queue answers "what frame should be
// showing right now": due commands are drained in order (the last one due
// wins) and the last executed frame is held as a sticky answer between
// commands.
package schedule

import (
	"sort"
	"sync"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
)

// DefaultCapacity bounds the queue. A fixed-capacity store is deliberate:
// the step count is small and bounded, and a pre-sized sequence avoids
// reallocation in the steady state.
const DefaultCapacity = 1000

// Command pairs an absolute Unix-millisecond timestamp with one frame.
type Command struct {
	TimestampMS int64
	Frame       dimmer.Frame
}

// Queue is a capacity-bounded command list kept sorted ascending by
// timestamp. Safe for concurrent use: commands arrive from the broker
// client's goroutine while the driver tick consumes them.
type Queue struct {
	mu       sync.Mutex
	capacity int
	commands []Command

	lastFrame      dimmer.Frame
	lastExecutedMS int64
	executed       bool
}

// NewQueue creates an empty queue. Non-positive capacity selects
// DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		capacity: capacity,
		commands: make([]Command, 0, capacity),
	}
}

// AddCommand inserts a command keeping ascending-timestamp order. Among
// equal timestamps insertion order is preserved. Returns false when the
// queue is full or the value list is empty; the queue is left unchanged.
func (q *Queue) AddCommand(tsMS int64, values []uint8) bool {
	if len(values) == 0 {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commands) >= q.capacity {
		return false
	}

	// First index with a strictly later timestamp, so duplicates keep
	// insertion order.
	i := sort.Search(len(q.commands), func(i int) bool {
		return q.commands[i].TimestampMS > tsMS
	})

	q.commands = append(q.commands, Command{})
	copy(q.commands[i+1:], q.commands[i:])
	q.commands[i] = Command{TimestampMS: tsMS, Frame: dimmer.FrameFromSlice(values)}
	return true
}

// CurrentFrame executes every command due at or before nowMS, in ascending
// order, and returns the resulting frame. With no command newly due it
// returns the sticky last-executed frame. The second result is false only
// if no command has ever executed.
func (q *Queue) CurrentFrame(nowMS int64) (dimmer.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(q.commands) && q.commands[n].TimestampMS <= nowMS {
		q.lastFrame = q.commands[n].Frame
		q.lastExecutedMS = q.commands[n].TimestampMS
		q.executed = true
		n++
	}
	if n > 0 {
		rest := copy(q.commands, q.commands[n:])
		q.commands = q.commands[:rest]
	}

	if !q.executed {
		return dimmer.Frame{}, false
	}
	return q.lastFrame, true
}

// Clear empties the queue and resets the sticky state.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = q.commands[:0]
	q.lastFrame = dimmer.Frame{}
	q.lastExecutedMS = 0
	q.executed = false
}

// HasValidSchedule reports whether the queue holds pending commands or a
// frame has ever been latched.
func (q *Queue) HasValidSchedule() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands) > 0 || q.executed
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// LastExecuted returns the timestamp of the most recently executed command
// and whether any command has executed.
func (q *Queue) LastExecuted() (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastExecutedMS, q.executed
}
