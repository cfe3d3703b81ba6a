package gpio

import "sync"

// FakeBank is a test double recording gate line activity.
type FakeBank struct {
	mu sync.Mutex

	// High tracks which gates are currently driven high.
	High map[int]bool

	// Asserts logs every Assert call in order.
	Asserts []int

	// ClearAllCalls counts ClearAll invocations.
	ClearAllCalls int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBank creates an empty FakeBank.
func NewFakeBank() *FakeBank {
	return &FakeBank{High: make(map[int]bool)}
}

// Assert records the gate going high.
func (f *FakeBank) Assert(ch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.High[ch] = true
	f.Asserts = append(f.Asserts, ch)
}

// ClearAll records all gates dropping low.
func (f *FakeBank) ClearAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.High {
		f.High[ch] = false
	}
	f.ClearAllCalls++
}

// Errors always reports zero for the fake.
func (f *FakeBank) Errors() uint64 { return 0 }

// Close marks the bank as closed.
func (f *FakeBank) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// AssertLog returns a copy of the Assert call log.
func (f *FakeBank) AssertLog() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.Asserts))
	copy(out, f.Asserts)
	return out
}

// Reset clears all recorded activity.
func (f *FakeBank) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.High = make(map[int]bool)
	f.Asserts = nil
	f.ClearAllCalls = 0
	f.Closed = false
}

// FakeEdgeSource is a test double that delivers edges on demand.
type FakeEdgeSource struct {
	handler func()

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeEdgeSource creates an edge source feeding the given handler.
func NewFakeEdgeSource(handler func()) *FakeEdgeSource {
	return &FakeEdgeSource{handler: handler}
}

// Trigger delivers one edge to the handler.
func (f *FakeEdgeSource) Trigger() {
	if f.handler != nil && !f.Closed {
		f.handler()
	}
}

// Close stops edge delivery.
func (f *FakeEdgeSource) Close() error {
	f.Closed = true
	return nil
}
