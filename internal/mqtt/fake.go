package mqtt

// HeartbeatRecord captures one PublishHeartbeat call.
type HeartbeatRecord struct {
	Mode      string
	UptimeSec int64
}

// FakeBroker records heartbeats and lets tests inject control messages.
type FakeBroker struct {
	// Handlers receive injected messages, as on the real client.
	Handlers Handlers

	// Heartbeats contains all published heartbeats in order.
	Heartbeats []HeartbeatRecord

	// PublishError, if set, is returned by PublishHeartbeat.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	// DroppedCount counts injected payloads that failed to decode.
	DroppedCount uint64
}

// NewFakeBroker creates a FakeBroker for testing.
func NewFakeBroker(handlers Handlers) *FakeBroker {
	return &FakeBroker{Handlers: handlers, Connected: true}
}

// InjectStatic decodes a static payload and routes it like the real
// client would.
func (f *FakeBroker) InjectStatic(payload []byte) {
	values, err := DecodeStatic(payload)
	if err != nil {
		f.DroppedCount++
		return
	}
	if f.Handlers.Static != nil {
		f.Handlers.Static(values)
	}
}

// InjectPlan decodes a plan payload and routes it like the real client
// would.
func (f *FakeBroker) InjectPlan(payload []byte, nowMS int64) {
	plan, err := DecodePlan(payload, nowMS)
	if err != nil {
		f.DroppedCount++
		return
	}
	if f.Handlers.Plan != nil {
		f.Handlers.Plan(plan)
	}
}

// PublishHeartbeat records the heartbeat.
func (f *FakeBroker) PublishHeartbeat(mode string, uptimeSec int64) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Heartbeats = append(f.Heartbeats, HeartbeatRecord{Mode: mode, UptimeSec: uptimeSec})
	return nil
}

// IsConnected reports the configured connection state.
func (f *FakeBroker) IsConnected() bool {
	return f.Connected
}

// Close marks the broker as closed.
func (f *FakeBroker) Close() error {
	f.Closed = true
	return nil
}
