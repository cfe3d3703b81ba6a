// Package mqtt provides the broker client that feeds static frames and
// schedule plans into the core, plus the periodic heartbeat publish, with
// abstraction for testing.
package mqtt

import "encoding/json"

// Topic suffixes under the configured base topic.
const (
	TopicSuffixSetStatic = "/set_static"
	TopicSuffixSetPlan   = "/set_plan"
	TopicSuffixHeartbeat = "/heartbeat"
)

// Handlers receive decoded control messages. Malformed payloads never
// reach them; dropping bad input silently is the contract.
type Handlers struct {
	// Static is called with the raw 0-255 value list of a static message.
	Static func(values []uint8)

	// Plan is called with a decoded schedule plan.
	Plan func(plan Plan)
}

// Broker is the surface the driver loop uses for outbound traffic.
type Broker interface {
	// PublishHeartbeat sends the periodic device heartbeat.
	PublishHeartbeat(mode string, uptimeSec int64) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// heartbeat is the payload published on the heartbeat topic.
type heartbeat struct {
	DeviceID string `json:"device_id"`
	Uptime   int64  `json:"uptime"`
	Firmware string `json:"firmware"`
	Mode     string `json:"mode"`
}

// FormatHeartbeat creates the JSON heartbeat payload.
func FormatHeartbeat(deviceID, firmware, mode string, uptimeSec int64) ([]byte, error) {
	return json.Marshal(heartbeat{
		DeviceID: deviceID,
		Uptime:   uptimeSec,
		Firmware: firmware,
		Mode:     mode,
	})
}
