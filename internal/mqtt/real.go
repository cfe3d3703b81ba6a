package mqtt

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/triac-dimmer/internal/logger"
)

// Config holds broker connection settings for the real client.
type Config struct {
	Broker    string
	BaseTopic string
	DeviceID  string
	Firmware  string
}

// RealClient subscribes to the control topics on an actual MQTT broker and
// publishes heartbeats.
type RealClient struct {
	client   paho.Client
	cfg      Config
	handlers Handlers
	log      *logger.Logger
	dropped  atomic.Uint64
}

// NewRealClient connects to the broker and subscribes to the set_static
// and set_plan topics. Subscriptions are re-established on every
// reconnect.
func NewRealClient(cfg Config, handlers Handlers, log *logger.Logger) (*RealClient, error) {
	c := &RealClient{cfg: cfg, handlers: handlers, log: log}

	// Unique suffix so a restarted daemon never fights its older session
	// for the client ID.
	clientID := cfg.DeviceID + "-" + strings.Split(uuid.NewString(), "-")[0]

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect)

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

func (c *RealClient) onConnect(client paho.Client) {
	staticTopic := c.cfg.BaseTopic + TopicSuffixSetStatic
	planTopic := c.cfg.BaseTopic + TopicSuffixSetPlan

	if token := client.Subscribe(staticTopic, 1, c.onStatic); token.Wait() && token.Error() != nil {
		c.log.Errorw("subscribe failed", "topic", staticTopic, "err", token.Error())
	}
	if token := client.Subscribe(planTopic, 1, c.onPlan); token.Wait() && token.Error() != nil {
		c.log.Errorw("subscribe failed", "topic", planTopic, "err", token.Error())
	}
	c.log.Infow("mqtt connected", "broker", c.cfg.Broker, "base_topic", c.cfg.BaseTopic)
}

func (c *RealClient) onStatic(_ paho.Client, msg paho.Message) {
	values, err := DecodeStatic(msg.Payload())
	if err != nil {
		c.dropped.Add(1)
		c.log.Debugw("dropped static message", "err", err)
		return
	}
	if c.handlers.Static != nil {
		c.handlers.Static(values)
	}
}

func (c *RealClient) onPlan(_ paho.Client, msg paho.Message) {
	plan, err := DecodePlan(msg.Payload(), time.Now().UnixMilli())
	if err != nil {
		c.dropped.Add(1)
		c.log.Debugw("dropped plan message", "err", err)
		return
	}
	if c.handlers.Plan != nil {
		c.handlers.Plan(plan)
	}
}

// PublishHeartbeat sends the periodic device heartbeat.
func (c *RealClient) PublishHeartbeat(mode string, uptimeSec int64) error {
	payload, err := FormatHeartbeat(c.cfg.DeviceID, c.cfg.Firmware, mode, uptimeSec)
	if err != nil {
		return fmt.Errorf("format heartbeat: %w", err)
	}

	token := c.client.Publish(c.cfg.BaseTopic+TopicSuffixHeartbeat, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish heartbeat: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Dropped returns how many malformed messages have been discarded.
func (c *RealClient) Dropped() uint64 {
	return c.dropped.Load()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000)
	return nil
}
