package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"lollipop-server/internal/config"
	"lollipop-server/internal/modules/lollipop/types"
)

// ErrNotConnected is returned by Publish while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt client not connected")

const (
	publishQoS     = byte(1) // At least once delivery
	publishTimeout = 2 * time.Second
)

// Publisher broadcasts selection events. A Publisher built with an empty
// broker is disabled: Connect and Publish succeed without doing anything.
type Publisher struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if cfg.MQTTBroker == "" {
		return p
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Enabled reports whether a broker is configured.
func (p *Publisher) Enabled() bool { return p.client != nil }

// Connect establishes the broker connection. It returns when connected, when
// ctx is done, or after Disconnect. When ctx ends first the client keeps
// retrying in the background and events flow once the broker is reachable.
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.Enabled() {
		p.logger.Info("mqtt disabled (MQTT_BROKER empty)")
		return nil
	}

	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			p.client.Disconnect(0)
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// Publish sends ev to the configured topic at QoS 1.
func (p *Publisher) Publish(ctx context.Context, ev types.SelectionEvent) error {
	if !p.Enabled() {
		return nil
	}
	if !p.IsConnected() {
		return ErrNotConnected
	}

	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.cfg.MQTTTopic, publishQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", p.cfg.MQTTTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.MQTTTopic, err)
	}

	p.logger.Debug("published selection event",
		"topic", p.cfg.MQTTTopic,
		"session_id", ev.SessionID,
		"gesture", ev.Gesture,
		"selected", ev.Selected,
	)
	return nil
}

func encodeEvent(ev types.SelectionEvent) ([]byte, error) {
	if ev.SessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	if ev.Selected != (ev.Sample != nil) {
		return nil, fmt.Errorf("selected=%v does not match sample presence", ev.Selected)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode selection event: %w", err)
	}
	return b, nil
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	if !p.Enabled() {
		return false
	}
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if !p.Enabled() {
		return
	}

	// Disconnect without holding p.mu to avoid lock contention/deadlocks.
	p.client.Disconnect(250)

	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
