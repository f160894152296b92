// Package redisbus forwards pipeline lifecycle events to a Redis pub/sub
// channel so other processes can follow executions.
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	fwd, err := redisbus.New(redisbus.Config{Client: client})
//	...
//	off := fwd.Forward(runner.Events())
//	defer off()
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcshock/corridor/event"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when Config.Channel is empty.
const DefaultChannel = "corridor:events"

// Publisher is the part of a Redis client the forwarder needs.
// *redis.Client and redis.UniversalClient satisfy it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Config holds configuration for a Forwarder.
type Config struct {
	// Client publishes the messages
	Client Publisher
	// Channel is the pub/sub channel (default DefaultChannel)
	Channel string
	// Timeout bounds each PUBLISH (default 2s)
	Timeout time.Duration
	// Logger receives publish failures (default slog.Default())
	Logger *slog.Logger
}

// Forwarder publishes events as JSON messages.
type Forwarder struct {
	client  Publisher
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Forwarder for cfg.
func New(cfg Config) (*Forwarder, error) {
	if cfg.Client == nil {
		return nil, errors.New("redisbus: client is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Forwarder{
		client:  cfg.Client,
		channel: cfg.Channel,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With("component", "redisbus", "channel", cfg.Channel),
	}, nil
}

// Channel returns the channel events are published to.
func (f *Forwarder) Channel() string { return f.channel }

// Handle publishes e. Failures are logged, never returned, so a Redis outage
// does not fail the execution that emitted e.
func (f *Forwarder) Handle(e event.Event) {
	if err := f.Publish(context.Background(), e); err != nil {
		f.logger.Warn("failed to publish event", "topic", e.Topic, "run_id", e.RunID, "error", err)
	}
}

// Publish encodes e and publishes it.
func (f *Forwarder) Publish(ctx context.Context, e event.Event) error {
	msg, err := Encode(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.client.Publish(ctx, f.channel, msg).Err(); err != nil {
		return fmt.Errorf("redisbus: publish %s: %w", e.Topic, err)
	}
	return nil
}

// Forward subscribes the forwarder to every event of em.
func (f *Forwarder) Forward(em event.Emitter) (off func()) {
	return em.On(event.All, f.Handle)
}

// Encode returns the JSON message for e. An error payload is encoded as its message.
func Encode(e event.Event) ([]byte, error) {
	if err, ok := e.Payload.(error); ok {
		e.Payload = err.Error()
	}
	msg, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("redisbus: encode %s: %w", e.Topic, err)
	}
	return msg, nil
}

// Decode parses a message produced by Encode.
func Decode(msg []byte) (event.Event, error) {
	var e event.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		return event.Event{}, fmt.Errorf("redisbus: decode: %w", err)
	}
	return e, nil
}

var _ Publisher = redis.UniversalClient(nil)
