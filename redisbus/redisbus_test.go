package redisbus

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dcshock/corridor/event"
	"github.com/dcshock/corridor/pipeline"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	message []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
		return cmd
	}
	p.mu.Lock()
	p.msgs = append(p.msgs, published{channel: channel, message: message.([]byte)})
	p.mu.Unlock()
	cmd.SetVal(1)
	return cmd
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestForwarder_PublishesTaskEvents(t *testing.T) {
	pub := &fakePublisher{}
	fwd, err := New(Config{Client: pub})
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel, fwd.Channel())

	task := pipeline.NewTask("t1").Action(pipeline.Identity())
	off := fwd.Forward(task.Events())
	defer off()

	_, err = task.Execute(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, pub.msgs, 6)
	for _, m := range pub.msgs {
		assert.Equal(t, DefaultChannel, m.channel)
	}
	first, err := Decode(pub.msgs[0].message)
	require.NoError(t, err)
	assert.Equal(t, "task:t1:pre:start", first.Topic)
	assert.Equal(t, "t1", first.Name)
	assert.NotEmpty(t, first.RunID)
}

func TestEncode_ErrorPayload(t *testing.T) {
	msg, err := Encode(event.Event{Topic: "task:t:fail", Payload: errors.New("boom"), Elapsed: time.Second})
	require.NoError(t, err)

	e, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, "boom", e.Payload)
	assert.Equal(t, time.Second, e.Elapsed)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(event.Event{Topic: "x", Payload: func() {}})
	assert.Error(t, err)
}

func TestForwarder_LogsPublishFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fwd, err := New(Config{Client: &fakePublisher{err: errors.New("connection refused")}, Channel: "c", Logger: logger})
	require.NoError(t, err)

	bus := event.NewBus()
	fwd.Forward(bus)
	bus.Emit(event.Event{Topic: "cancel:t", Name: "t", Phase: event.PhaseCancel, Payload: "why"})

	assert.Contains(t, buf.String(), "failed to publish event")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
