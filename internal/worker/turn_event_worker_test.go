package worker

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/model"
)

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error {
	return nil
}

func TestProcessAcksHandledEvent(t *testing.T) {
	var got []model.TurnEvent
	w := NewTurnEventWorker(nil, "chat.turn.completed", func(_ context.Context, event model.TurnEvent) error {
		got = append(got, event)
		return nil
	})

	ack := &fakeAcknowledger{}
	w.process(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"history_id":7,"user_id":3,"query":"hi","response":"hello","audio_url":"/audio/response.mp3"}`),
	})

	require.Len(t, got, 1)
	assert.EqualValues(t, 7, got[0].HistoryID)
	assert.EqualValues(t, 3, got[0].UserID)
	assert.Equal(t, "/audio/response.mp3", got[0].AudioURL)
	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
}

func TestProcessDropsUndecodableEvent(t *testing.T) {
	called := false
	w := NewTurnEventWorker(nil, "q", func(context.Context, model.TurnEvent) error {
		called = true
		return nil
	})

	ack := &fakeAcknowledger{}
	w.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.False(t, called)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestProcessNacksHandlerFailure(t *testing.T) {
	w := NewTurnEventWorker(nil, "q", func(context.Context, model.TurnEvent) error {
		return errors.New("sink unavailable")
	})

	ack := &fakeAcknowledger{}
	w.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{"history_id":1}`)})

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
}

func TestDefaultHandlerLogs(t *testing.T) {
	w := NewTurnEventWorker(nil, "q", nil)
	ack := &fakeAcknowledger{}
	w.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{"history_id":1,"user_id":1}`)})
	assert.Equal(t, 1, ack.acked)
}
