package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"avatar-chat/internal/model"
)

// TurnHandler processes one completed chat turn. A returned error rejects the
// delivery without requeueing it.
type TurnHandler func(ctx context.Context, event model.TurnEvent) error

type TurnEventWorker struct {
	conn      *amqp.Connection
	queueName string
	handle    TurnHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnEventWorker(conn *amqp.Connection, queueName string, handle TurnHandler) *TurnEventWorker {
	if handle == nil {
		handle = LogTurn
	}
	return &TurnEventWorker{
		conn:      conn,
		queueName: queueName,
		handle:    handle,
	}
}

func (w *TurnEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *TurnEventWorker) process(ctx context.Context, d amqp.Delivery) {
	var event model.TurnEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		slog.Error("worker decode turn event failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.handle(ctx, event); err != nil {
		slog.Error("worker handle turn event failed", "history_id", event.HistoryID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *TurnEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// LogTurn records the turn as a structured audit line.
func LogTurn(ctx context.Context, event model.TurnEvent) error {
	slog.InfoContext(ctx, "chat turn completed",
		"history_id", event.HistoryID,
		"user_id", event.UserID,
		"query_len", len(event.Query),
		"response_len", len(event.Response),
		"audio_url", event.AudioURL,
		"created_at", event.CreatedAt,
	)
	return nil
}
