package service

import (
	"encoding/json"
	"fmt"

	"inkwell/internal/logger"
	"inkwell/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CommentWorker consumes comment events from RabbitMQ and pushes them to the
// websocket room of the commented item.
type CommentWorker struct {
	rabbitMQ    *util.RabbitMQClient
	broadcaster Broadcaster
	stopChan    chan struct{}
}

func NewCommentWorker(rabbitMQ *util.RabbitMQClient, broadcaster Broadcaster) *CommentWorker {
	return &CommentWorker{
		rabbitMQ:    rabbitMQ,
		broadcaster: broadcaster,
		stopChan:    make(chan struct{}),
	}
}

// Start declares the comment topology and consumes in a goroutine.
func (w *CommentWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil
	}

	if err := w.rabbitMQ.DeclareTopology(CommentExchange, CommentQueue, CommentRoutingKey); err != nil {
		return err
	}

	channel := w.rabbitMQ.GetChannel()
	if channel == nil {
		return fmt.Errorf("rabbitmq channel unavailable")
	}

	msgs, err := channel.Consume(
		CommentQueue,
		"comment_worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.Info().Str("queue", CommentQueue).Msg("comment worker started")
		for {
			select {
			case <-w.stopChan:
				logger.Info().Msg("comment worker stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn().Msg("comment queue closed")
					return
				}
				w.handle(msg)
			}
		}
	}()

	return nil
}

func (w *CommentWorker) handle(msg amqp.Delivery) {
	if err := w.process(msg.Body); err != nil {
		// A body that does not decode will never decode, so drop it
		logger.Error().Err(err).Msg("dropping malformed comment event")
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}

func (w *CommentWorker) process(body []byte) error {
	var event CommentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return err
	}
	if event.Comment == nil {
		return fmt.Errorf("comment event for %s:%d has no comment", event.Variant, event.ID)
	}

	broadcast(w.broadcaster, event.Variant, event.ID, "comment", event.Comment)
	logger.Debug().Str("variant", event.Variant).Uint("id", event.ID).Msg("comment pushed to room")
	return nil
}

// Stop stops the comment worker
func (w *CommentWorker) Stop() {
	close(w.stopChan)
}
