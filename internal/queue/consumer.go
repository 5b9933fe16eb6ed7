package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/dramatis/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const maxRetries = 10

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// Consume delivers messages from queue to handle with up to concurrency
// handlers in flight. It returns when ctx is done or the delivery channel
// closes.
func Consume(ctx context.Context, conn *amqp091.Connection, queue string, concurrency int, handle Handler) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		queue,
		queue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queue, err)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", queue)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				process(ctx, ch, queue, msg, handle)
			}()
		}
	}
}

func process(ctx context.Context, ch *amqp091.Channel, queue string, msg amqp091.Delivery, handle Handler) {
	start := time.Now()
	err := handle(ctx, msg.Body)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			logger.Error("[Queue] Failed to ack message", "queue", queue, "err", err)
		}
		logger.Debug("[Queue] Message processed", "queue", queue, "duration", time.Since(start))
		return
	}

	logger.Error("[Queue] Error processing message", "queue", queue, "err", err)
	if errors.Is(err, ErrMalformed) {
		deadLetter(ctx, ch, queue, msg)
		return
	}
	handleProcessingError(ctx, ch, queue, msg)
}

// retryCount reads the x-retries header, which may arrive as any integer
// width depending on the publisher.
func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func handleProcessingError(ctx context.Context, ch *amqp091.Channel, queue string, msg amqp091.Delivery) {
	retries := retryCount(msg.Headers)
	if retries >= maxRetries {
		deadLetter(ctx, ch, queue, msg)
		return
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)

	err := ch.PublishWithContext(ctx, "", retryName(queue), false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName(queue), "err", err)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

func deadLetter(ctx context.Context, ch *amqp091.Channel, queue string, msg amqp091.Delivery) {
	logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName(queue))
	err := ch.PublishWithContext(ctx, "", dlqName(queue), false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      msg.Headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName(queue), "err", err)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
