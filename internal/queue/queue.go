package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange carries catalogue change events.
	Exchange = "catalog"
	// ChangedTopic is the routing key of every change event.
	ChangedTopic = "catalog.changed"
	// ProjectionQueue feeds the projection worker.
	ProjectionQueue = "projection_queue"

	retryDelay = 10 * time.Second
)

type Config struct {
	User     string
	Password string
	Host     string
	Port     string
}

func ConfigFromEnv() Config {
	return Config{
		User:     util.GetEnvString("RABBITMQ_USER", "guest"),
		Password: util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		Host:     util.GetEnvString("RABBITMQ_HOST", "localhost"),
		Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
	}
}

func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// Init dials RabbitMQ, retrying while the broker comes up.
func Init(ctx context.Context, cfg Config) (*amqp091.Connection, error) {
	conn, err := util.Retry(ctx, 5, util.ExponentialBackoff(time.Second, 15*time.Second),
		func(context.Context) (*amqp091.Connection, error) {
			conn, err := amqp091.Dial(cfg.URL())
			if err != nil {
				logger.Warn("[Queue] Failed to connect to RabbitMQ", "host", cfg.Host, "err", err)
			}
			return conn, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares the change exchange and the projection queue with
// its retry and dead-letter companions.
func SetupQueues(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		ProjectionQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("queue declare %s failed: %w", ProjectionQueue, err)
	}
	if err := ch.QueueBind(ProjectionQueue, ChangedTopic, Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s failed: %w", ProjectionQueue, err)
	}

	if _, err := ch.QueueDeclare(dlqName(ProjectionQueue), true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s failed: %w", dlqName(ProjectionQueue), err)
	}

	_, err = ch.QueueDeclare(
		retryName(ProjectionQueue),
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             int32(retryDelay / time.Millisecond),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": ProjectionQueue,
		},
	)
	if err != nil {
		return fmt.Errorf("queue declare %s failed: %w", retryName(ProjectionQueue), err)
	}
	return nil
}

func dlqName(queue string) string   { return queue + "_dlq" }
func retryName(queue string) string { return queue + "_retry" }
