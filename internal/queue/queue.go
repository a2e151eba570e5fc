package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/logger"
)

const (
	TopicExchange = "pubsub_exchange"

	// RetryDelay is how long a failed message waits in the retry queue.
	RetryDelay = 10 * time.Second
)

// Publisher is the publishing half of *amqp091.Channel.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Channel is the subset of *amqp091.Channel used for declaring and
// publishing.
type Channel interface {
	Publisher
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
}

func ConnURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

// Init connects to RabbitMQ, retrying while the broker starts up.
func Init(ctx context.Context) *amqp091.Connection {
	conn, err := util.RetryWithBackoff(ctx, 5, 2*time.Second, func(context.Context) (*amqp091.Connection, error) {
		return amqp091.Dial(ConnURL())
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	return conn
}

// SetupQueues declares the topic exchange and, for every queue, the queue
// itself, a dead letter queue and a retry queue that routes messages back
// after RetryDelay.
func SetupQueues(ch Channel, queueNames []string) error {
	if err := ch.ExchangeDeclare(TopicExchange, "topic", false, true, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", TopicExchange, err)
	}

	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelay / time.Millisecond),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", retryName, err)
		}
	}
	return nil
}

func PublishFIFO(ch Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	return ch.Publish("", q.Name, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}

func PublishTopic(ch Channel, topic string, data []byte) error {
	if err := ch.ExchangeDeclare(TopicExchange, "topic", false, true, false, false, nil); err != nil {
		return err
	}

	return ch.Publish(TopicExchange, topic, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        data,
		Timestamp:   time.Now(),
	})
}

// SubscribeTopic binds a private queue to the topic pattern and calls fn
// for every message until ctx is done or the channel closes.
func SubscribeTopic(ctx context.Context, ch *amqp091.Channel, pattern string, fn func(routingKey string, body []byte)) error {
	if err := ch.ExchangeDeclare(TopicExchange, "topic", false, true, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", TopicExchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare subscriber queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, pattern, TopicExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", pattern, err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", pattern, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("[Queue] Topic subscription closed", "pattern", pattern)
					return
				}
				fn(msg.RoutingKey, msg.Body)
			}
		}
	}()
	return nil
}
