package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

const ResultCreated = "iq.result.created"

// ResultCreatedPayload is published after a session has been scored.
type ResultCreatedPayload struct {
	ResultID         uint   `json:"result_id"`
	SessionID        uint   `json:"session_id"`
	UserID           uint   `json:"user_id"`
	TestID           uint   `json:"test_id"`
	IQScore          int    `json:"iq_score"`
	PerformanceLevel string `json:"performance_level"`
}

type Publisher interface {
	Publish(eventType string, payload interface{}) error
	Close()
}

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// AMQPPublisher publishes JSON events to a topic exchange, using the event
// type as routing key.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *log.Logger
}

func NewAMQPPublisher(amqpURL, exchange string, logger *log.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return err
	}

	if p.logger != nil {
		p.logger.Printf("[EVENT] %s: %s", eventType, body)
	}

	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) error { return nil }

func (NopPublisher) Close() {}
