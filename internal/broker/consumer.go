package broker

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	Deliveries <-chan amqp.Delivery
}

// NewConsumer consome a fila em auto-ack; o ws só repassa, não reprocessa.
func NewConsumer(uri, queue, tag string, prefetch int) (*Consumer, error) {
	conn, ch, err := dialQueue(uri, queue)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(
		queue,
		tag,
		true, false, false, false, nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, Deliveries: deliveries}, nil
}

func (c *Consumer) Close() error {
	return errors.Join(c.ch.Close(), c.conn.Close())
}
