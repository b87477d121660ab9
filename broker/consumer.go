package broker

import (
	"log"

	"github.com/nats-io/nats.go"
)

// Consumer subscribes broker subjects and forwards raw payloads to a
// handler, typically the WebSocket broadcast.
type Consumer struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func NewConsumer(url string) (*Consumer, error) {
	conn, err := nats.Connect(url,
		nats.Name("tasknest-consumer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{conn: conn}, nil
}

func (c *Consumer) Subscribe(subject string, handler func([]byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)
	log.Printf("Subscribed to %s", subject)
	return nil
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Failed to unsubscribe from %s: %v", sub.Subject, err)
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
