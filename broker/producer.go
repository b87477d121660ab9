package broker

import (
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher is the send-side capability handed to services. Publishing is
// best-effort: a failed publish never fails the request that triggered it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Producer struct {
	conn *nats.Conn
}

func NewProducer(url string) (*Producer, error) {
	conn, err := nats.Connect(url,
		nats.Name("tasknest-producer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS at %s", url)
	return &Producer{conn: conn}, nil
}

func (p *Producer) Publish(subject string, data []byte) error {
	return p.conn.Publish(subject, data)
}

func (p *Producer) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		log.Printf("Failed to drain NATS connection: %v", err)
	}
}
