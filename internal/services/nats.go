package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// EventPublisher pushes detection events to NATS JetStream. It is
// optional: the pipeline treats a nil publisher or a failed publish as a
// logged warning, never as a pipeline failure.
type EventPublisher struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// ConnectNATS connects to NATS, initializes JetStream and ensures the
// plate-events stream exists.
func ConnectNATS(url string) (*EventPublisher, error) {
	opts := []nats.Option{
		nats.Name("plate-ingest-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("[NATS] connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	jsCtx, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	p := &EventPublisher{nc: conn, js: jsCtx}
	if err := p.ensureStream(); err != nil {
		log.Printf("[NATS] warning: failed to ensure stream: %v", err)
	}

	log.Println("[NATS] connected and JetStream initialized")
	return p, nil
}

func (p *EventPublisher) ensureStream() error {
	_, err := p.js.StreamInfo("plate-events")
	if err == nil {
		log.Printf("[NATS] stream %s already exists", "plate-events")
		return nil
	}

	streamCfg := &nats.StreamConfig{
		Name:     "plate-events",
		Subjects: []string{"plates.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	}

	_, err = p.js.AddStream(streamCfg)
	return err
}

// PublishEvent publishes a durable event, e.g. subject "plates.detected".
func (p *EventPublisher) PublishEvent(subject string, payload interface{}) error {
	if p == nil || p.js == nil {
		return errors.New("jetstream not initialized")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msgID := uuid.New().String()
	if _, err := p.js.Publish(subject, data, nats.MsgId(msgID)); err != nil {
		log.Printf("[NATS] publish failed subject=%s err=%v", subject, err)
		return err
	}
	return nil
}

// Close closes the connection.
func (p *EventPublisher) Close() {
	if p != nil && p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}
