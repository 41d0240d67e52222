package service

import (
	"encoding/json"
	"fmt"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickPublisher fans committed click events out to NATS JetStream for
// downstream consumers. The event is already durable in Postgres by the
// time it is published; losing a publish loses only the fan-out copy.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a publisher and provisions the click stream if
// it does not exist yet.
func NewClickPublisher(js nats.JetStreamContext) (*ClickPublisher, error) {
	if _, err := js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("create click stream: %w", err)
		}
	}
	return &ClickPublisher{js: js}, nil
}

// Publish emits one committed click event to the stream.
func (p *ClickPublisher) Publish(event *model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
