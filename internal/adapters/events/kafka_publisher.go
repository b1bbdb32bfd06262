package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"affiliatehub/internal/core/domain"

	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer          *kafka.Writer
	activationTopic string
}

func NewKafkaPublisher(brokers []string, activationTopic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if activationTopic == "" {
		return nil, fmt.Errorf("kafka publisher requires an activation topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		activationTopic: activationTopic,
	}, nil
}

// PublishActivation writes the event keyed by code so one code stays on one partition
func (p *KafkaPublisher) PublishActivation(ctx context.Context, event domain.ActivationEvent) error {
	payload, err := encodeActivation(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.activationTopic,
		Key:   []byte(event.Code),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeActivation(event domain.ActivationEvent) ([]byte, error) {
	if event.Code == "" {
		return nil, fmt.Errorf("activation event without code")
	}
	return json.Marshal(event)
}
