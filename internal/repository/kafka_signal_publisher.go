package repository

import (
	"context"
	"fmt"
	"time"

	"PolyRadar/internal/domain/models"
	pkgkafka "PolyRadar/pkg/kafka"
)

const DefaultSignalTopic = "polyradar.signals"

// KafkaSignalPublisher streams evaluated signals to a Kafka topic.
// Messages are keyed by direction so consumers can partition on it.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	if topic == "" {
		topic = DefaultSignalTopic
	}
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

type signalMessage struct {
	Timestamp time.Time               `json:"ts"`
	Direction string                  `json:"direction"`
	Strength  int                     `json:"strength"`
	Score     float64                 `json:"score"`
	Regime    string                  `json:"regime"`
	Phase     string                  `json:"phase"`
	SpotPrice float64                 `json:"spot_price"`
	UpPrice   float64                 `json:"up_price"`
	DownPrice float64                 `json:"down_price"`
	Scenario  string                  `json:"scenario,omitempty"`
	Warning   bool                    `json:"warning,omitempty"`
	Components models.ComponentScores `json:"components"`
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.SignalResult) error {
	msg := signalMessage{
		Timestamp:  sig.Timestamp,
		Direction:  string(sig.Direction),
		Strength:   sig.Strength,
		Score:      sig.Score,
		Regime:     string(sig.Regime),
		Phase:      string(sig.Phase),
		SpotPrice:  sig.SpotPrice,
		UpPrice:    sig.UpPrice,
		DownPrice:  sig.DownPrice,
		Components: sig.Components,
	}
	if sig.Scenario != nil {
		msg.Scenario = sig.Scenario.Name
		msg.Warning = sig.Scenario.Warning
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(msg.Direction), msg); err != nil {
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}

// PublishMessage satisfies the logger's aggregation publisher so
// collected log batches ride the same producer.
func (p *KafkaSignalPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
