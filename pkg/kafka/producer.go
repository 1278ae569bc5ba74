package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Shopify/sarama"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// AlertPublisher publishes an OverloadAlert for every High risk district of a completed run.
type AlertPublisher struct {
	producer sarama.SyncProducer
	topic    string

	mu     sync.Mutex
	closed bool
}

// ErrPublisherClosed is returned when alerts are published after Close.
var ErrPublisherClosed = errors.New("kafka alert publisher is closed")

// NewAlertPublisher connects a synchronous producer to brokers.
func NewAlertPublisher(brokers []string, topic string) (*AlertPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewAlertPublisherWithProducer(producer, topic), nil
}

// NewAlertPublisherWithProducer wraps an existing producer.
func NewAlertPublisherWithProducer(producer sarama.SyncProducer, topic string) *AlertPublisher {
	return &AlertPublisher{producer: producer, topic: topic}
}

// Name implements services.PostRunHook.
func (p *AlertPublisher) Name() string { return "kafka-alerts" }

// OnForecastCompleted sends one message per High risk district, keyed by district.
func (p *AlertPublisher) OnForecastCompleted(ctx context.Context, state *models.FutureState) error {
	alerts := OverloadAlerts(state)
	if len(alerts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(alerts))
	for _, alert := range alerts {
		value, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(alert.District),
			Value: sarama.ByteEncoder(value),
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to publish %d overload alerts: %w", len(msgs), err)
	}
	log.Printf("[kafka] published %d overload alerts to %s", len(msgs), p.topic)
	return nil
}

// OverloadAlerts selects the High risk forecasts of state.
func OverloadAlerts(state *models.FutureState) []models.OverloadAlert {
	if state == nil {
		return nil
	}
	generated := state.GeneratedAt.UTC().Format(time.RFC3339)
	var alerts []models.OverloadAlert
	for _, f := range state.DistrictPredictions {
		if f.RiskLevel != models.RiskHigh {
			continue
		}
		alerts = append(alerts, models.OverloadAlert{
			District:           f.District,
			TargetDate:         f.TargetDate,
			RiskScore:          f.RiskScore,
			LoadPercentage:     f.LoadPercentage,
			LoadGapKVA:         f.LoadGapKVA,
			TransformersNeeded: f.TransformersNeeded,
			GeneratedAt:        generated,
		})
	}
	return alerts
}

// Close waits for an in-progress send, then flushes and closes the producer.
// Later publishes return ErrPublisherClosed.
func (p *AlertPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}
