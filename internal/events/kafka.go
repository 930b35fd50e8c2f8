package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaEmitter publishes events to Kafka, one topic per event name.
type KafkaEmitter struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func NewKafkaEmitter(brokers []string, log *zap.Logger) (*KafkaEmitter, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &KafkaEmitter{
		producer: producer,
		log:      log.With(zap.String("emitter", "kafka")),
	}, nil
}

func (e *KafkaEmitter) Emit(ctx context.Context, event string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.log.Error("Failed to marshal event payload",
			zap.Error(err),
			zap.String("event", event),
		)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic:     event,
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}

	if _, _, err := e.producer.SendMessage(msg); err != nil {
		e.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("event", event),
		)
		return
	}

	e.log.Info("Event published", zap.String("event", event))
}

func (e *KafkaEmitter) Close() error {
	return e.producer.Close()
}
