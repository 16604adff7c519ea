package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/T1r3sh/OrderBook/pkg/messaging"
)

var (
	brokerList = "localhost:9092"
	topic      = "order-trades"
)

// SetBrokerList overrides the default Kafka broker address
func SetBrokerList(brokers string) {
	brokerList = brokers
}

// SetTopic overrides the default Kafka topic
func SetTopic(t string) {
	topic = t
}

// QueueMessageSender implements the MessageSender interface on top of a
// sarama synchronous producer.
type QueueMessageSender struct {
	producer sarama.SyncProducer
}

// NewQueueMessageSender creates a sender with its own producer
func NewQueueMessageSender() (*QueueMessageSender, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer([]string{brokerList}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &QueueMessageSender{producer: producer}, nil
}

// newQueueMessageSenderWithProducer is used by tests to inject a producer
func newQueueMessageSenderWithProducer(producer sarama.SyncProducer) *QueueMessageSender {
	return &QueueMessageSender{producer: producer}
}

// SendTradeMessages publishes the drained trades to the Kafka topic
func (q *QueueMessageSender) SendTradeMessages(_ context.Context, trades []messaging.TradeMessage) error {
	if len(trades) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(trades))
	for _, trade := range trades {
		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade message: %w", err)
		}

		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%d", trade.TakerOrderID)),
			Value: sarama.ByteEncoder(data),
		})
	}

	if err := q.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to send messages to Kafka: %w", err)
	}

	return nil
}

// Close closes the underlying producer
func (q *QueueMessageSender) Close() error {
	return q.producer.Close()
}

// Ensure QueueMessageSender implements MessageSender
var _ messaging.MessageSender = (*QueueMessageSender)(nil)
