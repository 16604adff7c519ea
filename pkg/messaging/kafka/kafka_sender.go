package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/T1r3sh/OrderBook/pkg/messaging"
	"github.com/segmentio/kafka-go"
)

// KafkaMessageSender implements MessageSender using kafka-go
type KafkaMessageSender struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaMessageSender creates a new Kafka message sender
func NewKafkaMessageSender(brokerAddr, topic string) (*KafkaMessageSender, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaMessageSender{
		writer: writer,
		topic:  topic,
	}, nil
}

// SendTradeMessages sends the drained trades to Kafka, keyed by taker id
// so executions of one aggressor land on one partition in order.
func (k *KafkaMessageSender) SendTradeMessages(ctx context.Context, trades []messaging.TradeMessage) error {
	if len(trades) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(trades))
	for _, trade := range trades {
		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade message: %w", err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(trade.TakerOrderID, 10)),
			Value: data,
			Time:  trade.Time,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to send messages to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (k *KafkaMessageSender) Close() error {
	return k.writer.Close()
}

// Ensure KafkaMessageSender implements MessageSender
var _ messaging.MessageSender = (*KafkaMessageSender)(nil)
