package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/T1r3sh/OrderBook/pkg/messaging"
)

var (
	senderPool   chan messaging.MessageSender
	poolInitOnce sync.Once
	maxPoolSize  = 32
)

// initSenderPool initializes the sender pool
func initSenderPool() {
	poolInitOnce.Do(func() {
		senderPool = make(chan messaging.MessageSender, maxPoolSize)
		for i := 0; i < maxPoolSize; i++ {
			sender, err := NewQueueMessageSender()
			if err != nil {
				fmt.Printf("Error creating sender: %v\n", err)
				continue
			}
			senderPool <- sender
		}
	})
}

// GetSender gets a sender from the pool
func GetSender() messaging.MessageSender {
	initSenderPool()

	select {
	case sender := <-senderPool:
		return sender
	default:
		return nil
	}
}

// ReturnSender returns a sender to the pool
func ReturnSender(sender messaging.MessageSender) {
	if sender == nil {
		return
	}

	select {
	case senderPool <- sender:
	default:
		_ = sender.Close()
	}
}

// SendTrades publishes trades using a pooled sender
func SendTrades(ctx context.Context, trades []messaging.TradeMessage) error {
	sender := GetSender()
	if sender == nil {
		return fmt.Errorf("failed to get message sender from pool")
	}

	if err := sender.SendTradeMessages(ctx, trades); err != nil {
		// Connection may be bad, drop the sender instead of pooling it back
		_ = sender.Close()
		return err
	}

	ReturnSender(sender)
	return nil
}
