package messaging

import (
	"context"
	"time"
)

// MessageSender defines an interface for publishing executed trades.
// It decouples the core package from specific transports like Kafka.
type MessageSender interface {
	SendTradeMessages(ctx context.Context, trades []TradeMessage) error
	Close() error
}

// TradeMessage is the wire representation of a single executed trade
// drained from the book's tape.
type TradeMessage struct {
	TakerOrderID int64     `json:"takerOrderId"`
	MakerOrderID int64     `json:"makerOrderId"`
	Price        string    `json:"price"`
	Volume       string    `json:"volume"`
	Time         time.Time `json:"time"`
}
