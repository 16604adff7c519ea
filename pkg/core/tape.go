package core

import (
	"encoding/json"
	"time"

	"github.com/T1r3sh/OrderBook/pkg/messaging"
	"github.com/nikolaydubina/fpdecimal"
)

// Trade is a single executed match, appended to the book's tape exactly
// once and immutable from then on. Price is the maker (resting) order's
// price.
type Trade struct {
	TakerOrderID int64
	MakerOrderID int64
	Price        fpdecimal.Decimal
	Volume       fpdecimal.Decimal
	Time         time.Time
}

// MarshalJSON implements json.Marshaler interface
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TakerOrderID int64     `json:"takerOrderId"`
		MakerOrderID int64     `json:"makerOrderId"`
		Price        string    `json:"price"`
		Volume       string    `json:"volume"`
		Time         time.Time `json:"time"`
	}{
		TakerOrderID: t.TakerOrderID,
		MakerOrderID: t.MakerOrderID,
		Price:        t.Price.String(),
		Volume:       t.Volume.String(),
		Time:         t.Time,
	})
}

// ToMessage converts the trade to its messaging representation
func (t Trade) ToMessage() messaging.TradeMessage {
	return messaging.TradeMessage{
		TakerOrderID: t.TakerOrderID,
		MakerOrderID: t.MakerOrderID,
		Price:        t.Price.String(),
		Volume:       t.Volume.String(),
		Time:         t.Time,
	}
}

// TradesToMessages converts a drained tape to messaging form
func TradesToMessages(trades []Trade) []messaging.TradeMessage {
	messages := make([]messaging.TradeMessage, len(trades))
	for i, t := range trades {
		messages[i] = t.ToMessage()
	}
	return messages
}
