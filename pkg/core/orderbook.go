package core

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nikolaydubina/fpdecimal"
)

// IDSource supplies unique positive order ids. Implementations live
// outside the engine (see pkg/id); the book never performs I/O itself
// beyond what the source does.
type IDSource interface {
	Next() (int64, error)
}

// OrderBook orchestrates one bid index and one ask index under price-time
// priority and accumulates executed trades on a drainable tape.
//
// All public operations lock the whole book: one logical operation is in
// flight at a time, which is the unit of mutual exclusion required when
// the book is embedded in a concurrent service. Books for different
// instruments need no coordination.
type OrderBook struct {
	mu   sync.Mutex
	ids  IDSource
	bid  *OrderSide
	ask  *OrderSide
	tape []Trade
}

// NewOrderBook creates an empty book drawing order ids from the given source
func NewOrderBook(ids IDSource) *OrderBook {
	return &OrderBook{
		ids: ids,
		bid: NewOrderSide(Bid),
		ask: NewOrderSide(Ask),
	}
}

// Submit assigns the order an id and a listed timestamp, inserts it into
// its side's index and runs the match/fill loop against the opposite side.
// The order object becomes owned by the book. Any unfilled remainder stays
// resting in its own index.
func (b *OrderBook) Submit(order *Order) error {
	if order == nil || order.ID() != 0 {
		return ErrInvalidOrder
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.ids.Next()
	if err != nil {
		return err
	}
	order.setID(id)
	order.relist()

	if err := b.sideOf(order.Side()).Add(order); err != nil {
		return err
	}

	return b.matchAndFill(order)
}

// match returns the resting counter-orders economically acceptable to the
// aggressor, sorted by listed time ascending. The candidate set is NOT
// re-sorted by price after the range query; when several price levels are
// acceptable, the oldest listing wins regardless of price. Listing time is
// the book's only tie-break.
func (b *OrderBook) match(order *Order) []*Order {
	var matched []*Order
	if order.Side() == Ask {
		matched = b.bid.OrdersAtOrAbove(order.Price())
	} else {
		matched = b.ask.OrdersAtOrBelow(order.Price())
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Listed().Before(matched[j].Listed())
	})

	return matched
}

// fill trades the aggressor against the candidates in order, at the
// counter (maker) order's price, until the aggressor's volume is gone or
// the candidates are exhausted. One tape record per executed match.
func (b *OrderBook) fill(order *Order, counterOrders []*Order) error {
	if len(counterOrders) == 0 {
		return nil
	}

	own := b.sideOf(order.Side())
	counter := b.sideOf(order.Side().Opposite())

	for _, c := range counterOrders {
		price := c.Price()
		volume := minDecimal(order.Volume(), c.Volume())

		if err := own.Fill(order, volume); err != nil {
			return err
		}
		if err := counter.Fill(c, volume); err != nil {
			return err
		}

		b.tape = append(b.tape, Trade{
			TakerOrderID: order.ID(),
			MakerOrderID: c.ID(),
			Price:        price,
			Volume:       volume,
			Time:         time.Now(),
		})

		if order.Status() == StatusFilled {
			break
		}
	}

	return nil
}

func (b *OrderBook) matchAndFill(order *Order) error {
	return b.fill(order, b.match(order))
}

// Get returns the order with the given id from either side, or nil
func (b *OrderBook) Get(id int64) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, _, _ := b.resolve(id)
	return order
}

// Cancel removes an active order from the book, keeping it addressable by id
func (b *OrderBook) Cancel(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, side, err := b.resolve(id)
	if err != nil {
		return err
	}
	return side.Cancel(order)
}

// Expire removes an active order from the book with Expired status
func (b *OrderBook) Expire(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, side, err := b.resolve(id)
	if err != nil {
		return err
	}
	return side.Expire(order)
}

// Restore relists a Cancelled or Expired order and treats it exactly like
// a fresh submission for matching purposes.
func (b *OrderBook) Restore(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, side, err := b.resolve(id)
	if err != nil {
		return err
	}
	if err := side.Restore(order); err != nil {
		return err
	}
	return b.matchAndFill(order)
}

// Modify changes the order's price and/or volume (nil leaves a field
// untouched) and re-runs matching, since the change can create new matches.
func (b *OrderBook) Modify(id int64, price, volume *fpdecimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, side, err := b.resolve(id)
	if err != nil {
		return err
	}
	if err := side.Modify(order, price, volume); err != nil {
		return err
	}
	if !order.IsActive() {
		return nil
	}
	return b.matchAndFill(order)
}

// Remove purges the order from the book permanently. No matching re-run.
func (b *OrderBook) Remove(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, side, err := b.resolve(id)
	if err != nil {
		return err
	}
	side.Remove(order)
	return nil
}

// SweepTerminal purges terminal orders whose last update is older than the
// given cutoff and returns how many were removed. Maintenance helper for
// the surrounding application; not part of the matching contract.
func (b *OrderBook) SweepTerminal(olderThan time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, side := range []*OrderSide{b.bid, b.ask} {
		for id, order := range side.byID {
			if !order.IsActive() && order.Updated().Before(olderThan) {
				delete(side.byID, id)
				removed++
			}
		}
	}
	return removed
}

// DrainTape atomically returns the accumulated trades and clears the tape.
// Records are returned exactly once.
func (b *OrderBook) DrainTape() []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	tape := b.tape
	b.tape = nil
	return tape
}

// Len returns the number of active orders resting on the given side
func (b *OrderBook) Len(side Side) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sideOf(side).Len()
}

// Orders returns a price-ordered snapshot of the given side's active orders
func (b *OrderBook) Orders(side Side) []*Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sideOf(side).Orders()
}

// resolve finds an order by id. Ids are globally unique, so checking both
// sides is unambiguous and callers never need to name a side.
func (b *OrderBook) resolve(id int64) (*Order, *OrderSide, error) {
	if order := b.bid.Get(id); order != nil {
		return order, b.bid, nil
	}
	if order := b.ask.Get(id); order != nil {
		return order, b.ask, nil
	}
	return nil, nil, ErrNotFound
}

func (b *OrderBook) sideOf(side Side) *OrderSide {
	if side == Bid {
		return b.bid
	}
	return b.ask
}

// String implements fmt.Stringer interface
func (b *OrderBook) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	builder := strings.Builder{}
	builder.WriteString("Ask:")
	builder.WriteString(b.ask.String())
	builder.WriteString("\nBid:")
	builder.WriteString(b.bid.String())
	builder.WriteString("\n")
	return builder.String()
}

// minDecimal returns the minimum of two decimals
func minDecimal(a, b fpdecimal.Decimal) fpdecimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
