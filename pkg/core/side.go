package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nikolaydubina/fpdecimal"
)

// OrderSide holds one side (bid or ask) of an order book: a price-sorted
// slice of the currently active orders plus an id table covering every
// order added to this side until it is purged with Remove.
//
// Invariant: an order is present in the sorted slice iff its status is
// active. The id table is a superset of the sorted slice's membership.
type OrderSide struct {
	side   Side
	orders []*Order
	byID   map[int64]*Order
}

// NewOrderSide creates an empty index for the given side
func NewOrderSide(side Side) *OrderSide {
	return &OrderSide{
		side: side,
		byID: make(map[int64]*Order),
	}
}

// Side returns the configured side of the index
func (s *OrderSide) Side() Side {
	return s.side
}

// Add registers the order in the id table and, if the order is active,
// inserts it into the sorted slice.
func (s *OrderSide) Add(order *Order) error {
	if order.Side() != s.side {
		return ErrSideMismatch
	}

	s.byID[order.ID()] = order
	if order.IsActive() {
		s.insert(order)
	}

	return nil
}

// insert places the order into the sorted slice. Newcomers go after
// existing orders of the same price, so equal-price ties keep insertion
// order.
func (s *OrderSide) insert(order *Order) {
	i := sort.Search(len(s.orders), func(i int) bool {
		return s.orders[i].Price().GreaterThan(order.Price())
	})

	s.orders = append(s.orders, nil)
	copy(s.orders[i+1:], s.orders[i:])
	s.orders[i] = order
}

// unlink removes the order from the sorted slice, if present
func (s *OrderSide) unlink(order *Order) bool {
	i := sort.Search(len(s.orders), func(i int) bool {
		return !s.orders[i].Price().LessThan(order.Price())
	})

	for ; i < len(s.orders) && s.orders[i].Price().Equal(order.Price()); i++ {
		if s.orders[i].ID() == order.ID() {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return true
		}
	}

	return false
}

// OrdersAtOrAbove returns the active orders with price >= the given price.
// Used to find the bids acceptable to an incoming ask.
func (s *OrderSide) OrdersAtOrAbove(price fpdecimal.Decimal) []*Order {
	i := sort.Search(len(s.orders), func(i int) bool {
		return !s.orders[i].Price().LessThan(price)
	})

	matched := make([]*Order, len(s.orders)-i)
	copy(matched, s.orders[i:])
	return matched
}

// OrdersAtOrBelow returns the active orders with price <= the given price.
// Used to find the asks acceptable to an incoming bid.
func (s *OrderSide) OrdersAtOrBelow(price fpdecimal.Decimal) []*Order {
	i := sort.Search(len(s.orders), func(i int) bool {
		return s.orders[i].Price().GreaterThan(price)
	})

	matched := make([]*Order, i)
	copy(matched, s.orders[:i])
	return matched
}

// Fill decreases the order's remaining volume. A full fill transitions the
// order to Filled and removes it from the sorted slice; a partial fill
// leaves it resting as PartiallyFilled. Position is unaffected since the
// price does not change.
func (s *OrderSide) Fill(order *Order, volume fpdecimal.Decimal) error {
	if !order.IsActive() {
		return ErrNotActive
	}

	if volume.LessThanOrEqual(fpdecimal.Zero) || volume.GreaterThan(order.Volume()) {
		return ErrInsufficientVolume
	}

	order.decreaseVolume(volume)
	if order.Volume().Equal(fpdecimal.Zero) {
		order.setStatus(StatusFilled)
		s.unlink(order)
	} else {
		order.setStatus(StatusPartiallyFilled)
	}

	return nil
}

// Cancel removes an active order from the sorted slice and marks it Cancelled
func (s *OrderSide) Cancel(order *Order) error {
	return s.unlist(order, StatusCancelled)
}

// Expire removes an active order from the sorted slice and marks it Expired
func (s *OrderSide) Expire(order *Order) error {
	return s.unlist(order, StatusExpired)
}

func (s *OrderSide) unlist(order *Order, status Status) error {
	if !order.IsActive() {
		return ErrNotActive
	}

	s.unlink(order)
	order.setStatus(status)
	return nil
}

// Restore re-enters a Cancelled or Expired order into the sorted slice with
// a fresh listed timestamp. Filled orders cannot be restored: their volume
// is gone, so they are rejected with ErrNotActive.
func (s *OrderSide) Restore(order *Order) error {
	if order.IsActive() {
		return ErrAlreadyActive
	}

	if order.Status() == StatusFilled {
		return ErrNotActive
	}

	order.setStatus(StatusRestored)
	order.relist()
	s.insert(order)
	return nil
}

// Modify updates the order's price and/or volume. A nil argument leaves the
// field untouched. An active order is pulled out of the sorted slice and
// relisted at its new position; an inactive order is updated in place and
// keeps its terminal status.
func (s *OrderSide) Modify(order *Order, price, volume *fpdecimal.Decimal) error {
	if price != nil && price.LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidOrder
	}

	if volume != nil && volume.LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidOrder
	}

	active := order.IsActive()
	if active {
		s.unlink(order)
	}

	if price != nil {
		order.setPrice(*price)
	}
	if volume != nil {
		order.setVolume(*volume)
	}

	if active {
		order.setStatus(StatusModified)
		order.relist()
		s.insert(order)
	}

	return nil
}

// Remove purges the order from both the sorted slice and the id table.
// Gone means gone: the order can no longer be addressed by id.
func (s *OrderSide) Remove(order *Order) {
	if order.IsActive() {
		s.unlink(order)
	}
	delete(s.byID, order.ID())
}

// Get returns the order with the given id, active or not, or nil
func (s *OrderSide) Get(id int64) *Order {
	return s.byID[id]
}

// Len returns the number of active orders resting in the index
func (s *OrderSide) Len() int {
	return len(s.orders)
}

// Known returns the number of orders in the id table, terminal ones included
func (s *OrderSide) Known() int {
	return len(s.byID)
}

// Orders returns a snapshot of the active orders in price order
func (s *OrderSide) Orders() []*Order {
	snapshot := make([]*Order, len(s.orders))
	copy(snapshot, s.orders)
	return snapshot
}

// Clear drops every order, active and terminal
func (s *OrderSide) Clear() {
	s.orders = nil
	s.byID = make(map[int64]*Order)
}

// String implements fmt.Stringer interface
func (s *OrderSide) String() string {
	sb := strings.Builder{}
	for _, order := range s.orders {
		sb.WriteString(fmt.Sprintf("\n%s -> volume: %s (order %d)", order.Price(), order.Volume(), order.ID()))
	}
	return sb.String()
}
