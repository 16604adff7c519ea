package core

import (
	"encoding/json"
	"time"

	"github.com/nikolaydubina/fpdecimal"
)

// Side represents bid or ask side of the book
type Side int

// Order sides
const (
	Ask Side = iota
	Bid
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Ask:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Status represents the lifecycle state of an order
type Status int

// Order statuses
const (
	StatusCreated Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusModified
	StatusCancelled
	StatusRestored
	StatusExpired
)

// String returns status as string
func (st Status) String() string {
	switch st {
	case StatusCreated:
		return "CREATED"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusModified:
		return "MODIFIED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRestored:
		return "RESTORED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// IsActive reports whether an order in this status belongs to the sorted
// part of a side index. Cancelled, Expired and Filled orders are only
// reachable through the id table.
func (st Status) IsActive() bool {
	switch st {
	case StatusCreated, StatusPartiallyFilled, StatusModified, StatusRestored:
		return true
	}
	return false
}

// Order stores information about a single limit order. The id is assigned
// by the book on submission and never reused. All field mutation goes
// through OrderSide and OrderBook operations, which keep `updated` fresh.
type Order struct {
	id      int64
	side    Side
	price   fpdecimal.Decimal
	volume  fpdecimal.Decimal
	owner   string
	status  Status
	created time.Time
	updated time.Time
	listed  time.Time
}

// NewOrder creates a new limit order in Created status. The id is zero
// until the order is submitted to a book.
func NewOrder(side Side, price, volume fpdecimal.Decimal, owner string) (*Order, error) {
	if volume.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidOrder
	}

	if price.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidOrder
	}

	now := time.Now()

	return &Order{
		side:    side,
		price:   price,
		volume:  volume,
		owner:   owner,
		status:  StatusCreated,
		created: now,
		updated: now,
		listed:  now,
	}, nil
}

// ID returns id field copy
func (o *Order) ID() int64 {
	return o.id
}

// Side returns side of the Order
func (o *Order) Side() Side {
	return o.side
}

// Price returns price field copy
func (o *Order) Price() fpdecimal.Decimal {
	return o.price
}

// Volume returns the remaining unfilled volume
func (o *Order) Volume() fpdecimal.Decimal {
	return o.volume
}

// Owner returns the opaque identifier of the submitting party
func (o *Order) Owner() string {
	return o.owner
}

// Status returns status field copy
func (o *Order) Status() Status {
	return o.status
}

// IsActive reports whether the order currently rests in the sorted index
func (o *Order) IsActive() bool {
	return o.status.IsActive()
}

// Created returns the creation timestamp
func (o *Order) Created() time.Time {
	return o.created
}

// Updated returns the timestamp of the last field mutation
func (o *Order) Updated() time.Time {
	return o.updated
}

// Listed returns the timestamp of the last (re-)entry into the sorted index
func (o *Order) Listed() time.Time {
	return o.listed
}

// touch refreshes the updated timestamp. Every mutator below calls it.
func (o *Order) touch() {
	o.updated = time.Now()
}

func (o *Order) setID(id int64) {
	o.id = id
	o.touch()
}

func (o *Order) setStatus(status Status) {
	o.status = status
	o.touch()
}

func (o *Order) setPrice(price fpdecimal.Decimal) {
	o.price = price
	o.touch()
}

func (o *Order) setVolume(volume fpdecimal.Decimal) {
	o.volume = volume
	o.touch()
}

func (o *Order) decreaseVolume(volume fpdecimal.Decimal) {
	o.volume = o.volume.Sub(volume)
	o.touch()
}

func (o *Order) relist() {
	o.listed = time.Now()
	o.touch()
}

// MarshalJSON implements json.Marshaler interface
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      int64     `json:"id"`
		Side    string    `json:"side"`
		Price   string    `json:"price"`
		Volume  string    `json:"volume"`
		Owner   string    `json:"owner"`
		Status  string    `json:"status"`
		Created time.Time `json:"created"`
		Updated time.Time `json:"updated"`
		Listed  time.Time `json:"listed"`
	}{
		ID:      o.id,
		Side:    o.side.String(),
		Price:   o.price.String(),
		Volume:  o.volume.String(),
		Owner:   o.owner,
		Status:  o.status.String(),
		Created: o.created,
		Updated: o.updated,
		Listed:  o.listed,
	})
}

// String implements fmt.Stringer interface
func (o *Order) String() string {
	j, _ := o.MarshalJSON()
	return string(j)
}
