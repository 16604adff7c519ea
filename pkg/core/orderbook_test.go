package core

import (
	"testing"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqIDSource hands out 1, 2, 3, ... for tests
type seqIDSource struct {
	next int64
}

func (s *seqIDSource) Next() (int64, error) {
	s.next++
	return s.next, nil
}

func newTestBook() *OrderBook {
	return NewOrderBook(&seqIDSource{})
}

// submitOrder creates and submits an order, failing the test on any error
func submitOrder(t *testing.T, book *OrderBook, side Side, price, volume float64) *Order {
	t.Helper()

	order, err := NewOrder(side, fpdecimal.FromFloat(price), fpdecimal.FromFloat(volume), "trader-1")
	require.NoError(t, err)
	require.NoError(t, book.Submit(order))
	return order
}

func TestSubmitIntoEmptyBookRests(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)

	assert.Positive(t, order.ID())
	assert.Empty(t, book.DrainTape(), "no counter-orders, no trades")
	assert.Equal(t, 1, book.Len(Bid))
	assert.Equal(t, 0, book.Len(Ask))
	assert.True(t, order.Volume().Equal(fpdecimal.FromFloat(10.0)), "full original volume must rest")
	assert.Equal(t, StatusCreated, order.Status())
}

func TestSubmitAssignsUniqueIDs(t *testing.T) {
	book := newTestBook()

	first := submitOrder(t, book, Bid, 100.0, 10.0)
	second := submitOrder(t, book, Bid, 100.0, 10.0)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, first, book.Get(first.ID()))
	assert.Same(t, second, book.Get(second.ID()))
}

func TestSubmitRejectsOwnedOrder(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)
	assert.ErrorIs(t, book.Submit(order), ErrInvalidOrder)
	assert.ErrorIs(t, book.Submit(nil), ErrInvalidOrder)
}

func TestFillUsesMakerPrice(t *testing.T) {
	book := newTestBook()

	maker := submitOrder(t, book, Bid, 105.0, 10.0)
	taker := submitOrder(t, book, Ask, 100.0, 4.0)

	tape := book.DrainTape()
	require.Len(t, tape, 1)
	assert.Equal(t, taker.ID(), tape[0].TakerOrderID)
	assert.Equal(t, maker.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Price.Equal(fpdecimal.FromFloat(105.0)), "trade executes at the resting order's price")
	assert.True(t, tape[0].Volume.Equal(fpdecimal.FromFloat(4.0)))

	assert.Equal(t, StatusFilled, taker.Status())
	assert.Equal(t, StatusPartiallyFilled, maker.Status())
	assert.True(t, maker.Volume().Equal(fpdecimal.FromFloat(6.0)))
}

func TestOldestListingFillsFirst(t *testing.T) {
	book := newTestBook()

	// The 102 bid is listed before the 101 bid
	older := submitOrder(t, book, Bid, 102.0, 10.0)
	newer := submitOrder(t, book, Bid, 101.0, 4.0)

	taker := submitOrder(t, book, Ask, 100.0, 10.0)

	// Both bids are acceptable (>= 100); the older listing wins and
	// absorbs the whole incoming ask in a single trade at its price.
	tape := book.DrainTape()
	require.Len(t, tape, 1)
	assert.Equal(t, older.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Price.Equal(fpdecimal.FromFloat(102.0)))
	assert.True(t, tape[0].Volume.Equal(fpdecimal.FromFloat(10.0)))

	assert.Equal(t, StatusFilled, taker.Status())
	assert.Equal(t, StatusFilled, older.Status())
	assert.Equal(t, StatusCreated, newer.Status())
	assert.True(t, newer.Volume().Equal(fpdecimal.FromFloat(4.0)), "the other bid must be untouched")
	assert.Equal(t, 1, book.Len(Bid))
}

func TestListedTimeBeatsPriceWithinAcceptableRange(t *testing.T) {
	book := newTestBook()

	worsePriceOlder := submitOrder(t, book, Bid, 101.0, 4.0)
	betterPriceNewer := submitOrder(t, book, Bid, 102.0, 10.0)

	submitOrder(t, book, Ask, 100.0, 4.0)

	// Candidates are sorted by listing time only, so the older 101 bid
	// fills before the better-priced 102 bid.
	tape := book.DrainTape()
	require.Len(t, tape, 1)
	assert.Equal(t, worsePriceOlder.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Price.Equal(fpdecimal.FromFloat(101.0)))
	assert.True(t, betterPriceNewer.Volume().Equal(fpdecimal.FromFloat(10.0)))
}

func TestFillWalksCandidatesUntilExhausted(t *testing.T) {
	book := newTestBook()

	first := submitOrder(t, book, Bid, 102.0, 10.0)
	second := submitOrder(t, book, Bid, 101.0, 10.0)

	taker := submitOrder(t, book, Ask, 100.0, 15.0)

	tape := book.DrainTape()
	require.Len(t, tape, 2)
	assert.Equal(t, first.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Volume.Equal(fpdecimal.FromFloat(10.0)))
	assert.Equal(t, second.ID(), tape[1].MakerOrderID)
	assert.True(t, tape[1].Volume.Equal(fpdecimal.FromFloat(5.0)))

	assert.Equal(t, StatusFilled, taker.Status())
	assert.Equal(t, StatusFilled, first.Status())
	assert.Equal(t, StatusPartiallyFilled, second.Status())
	assert.True(t, second.Volume().Equal(fpdecimal.FromFloat(5.0)))
}

func TestUnfilledRemainderRests(t *testing.T) {
	book := newTestBook()

	submitOrder(t, book, Bid, 102.0, 4.0)
	taker := submitOrder(t, book, Ask, 100.0, 10.0)

	require.Len(t, book.DrainTape(), 1)
	assert.Equal(t, StatusPartiallyFilled, taker.Status())
	assert.True(t, taker.Volume().Equal(fpdecimal.FromFloat(6.0)))
	assert.Equal(t, 1, book.Len(Ask), "the remainder keeps resting on its own side")
	assert.Equal(t, 0, book.Len(Bid))
}

func TestVolumeConservation(t *testing.T) {
	book := newTestBook()

	makers := []*Order{
		submitOrder(t, book, Bid, 103.0, 3.0),
		submitOrder(t, book, Bid, 102.0, 5.0),
		submitOrder(t, book, Bid, 101.0, 7.0),
	}

	original := fpdecimal.FromFloat(12.0)
	taker := submitOrder(t, book, Ask, 100.0, 12.0)

	tape := book.DrainTape()
	traded := fpdecimal.Zero
	for _, trade := range tape {
		traded = traded.Add(trade.Volume)
	}

	// Aggressor side: remaining + traded == original volume
	assert.True(t, taker.Volume().Add(traded).Equal(original), "no volume created or destroyed")

	// Maker side: what the makers lost equals what the tape recorded
	makerRemaining := fpdecimal.Zero
	for _, maker := range makers {
		makerRemaining = makerRemaining.Add(maker.Volume())
	}
	assert.True(t, makerRemaining.Add(traded).Equal(fpdecimal.FromFloat(15.0)))
}

func TestDrainTapeIdempotent(t *testing.T) {
	book := newTestBook()

	submitOrder(t, book, Bid, 100.0, 10.0)
	submitOrder(t, book, Ask, 100.0, 10.0)

	first := book.DrainTape()
	require.NotEmpty(t, first)

	second := book.DrainTape()
	assert.Empty(t, second, "second drain with no intervening fills must be empty")
}

func TestCancelTwice(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)

	require.NoError(t, book.Cancel(order.ID()))
	assert.Equal(t, StatusCancelled, order.Status())
	assert.Equal(t, 0, book.Len(Bid))

	assert.ErrorIs(t, book.Cancel(order.ID()), ErrNotActive)
}

func TestCancelUnknown(t *testing.T) {
	book := newTestBook()
	assert.ErrorIs(t, book.Cancel(42), ErrNotFound)
	assert.ErrorIs(t, book.Expire(42), ErrNotFound)
	assert.ErrorIs(t, book.Restore(42), ErrNotFound)
	assert.ErrorIs(t, book.Remove(42), ErrNotFound)
}

func TestExpire(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Ask, 100.0, 10.0)
	require.NoError(t, book.Expire(order.ID()))
	assert.Equal(t, StatusExpired, order.Status())
	assert.ErrorIs(t, book.Expire(order.ID()), ErrNotActive)
}

func TestRestoreRematches(t *testing.T) {
	book := newTestBook()

	bid := submitOrder(t, book, Bid, 101.0, 10.0)
	require.NoError(t, book.Cancel(bid.ID()))

	// The ask rests because the only bid is cancelled
	ask := submitOrder(t, book, Ask, 100.0, 4.0)
	require.Empty(t, book.DrainTape())

	// Restoring the bid runs matching like a fresh submission
	require.NoError(t, book.Restore(bid.ID()))

	tape := book.DrainTape()
	require.Len(t, tape, 1)
	assert.Equal(t, bid.ID(), tape[0].TakerOrderID)
	assert.Equal(t, ask.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Price.Equal(fpdecimal.FromFloat(100.0)))
	assert.Equal(t, StatusFilled, ask.Status())
	assert.Equal(t, StatusPartiallyFilled, bid.Status())
}

func TestRestoreActiveOrFilled(t *testing.T) {
	book := newTestBook()

	active := submitOrder(t, book, Bid, 100.0, 10.0)
	assert.ErrorIs(t, book.Restore(active.ID()), ErrAlreadyActive)

	filled := submitOrder(t, book, Ask, 100.0, 10.0)
	require.Equal(t, StatusFilled, filled.Status())
	assert.ErrorIs(t, book.Restore(filled.ID()), ErrNotActive)
}

func TestModifyTriggersRematch(t *testing.T) {
	book := newTestBook()

	ask := submitOrder(t, book, Ask, 101.0, 5.0)
	bid := submitOrder(t, book, Bid, 99.0, 5.0)
	require.Empty(t, book.DrainTape())

	newPrice := fpdecimal.FromFloat(101.0)
	require.NoError(t, book.Modify(bid.ID(), &newPrice, nil))

	tape := book.DrainTape()
	require.Len(t, tape, 1)
	assert.Equal(t, bid.ID(), tape[0].TakerOrderID)
	assert.Equal(t, ask.ID(), tape[0].MakerOrderID)
	assert.True(t, tape[0].Price.Equal(fpdecimal.FromFloat(101.0)), "trade at the resting ask's price")
	assert.Equal(t, StatusFilled, bid.Status())
	assert.Equal(t, StatusFilled, ask.Status())
}

func TestModifyInactiveKeepsStatus(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)
	require.NoError(t, book.Cancel(order.ID()))

	newVolume := fpdecimal.FromFloat(20.0)
	require.NoError(t, book.Modify(order.ID(), nil, &newVolume))

	assert.Equal(t, StatusCancelled, order.Status())
	assert.True(t, order.Volume().Equal(newVolume))
	assert.Empty(t, book.DrainTape(), "inactive orders do not re-match")
}

func TestModifyValidation(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)
	badPrice := fpdecimal.FromFloat(-1.0)
	assert.ErrorIs(t, book.Modify(order.ID(), &badPrice, nil), ErrInvalidOrder)
	assert.True(t, order.Price().Equal(fpdecimal.FromFloat(100.0)))
}

func TestRemovePurges(t *testing.T) {
	book := newTestBook()

	order := submitOrder(t, book, Bid, 100.0, 10.0)
	require.NoError(t, book.Remove(order.ID()))

	assert.Nil(t, book.Get(order.ID()))
	assert.Equal(t, 0, book.Len(Bid))
	assert.ErrorIs(t, book.Remove(order.ID()), ErrNotFound)
}

func TestSweepTerminal(t *testing.T) {
	book := newTestBook()

	cancelled := submitOrder(t, book, Bid, 100.0, 10.0)
	require.NoError(t, book.Cancel(cancelled.ID()))
	resting := submitOrder(t, book, Bid, 99.0, 10.0)

	removed := book.SweepTerminal(time.Now().Add(time.Second))
	assert.Equal(t, 1, removed)
	assert.Nil(t, book.Get(cancelled.ID()))
	assert.Same(t, resting, book.Get(resting.ID()), "active orders survive the sweep")

	assert.Equal(t, 0, book.SweepTerminal(time.Now()))
}
