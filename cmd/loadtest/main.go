package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/T1r3sh/OrderBook/pkg/core"
	"github.com/T1r3sh/OrderBook/pkg/id"
	"github.com/nikolaydubina/fpdecimal"
	"golang.org/x/time/rate"
)

var (
	numOrders = flag.Int("orders", 100000, "Number of orders to submit")
	rateLimit = flag.Int("rate", 0, "Submissions per second, 0 for unlimited")
	priceMin  = flag.Float64("price_min", 90, "Lower bound of the price range")
	priceMax  = flag.Float64("price_max", 110, "Upper bound of the price range")
)

func main() {
	flag.Parse()

	allocator, err := id.NewFileAllocator(filepath.Join(os.TempDir(), "orderbook_loadtest_id.txt"), 1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create id allocator: %v\n", err)
		os.Exit(1)
	}
	defer allocator.Close()

	book := core.NewOrderBook(allocator)

	// Latency histogram from 1us to 10s, 3 significant digits
	hist := hdrhistogram.New(1, 10_000_000_000, 3)

	var limiter *rate.Limiter
	if *rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rateLimit), 1)
	}

	ctx := context.Background()
	trades := 0
	start := time.Now()

	for i := 0; i < *numOrders; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		order := randomOrder()

		began := time.Now()
		if err := book.Submit(order); err != nil {
			fmt.Fprintf(os.Stderr, "submit failed: %v\n", err)
			os.Exit(1)
		}
		if err := hist.RecordValue(time.Since(began).Nanoseconds()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to record latency: %v\n", err)
		}

		trades += len(book.DrainTape())
	}

	elapsed := time.Since(start)

	fmt.Printf("Submitted %d orders in %s (%.0f orders/sec)\n",
		*numOrders, elapsed.Round(time.Millisecond), float64(*numOrders)/elapsed.Seconds())
	fmt.Printf("Executed %d trades, resting: %d bids / %d asks\n",
		trades, book.Len(core.Bid), book.Len(core.Ask))

	fmt.Println("\nSubmit latency:")
	for _, q := range []float64{50, 90, 99, 99.9, 100} {
		fmt.Printf("  p%-5v %s\n", q, time.Duration(hist.ValueAtQuantile(q)))
	}
	fmt.Printf("  mean  %s\n", time.Duration(int64(hist.Mean())))
}

func randomOrder() *core.Order {
	side := core.Bid
	if rand.Intn(2) == 0 {
		side = core.Ask
	}

	span := *priceMax - *priceMin
	price := fpdecimal.FromFloat(*priceMin + rand.Float64()*span)
	volume := fpdecimal.FromFloat(float64(1 + rand.Intn(50)))

	order, err := core.NewOrder(side, price, volume, "loadtest")
	if err != nil {
		panic(err)
	}
	return order
}
