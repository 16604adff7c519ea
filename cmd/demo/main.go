package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/T1r3sh/OrderBook/pkg/core"
	"github.com/T1r3sh/OrderBook/pkg/id"
	"github.com/fatih/color"
	"github.com/nikolaydubina/fpdecimal"
)

func main() {
	allocator, err := id.NewFileAllocator(filepath.Join(os.TempDir(), "orderbook_demo_id.txt"), 100)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create id allocator: %v\n", err)
		os.Exit(1)
	}
	defer allocator.Close()

	book := core.NewOrderBook(allocator)

	cyan := color.New(color.FgCyan).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()
	yellow := color.New(color.FgYellow).SprintfFunc()

	fmt.Println(cyan("== Deterministic walkthrough =="))

	// Two resting bids, then an ask that crosses both price levels
	bid1, _ := core.NewOrder(core.Bid, fpdecimal.FromFloat(102.0), fpdecimal.FromFloat(10.0), "alice")
	bid2, _ := core.NewOrder(core.Bid, fpdecimal.FromFloat(101.0), fpdecimal.FromFloat(4.0), "bob")
	ask, _ := core.NewOrder(core.Ask, fpdecimal.FromFloat(100.0), fpdecimal.FromFloat(12.0), "carol")

	mustSubmit(book, bid1)
	mustSubmit(book, bid2)
	mustSubmit(book, ask)

	printTape(green, book.DrainTape())

	fmt.Println(cyan("\n== Random session =="))

	for i := 0; i < 30; i++ {
		side := core.Bid
		if rand.Intn(2) == 0 {
			side = core.Ask
		}
		price := fpdecimal.FromFloat(float64(90 + rand.Intn(21)))
		volume := fpdecimal.FromFloat(float64(5 + rand.Intn(21)))
		owner := fmt.Sprintf("trader-%d", 1+rand.Intn(10))

		order, err := core.NewOrder(side, price, volume, owner)
		if err != nil {
			continue
		}
		mustSubmit(book, order)
	}

	printTape(green, book.DrainTape())

	fmt.Println(yellow("\nResting bids: %d, resting asks: %d", book.Len(core.Bid), book.Len(core.Ask)))
	printSide(yellow, "Asks", book.Orders(core.Ask))
	printSide(yellow, "Bids", book.Orders(core.Bid))
}

func mustSubmit(book *core.OrderBook, order *core.Order) {
	if err := book.Submit(order); err != nil {
		fmt.Fprintf(os.Stderr, "failed to submit order: %v\n", err)
		os.Exit(1)
	}
}

func printTape(paint func(format string, a ...interface{}) string, trades []core.Trade) {
	if len(trades) == 0 {
		fmt.Println("no trades")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAKER\tMAKER\tPRICE\tVOLUME")
	for _, t := range trades {
		fmt.Fprintln(w, paint("%d\t%d\t%s\t%s", t.TakerOrderID, t.MakerOrderID, t.Price, t.Volume))
	}
	w.Flush()
}

func printSide(paint func(format string, a ...interface{}) string, label string, orders []*core.Order) {
	fmt.Println(paint("\n%s:", label))
	for _, o := range orders {
		fmt.Printf("  #%d %s @ %s x %s (%s)\n", o.ID(), o.Side(), o.Price(), o.Volume(), o.Owner())
	}
}
