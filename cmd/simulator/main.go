package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"

	"github.com/T1r3sh/OrderBook/config"
	"github.com/T1r3sh/OrderBook/pkg/core"
	"github.com/T1r3sh/OrderBook/pkg/db/queue"
	"github.com/T1r3sh/OrderBook/pkg/id"
	"github.com/T1r3sh/OrderBook/pkg/logging"
	"github.com/T1r3sh/OrderBook/pkg/messaging"
	"github.com/T1r3sh/OrderBook/pkg/messaging/kafka"
	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Format == "pretty",
	})

	allocator, cleanup, err := buildAllocator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build id allocator")
	}
	defer cleanup()

	sender, err := buildSender(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build trade sender")
	}
	defer sender.Close()

	book := core.NewOrderBook(allocator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Info().Msg("Received interrupt signal, draining and shutting down")
		cancel()
	}()

	run(ctx, cfg, book, sender)
}

func buildAllocator(cfg *config.Config) (id.Allocator, func(), error) {
	switch cfg.Allocator.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		zlog, err := zap.NewProduction()
		if err != nil {
			return nil, nil, err
		}
		alloc := id.NewRedisAllocator(client, cfg.Redis.Key, cfg.Redis.BlockSize, zlog)
		return alloc, func() { _ = client.Close() }, nil
	case "file":
		alloc, err := id.NewFileAllocator(cfg.Allocator.Path, cfg.Allocator.CheckpointEvery)
		if err != nil {
			return nil, nil, err
		}
		return alloc, func() { _ = alloc.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown allocator backend %q", cfg.Allocator.Backend)
	}
}

func buildSender(cfg *config.Config) (messaging.MessageSender, error) {
	if !cfg.Kafka.Enabled {
		log.Info().Msg("Kafka disabled, trades are drained to the log only")
		return messaging.NewMockMessageSender(), nil
	}

	switch cfg.Kafka.Driver {
	case "sarama":
		return queue.NewQueueMessageSender()
	case "kafka-go":
		return kafka.NewKafkaMessageSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
	default:
		return nil, fmt.Errorf("unknown kafka driver %q", cfg.Kafka.Driver)
	}
}

func run(ctx context.Context, cfg *config.Config, book *core.OrderBook, sender messaging.MessageSender) {
	sim := cfg.Simulator
	var submitted, cancelled []int64

	for i := 0; i < sim.Orders && ctx.Err() == nil; i++ {
		roll := rand.Intn(100)
		switch {
		case roll < sim.CancelPercent && len(submitted) > 0:
			target := submitted[rand.Intn(len(submitted))]
			if err := book.Cancel(target); err != nil {
				log.Debug().Int64("order_id", target).Err(err).Msg("Cancel skipped")
			} else {
				cancelled = append(cancelled, target)
				log.Debug().Int64("order_id", target).Msg("Order cancelled")
			}
		case roll < sim.CancelPercent+sim.ModifyPercent && len(submitted) > 0:
			target := submitted[rand.Intn(len(submitted))]
			price := randomPrice(sim)
			if err := book.Modify(target, &price, nil); err != nil {
				log.Debug().Int64("order_id", target).Err(err).Msg("Modify skipped")
			} else {
				log.Debug().Int64("order_id", target).Str("price", price.String()).Msg("Order modified")
			}
		case roll < sim.CancelPercent+sim.ModifyPercent+sim.RestorePercent && len(cancelled) > 0:
			j := rand.Intn(len(cancelled))
			target := cancelled[j]
			cancelled = append(cancelled[:j], cancelled[j+1:]...)
			if err := book.Restore(target); err != nil {
				log.Debug().Int64("order_id", target).Err(err).Msg("Restore skipped")
			} else {
				log.Debug().Int64("order_id", target).Msg("Order restored")
			}
		default:
			order := randomOrder(sim)
			if err := book.Submit(order); err != nil {
				log.Error().Err(err).Msg("Submit failed")
				continue
			}
			submitted = append(submitted, order.ID())
			log.Debug().
				Int64("order_id", order.ID()).
				Str("side", order.Side().String()).
				Str("price", order.Price().String()).
				Str("volume", order.Volume().String()).
				Msg("Order submitted")
		}

		if (i+1)%sim.DrainEvery == 0 {
			publish(ctx, book, sender)
		}
	}

	publish(ctx, book, sender)
	log.Info().
		Int("bids", book.Len(core.Bid)).
		Int("asks", book.Len(core.Ask)).
		Msg("Simulation finished")
}

func publish(ctx context.Context, book *core.OrderBook, sender messaging.MessageSender) {
	trades := book.DrainTape()
	if len(trades) == 0 {
		return
	}

	if err := sender.SendTradeMessages(ctx, core.TradesToMessages(trades)); err != nil {
		log.Error().Err(err).Int("trades", len(trades)).Msg("Failed to publish trades")
		return
	}
	log.Info().Int("trades", len(trades)).Msg("Published trades")
}

func randomOrder(sim config.SimulatorConfig) *core.Order {
	side := core.Bid
	if rand.Intn(2) == 0 {
		side = core.Ask
	}

	volume := fpdecimal.FromFloat(float64(sim.VolumeMin + rand.Intn(sim.VolumeMax-sim.VolumeMin+1)))
	owner := fmt.Sprintf("trader-%d", 1+rand.Intn(sim.Owners))

	order, err := core.NewOrder(side, randomPrice(sim), volume, owner)
	if err != nil {
		panic(err) // generator bounds guarantee positive price/volume
	}
	return order
}

func randomPrice(sim config.SimulatorConfig) fpdecimal.Decimal {
	span := sim.PriceMax - sim.PriceMin
	return fpdecimal.FromFloat(sim.PriceMin + rand.Float64()*span)
}
