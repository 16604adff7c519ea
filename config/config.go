package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/T1r3sh/OrderBook/pkg/db/queue"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Allocator struct {
		// Backend selects the id allocator: "file" or "redis"
		Backend         string `yaml:"backend"`
		Path            string `yaml:"path"`
		CheckpointEvery int64  `yaml:"checkpoint_every"`
	} `yaml:"allocator"`

	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		Key       string `yaml:"key"`
		BlockSize int64  `yaml:"block_size"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled    bool   `yaml:"enabled"`
		// Driver selects the publisher implementation: "kafka-go" or "sarama"
		Driver     string `yaml:"driver"`
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
	} `yaml:"kafka"`

	Simulator SimulatorConfig `yaml:"simulator"`
}

// SimulatorConfig controls the random order flow of the simulator binary
type SimulatorConfig struct {
	Orders         int     `yaml:"orders"`
	Owners         int     `yaml:"owners"`
	PriceMin       float64 `yaml:"price_min"`
	PriceMax       float64 `yaml:"price_max"`
	VolumeMin      int     `yaml:"volume_min"`
	VolumeMax      int     `yaml:"volume_max"`
	DrainEvery     int     `yaml:"drain_every"`
	CancelPercent  int     `yaml:"cancel_percent"`
	ModifyPercent  int     `yaml:"modify_percent"`
	RestorePercent int     `yaml:"restore_percent"`
}

// Default configuration values
var (
	configFile = flag.String("config", "", "Path to config file (YAML)")
	logLevel   = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log_format", "pretty", "Log format: json, pretty")
)

// LoadConfig loads the configuration from command line flags and optionally from a config file
func LoadConfig() (*Config, error) {
	flag.Parse()

	config := &Config{}
	config.Logging.Level = *logLevel
	config.Logging.Format = *logFormat
	config.Allocator.Backend = "file"
	config.Allocator.Path = "order_id_state.txt"
	config.Allocator.CheckpointEvery = 100
	config.Redis.Addr = "localhost:6379"
	config.Redis.Key = "orderbook:next_id"
	config.Redis.BlockSize = 100
	config.Kafka.Driver = "kafka-go"
	config.Kafka.BrokerAddr = "localhost:9092"
	config.Kafka.Topic = "order-trades"
	config.Simulator.Orders = 1000
	config.Simulator.Owners = 10
	config.Simulator.PriceMin = 90
	config.Simulator.PriceMax = 110
	config.Simulator.VolumeMin = 5
	config.Simulator.VolumeMax = 25
	config.Simulator.DrainEvery = 50
	config.Simulator.CancelPercent = 5
	config.Simulator.ModifyPercent = 5
	config.Simulator.RestorePercent = 2

	if *configFile != "" {
		yamlFile, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Propagate Kafka settings to the queue package defaults
	queue.SetBrokerList(config.Kafka.BrokerAddr)
	queue.SetTopic(config.Kafka.Topic)

	return config, nil
}
