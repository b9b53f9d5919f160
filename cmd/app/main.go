package main

import (
	"flag"
	"log"
	"os"

	"StockPulse/internal/di"
	"StockPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s refresh=%s port=%d", cfg.Environment, cfg.Refresh.Interval, cfg.Server.Port)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if cfg.ClickHouse.Enabled {
		log.Printf("clickhouse: archive ready db=%s table=%s", cfg.ClickHouse.Database, cfg.ClickHouse.Table)
	}
	if cfg.Kafka.Enabled {
		log.Printf("kafka: brokers=%v signal_topic=%s", cfg.Kafka.Brokers, cfg.Kafka.SignalTopic)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
