package app

import (
	"os"
	"strconv"
	"strings"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// APIAddr — адрес административного HTTP API.
	APIAddr string
	// OpsAddr — адрес служебного listener (/metrics, health probes).
	OpsAddr string
	// PostgresDSN — при пустом значении используется in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers — CSV-список брокеров; при пустом значении outbox worker
	// и projector не запускаются.
	KafkaBrokers string
	// RedisAddr — адрес Redis для read model дашборда.
	RedisAddr string
	// ConsumerGroup — группа projector-консьюмера.
	ConsumerGroup string
	// LowStockThreshold — порог low-stock алерта.
	LowStockThreshold int64
}

// DefaultConfig возвращает базовые адреса и параметры.
func DefaultConfig() Config {
	return Config{
		APIAddr:           ":8080",
		OpsAddr:           ":9090",
		ConsumerGroup:     "shopadmin-projector",
		LowStockThreshold: 5,
	}
}

// FromEnv строит конфигурацию из переменных окружения поверх дефолтов.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("SHOPADMIN_API_ADDR")); v != "" {
		cfg.APIAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SHOPADMIN_OPS_ADDR")); v != "" {
		cfg.OpsAddr = v
	}
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("SHOPADMIN_POSTGRES_DSN"))
	cfg.KafkaBrokers = strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if v := strings.TrimSpace(os.Getenv("SHOPADMIN_CONSUMER_GROUP")); v != "" {
		cfg.ConsumerGroup = v
	}
	if v := strings.TrimSpace(os.Getenv("SHOPADMIN_LOW_STOCK_THRESHOLD")); v != "" {
		if threshold, err := strconv.ParseInt(v, 10, 64); err == nil && threshold >= 0 {
			cfg.LowStockThreshold = threshold
		}
	}
	return cfg
}
