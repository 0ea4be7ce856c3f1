package app

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIAddr != ":8080" {
		t.Fatalf("unexpected api addr: %s", cfg.APIAddr)
	}
	if cfg.OpsAddr != ":9090" {
		t.Fatalf("unexpected ops addr: %s", cfg.OpsAddr)
	}
	if cfg.ConsumerGroup != "shopadmin-projector" {
		t.Fatalf("unexpected consumer group: %s", cfg.ConsumerGroup)
	}
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("unexpected low stock threshold: %d", cfg.LowStockThreshold)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SHOPADMIN_API_ADDR", ":18080")
	t.Setenv("SHOPADMIN_OPS_ADDR", ":19090")
	t.Setenv("SHOPADMIN_POSTGRES_DSN", "postgres://u:p@localhost/db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SHOPADMIN_CONSUMER_GROUP", "custom-group")
	t.Setenv("SHOPADMIN_LOW_STOCK_THRESHOLD", "12")

	cfg := FromEnv()

	if cfg.APIAddr != ":18080" || cfg.OpsAddr != ":19090" {
		t.Fatalf("unexpected addrs: %+v", cfg)
	}
	if cfg.PostgresDSN != "postgres://u:p@localhost/db" {
		t.Fatalf("unexpected dsn: %s", cfg.PostgresDSN)
	}
	if cfg.KafkaBrokers != "k1:9092, k2:9092" {
		t.Fatalf("unexpected brokers: %s", cfg.KafkaBrokers)
	}
	if got := splitBrokers(cfg.KafkaBrokers); len(got) != 2 || got[1] != "k2:9092" {
		t.Fatalf("unexpected broker list: %v", got)
	}
	if cfg.ConsumerGroup != "custom-group" {
		t.Fatalf("unexpected consumer group: %s", cfg.ConsumerGroup)
	}
	if cfg.LowStockThreshold != 12 {
		t.Fatalf("unexpected threshold: %d", cfg.LowStockThreshold)
	}
}

func TestFromEnv_IgnoresInvalidThreshold(t *testing.T) {
	t.Setenv("SHOPADMIN_LOW_STOCK_THRESHOLD", "not-a-number")

	cfg := FromEnv()
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("expected default threshold, got %d", cfg.LowStockThreshold)
	}
}
