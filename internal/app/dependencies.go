package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/coordinator"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/ledger"
	"github.com/vladislavdragonenkov/shopadmin/internal/storage/memory"
	"github.com/vladislavdragonenkov/shopadmin/internal/storage/postgres"
)

// Dependencies содержит хранилище и сервисы приложения.
type Dependencies struct {
	Store       domain.Store
	Orders      domain.OrderRepository
	Products    domain.ProductRepository
	OutboxRepo  domain.OutboxRepository
	Ledger      *ledger.Ledger
	Coordinator *coordinator.Coordinator
	Logger      *log.Entry

	pg *postgres.Store
}

// NewDependencies инициализирует хранилище (postgres при заданном DSN,
// иначе in-memory) и собирает поверх него сервисы.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			_ = pgStore.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}

		deps.pg = pgStore
		deps.Store = pgStore
		deps.Orders = postgres.NewOrderRepository(pgStore)
		deps.Products = postgres.NewProductRepository(pgStore)
		deps.OutboxRepo = postgres.NewOutboxRepository(pgStore)
		logger.Info("using postgres storage")
	} else {
		outboxRepo := memory.NewOutboxRepository()
		store := memory.NewStore(outboxRepo)
		deps.Store = store
		deps.Orders = memory.NewOrderRepository(store)
		deps.Products = memory.NewProductRepository(store)
		deps.OutboxRepo = outboxRepo
		logger.Info("using in-memory storage")
	}

	deps.Ledger = ledger.New(deps.Store, logger.WithField("component", "stock-ledger"))
	deps.Coordinator = coordinator.New(deps.Store, deps.Orders, logger.WithField("component", "inventory-coordinator"))

	return deps, nil
}

// PostgresPing проверяет доступность postgres; nil для in-memory хранилища.
func (d *Dependencies) PostgresPing(ctx context.Context) error {
	if d.pg == nil {
		return nil
	}
	return d.pg.Ping(ctx)
}

// UsesPostgres сообщает, работает ли приложение поверх postgres.
func (d *Dependencies) UsesPostgres() bool {
	return d.pg != nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() {
	if d.pg != nil {
		if err := d.pg.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
