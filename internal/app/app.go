package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shopadmin/internal/health"
	"github.com/vladislavdragonenkov/shopadmin/internal/httpapi"
	"github.com/vladislavdragonenkov/shopadmin/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/outbox"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/projector"
	"github.com/vladislavdragonenkov/shopadmin/internal/version"
)

// Run собирает приложение и блокируется до отмены ctx или фатальной ошибки
// HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka producer опционален: без него outbox worker и projector
	// не запускаются, но API продолжает работать.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicStockEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(
			deps.OutboxRepo,
			publisher,
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		)
		go worker.Run(ctx)
	}

	var redisClient *redis.Client
	var projectorConsumer *kafka.Consumer
	if cfg.RedisAddr != "" && kafkaProducer != nil {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		proj := projector.New(
			redisClient,
			projector.WithLogger(logger.WithField("component", "stock-projector")),
			projector.WithLowStockThreshold(cfg.LowStockThreshold),
		)

		consumer, err := kafka.NewConsumerWithDLQ(
			splitBrokers(cfg.KafkaBrokers),
			cfg.ConsumerGroup,
			[]string{kafka.TopicStockEvents},
			proj.Handle,
			kafkaProducer,
			3,
		)
		if err != nil {
			logger.WithError(err).Warn("failed to create projector consumer, continuing without projector")
		} else {
			projectorConsumer = consumer
			go func() {
				if err := consumer.Start(ctx); err != nil {
					logger.WithError(err).Warn("projector consumer stopped with error")
				}
			}()
		}
	}

	var redisPing, kafkaPing func() error
	if redisClient != nil {
		redisPing = func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(checkCtx).Err()
		}
	}
	if kafkaProducer != nil {
		kafkaPing = kafkaProducer.HealthCheck
	}
	healthHandler := buildHealthHandler(deps, redisPing, kafkaPing)

	opsSrv := startOpsServer(ctx, cfg.OpsAddr, logger, healthHandler)

	router := httpapi.NewRouter(httpapi.Handlers{
		Orders:   httpapi.NewOrdersHandler(deps.Orders, deps.Coordinator, logger.WithField("component", "orders-handler")),
		Products: httpapi.NewProductsHandler(deps.Products, deps.Ledger, logger.WithField("component", "products-handler")),
	})
	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("admin API слушает %s", cfg.APIAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	shutdown := func() {
		shutdownHTTP(apiSrv, logger)
		if projectorConsumer != nil {
			if err := projectorConsumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop projector consumer")
			}
		}
		shutdownHTTP(opsSrv, logger)
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildHealthHandler регистрирует проверку каждого подключённого внешнего
// сервиса: postgres, redis и kafka. nil-проверка означает, что сервис
// не сконфигурирован и в readiness не участвует.
func buildHealthHandler(deps *Dependencies, redisPing, kafkaPing func() error) *healthcheck.Handler {
	healthHandler := healthcheck.NewHandler(version.String())
	if deps.UsesPostgres() {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.PostgresPing(checkCtx)
		}))
	}
	if redisPing != nil {
		healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", redisPing))
	}
	if kafkaPing != nil {
		healthHandler.RegisterChecker("kafka", healthcheck.NewSimpleChecker("kafka", kafkaPing))
	}
	return healthHandler
}

// startOpsServer запускает служебный listener: /metrics, /healthz, /livez, /readyz.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newOpsMux(healthHandler)}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

func newOpsMux(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
