// Package main - точка входа для фоновых процессов (Worker) движка учебных
// путей.
//
// Worker отвечает за сопровождающие задачи:
// - Приём доменных событий (вехи, активации повторений) с шины Redis
// - Пересылка событий в канал уведомлений
// - Напоминания о просроченных точках повторения
//
// Сам движок (генерация и эволюция путей) - библиотека; командные и
// запросные обработчики встраиваются обслуживающим слоем. Worker только
// наблюдает за хранилищем и шиной.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Shatzii/Go4it-V2-sub020/config"
	"github.com/Shatzii/Go4it-V2-sub020/internal/application/eventhandler"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
	"github.com/Shatzii/Go4it-V2-sub020/internal/infrastructure/messaging"
	"github.com/Shatzii/Go4it-V2-sub020/internal/infrastructure/persistence/postgres"
	"github.com/Shatzii/Go4it-V2-sub020/internal/infrastructure/scheduler"
	"github.com/Shatzii/Go4it-V2-sub020/internal/infrastructure/scheduler/jobs"
	"github.com/Shatzii/Go4it-V2-sub020/internal/infrastructure/service"
	"github.com/Shatzii/Go4it-V2-sub020/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// eventBus объединяет стороны шины, нужные воркеру.
type eventBus interface {
	shared.EventPublisher
	shared.EventSubscriber
	Close() error
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(logger.Options{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	log.Info("starting learning path engine worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	pathRepo := postgres.NewPathRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ШИНА СОБЫТИЙ
	// Redis даёт события от всех инстансов движка; без Redis воркер видит
	// только свои (режим разработки).
	// ─────────────────────────────────────────────────────────────────────────
	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = logger.Component(log, "eventbus")

	var bus eventBus
	if cfg.Redis.Disabled {
		log.Warn("redis disabled, using in-memory event bus")
		bus = messaging.NewInMemoryEventBus(localBusCfg)
	} else {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisClient),
			LocalBusConfig: localBusCfg,
			Logger:         logger.Component(log, "eventbus"),
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		log.Info("redis event bus started")
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОБРАБОТЧИК КОНТРОЛЬНЫХ ТОЧЕК
	// ─────────────────────────────────────────────────────────────────────────
	sink := service.NewLogNotificationSink(logger.Component(log, "notifications"))

	checkpoints := eventhandler.NewOnCheckpointHandler(sink, logger.Component(log, "checkpoints"))
	if err := checkpoints.Register(bus); err != nil {
		return fmt.Errorf("failed to register checkpoint handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   logger.Component(log, "scheduler"),
		Timezone: cfg.App.Location,
	})

	reminderJob := jobs.NewReviewReminderJob(
		pathRepo,
		sink,
		logger.Component(log, "review_reminder"),
		jobs.DefaultReviewReminderConfig(),
	)
	if err := sched.Register(reminderJob, scheduler.NewDailyAtSchedule(9, 0)); err != nil {
		return fmt.Errorf("failed to register reminder job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("learning path engine worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	return nil
}
