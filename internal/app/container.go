// Package app wires the booking engine together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	calendarApp "github.com/felixgeelhaar/solace/internal/calendar/application"
	calendarSubs "github.com/felixgeelhaar/solace/internal/calendar/application/subscribers"
	"github.com/felixgeelhaar/solace/internal/calendar/infrastructure/caldav"
	"github.com/felixgeelhaar/solace/internal/calendar/infrastructure/icalendar"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/catalog"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/lock"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage
	DBDriver    database.Driver
	DBConn      database.Connection
	RedisClient *redis.Client

	// Repositories
	Catalog      *catalog.Catalog
	Appointments domain.AppointmentRepository
	Blocks       domain.BlockedIntervalRepository
	OutboxRepo   outbox.Repository
	UnitOfWork   sharedApplication.UnitOfWork
	Locker       services.Locker

	// Publishers. EventBus is set when events are dispatched in process.
	EventPublisher eventbus.Publisher
	EventBus       *eventbus.InProcessPublisher

	// Scheduling services
	Resolver *services.AvailabilityResolver
	Expander *services.RecurrenceExpander

	// Scheduling command handlers
	CreateBookingHandler         *commands.CreateBookingHandler
	CancelAppointmentHandler     *commands.CancelAppointmentHandler
	RescheduleAppointmentHandler *commands.RescheduleAppointmentHandler
	ApproveAppointmentHandler    *commands.ApproveAppointmentHandler
	ConfirmAppointmentHandler    *commands.ConfirmAppointmentHandler
	RecordOutcomeHandler         *commands.RecordOutcomeHandler
	BlockTimeHandler             *commands.BlockTimeHandler
	UnblockTimeHandler           *commands.UnblockTimeHandler

	// Scheduling query handlers
	ResolveSlotsHandler   *queries.ResolveSlotsHandler
	GetAppointmentHandler *queries.GetAppointmentHandler
	ProjectEventsHandler  *queries.ProjectEventsHandler

	// Calendar
	CalendarService        *calendarApp.Service
	CalendarSyncSubscriber *calendarSubs.AppointmentSyncSubscriber

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	cipher, err := crypto.FromKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("SOLACE_ENCRYPTION_KEY: %w", err)
	}

	stores, err := OpenStores(ctx, cfg, cipher, logger)
	if err != nil {
		return nil, err
	}
	c.DBDriver = stores.Driver
	c.DBConn = stores.Conn
	c.Appointments = stores.Appointments
	c.Blocks = stores.Blocks
	c.OutboxRepo = stores.Outbox
	c.UnitOfWork = stores.UnitOfWork
	if c.DBConn != nil {
		c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	}

	if err := c.initCatalog(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initLocker(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.wireScheduling()
	if err := c.wireCalendar(); err != nil {
		c.Close()
		return nil, err
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        cfg.OutboxRetention(),
	}, logger, outbox.WithMetrics(c.Metrics))

	return c, nil
}

func (c *Container) initCatalog() error {
	cat, err := catalog.LoadFile(c.Config.CatalogPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.Logger.Warn("catalog file not found, no services or availability configured", "path", c.Config.CatalogPath)
		cat, err = catalog.New(nil, nil)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	c.Catalog = cat
	return nil
}

// initLocker uses Redis when configured so several processes share booking
// locks. Development falls back to the in-process mutex.
func (c *Container) initLocker(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.Locker = lock.NewKeyedMutex()
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, using in-process booking locks", "error", err)
		c.Locker = lock.NewKeyedMutex()
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-process booking locks", "error", err)
		c.Locker = lock.NewKeyedMutex()
		return nil
	}

	c.RedisClient = client
	c.Locker = lock.NewRedisLocker(client, c.Config.BookingLockTTL, c.Logger)
	c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

// initPublisher connects RabbitMQ behind a circuit breaker. Without a broker
// events are dispatched in process so calendar sync still runs.
func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventBus = eventbus.NewInProcessPublisher(c.Logger)
		c.EventPublisher = c.EventBus
		return nil
	}

	rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, dispatching events in process", "error", err)
		c.EventBus = eventbus.NewInProcessPublisher(c.Logger)
		c.EventPublisher = c.EventBus
		return nil
	}

	c.EventPublisher = eventbus.NewBreakerPublisher(rabbit, eventbus.BreakerConfig{
		ConsecutiveFailures: uint32(max(c.Config.BreakerFailures, 1)),
		OpenTimeout:         c.Config.BreakerOpenTimeout,
	}, c.Logger)
	c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(func(context.Context) error {
		if rabbit.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}))
	c.Logger.Info("connected to RabbitMQ")
	return nil
}

func (c *Container) wireScheduling() {
	cfg := c.Config
	loc := cfg.Location()

	c.Resolver = services.NewAvailabilityResolver(c.Catalog, c.Appointments, c.Blocks, loc, services.SystemClock, c.Metrics, c.Logger)
	c.Expander = services.NewRecurrenceExpander(c.Resolver, c.Appointments, c.Blocks, c.OutboxRepo, c.UnitOfWork, c.Locker, nil, loc, c.Metrics, c.Logger)

	deps := commands.Deps{
		Appointments: c.Appointments,
		Blocks:       c.Blocks,
		Catalog:      c.Catalog,
		Outbox:       c.OutboxRepo,
		UnitOfWork:   c.UnitOfWork,
		Resolver:     c.Resolver,
		Expander:     c.Expander,
		Locker:       c.Locker,
		Policy: domain.CancellationPolicy{
			Notice:              cfg.CancellationNotice,
			EnforceOnReschedule: cfg.RescheduleNoticeEnforced,
		},
		DefaultProviderID: cfg.DefaultProviderID,
		Location:          loc,
		Logger:            c.Logger,
		Metrics:           c.Metrics,
	}

	c.CreateBookingHandler = commands.NewCreateBookingHandler(deps)
	c.CancelAppointmentHandler = commands.NewCancelAppointmentHandler(deps)
	c.RescheduleAppointmentHandler = commands.NewRescheduleAppointmentHandler(deps)
	c.ApproveAppointmentHandler = commands.NewApproveAppointmentHandler(deps)
	c.ConfirmAppointmentHandler = commands.NewConfirmAppointmentHandler(deps)
	c.RecordOutcomeHandler = commands.NewRecordOutcomeHandler(deps)
	c.BlockTimeHandler = commands.NewBlockTimeHandler(deps)
	c.UnblockTimeHandler = commands.NewUnblockTimeHandler(deps)

	c.ResolveSlotsHandler = queries.NewResolveSlotsHandler(c.Resolver, c.Catalog, cfg.DefaultProviderID)
	c.GetAppointmentHandler = queries.NewGetAppointmentHandler(c.Appointments)
	c.ProjectEventsHandler = queries.NewProjectEventsHandler(c.Appointments, c.Catalog)
}

func (c *Container) wireCalendar() error {
	encoder := icalendar.NewEncoder(nil, c.Logger)

	var pusher calendarApp.Pusher
	if c.Config.CalDAVEnabled() {
		p, err := caldav.NewPusher(c.Config.CalDAVURL, c.Config.CalDAVUsername, c.Config.CalDAVPassword, encoder, c.Logger)
		if err != nil {
			return err
		}
		if c.Config.CalDAVCalendarPath != "" {
			p.WithCalendarPath(c.Config.CalDAVCalendarPath)
		}
		pusher = p
	}
	c.CalendarService = calendarApp.NewService(c.ProjectEventsHandler, encoder, pusher, c.Logger)

	c.CalendarSyncSubscriber = calendarSubs.NewAppointmentSyncSubscriber(c.CalendarService, c.Logger)
	if c.EventBus != nil {
		c.EventBus.Subscribe(calendarSubs.RoutingPattern, c.CalendarSyncSubscriber.Handle)
	}
	return nil
}

// DrainOutbox relays pending events once. Short-lived CLI processes call it
// so in-process subscribers see their own writes.
func (c *Container) DrainOutbox(ctx context.Context) {
	if c.OutboxProcessor == nil {
		return
	}
	if err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
		c.Logger.Warn("outbox drain failed", "error", err)
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}

// NewTestContainer creates an in-memory container for tests and demos.
func NewTestContainer(ctx context.Context, catalogPath string, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	cfg := &config.Config{
		AppEnv:             "test",
		DatabaseURL:        "memory",
		DefaultProviderID:  "default",
		Timezone:           "UTC",
		CancellationNotice: 24 * time.Hour,
		CatalogPath:        catalogPath,
		OutboxBatchSize:    100,
		OutboxMaxRetries:   5,
	}
	return NewContainer(ctx, cfg, logger)
}
