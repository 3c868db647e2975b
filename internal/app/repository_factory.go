package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/solace/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/solace/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/config"
)

// Stores bundles the repositories of one storage backend.
type Stores struct {
	Driver       database.Driver
	Conn         database.Connection
	Appointments domain.AppointmentRepository
	Blocks       domain.BlockedIntervalRepository
	Outbox       outbox.Repository
	UnitOfWork   sharedApplication.UnitOfWork
}

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
	cipher crypto.FieldCipher
}

// NewRepositoryFactory creates a factory over conn. A nil conn selects the
// in-memory store.
func NewRepositoryFactory(conn database.Connection, cipher crypto.FieldCipher) *RepositoryFactory {
	driver := database.DriverMemory
	if conn != nil {
		driver = conn.Driver()
	}
	return &RepositoryFactory{conn: conn, driver: driver, cipher: cipher}
}

// AppointmentRepository creates an appointment repository for the configured driver.
func (f *RepositoryFactory) AppointmentRepository() (domain.AppointmentRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresAppointmentRepository(f.conn, f.cipher), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteAppointmentRepository(f.conn, f.cipher), nil
	case database.DriverMemory:
		return persistence.NewMemoryAppointmentRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// BlockedIntervalRepository creates a blocked-time repository for the configured driver.
func (f *RepositoryFactory) BlockedIntervalRepository() (domain.BlockedIntervalRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresBlockedIntervalRepository(f.conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteBlockedIntervalRepository(f.conn), nil
	case database.DriverMemory:
		return persistence.NewMemoryBlockedIntervalRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	case database.DriverMemory:
		return outbox.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork returns a transactional unit of work, or a no-op one in memory.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	if f.conn == nil {
		return sharedApplication.NoopUnitOfWork{}
	}
	return database.NewUnitOfWork(f.conn)
}

// Build creates every repository.
func (f *RepositoryFactory) Build() (*Stores, error) {
	appointments, err := f.AppointmentRepository()
	if err != nil {
		return nil, err
	}
	blocks, err := f.BlockedIntervalRepository()
	if err != nil {
		return nil, err
	}
	outboxRepo, err := f.OutboxRepository()
	if err != nil {
		return nil, err
	}
	return &Stores{
		Driver:       f.driver,
		Conn:         f.conn,
		Appointments: appointments,
		Blocks:       blocks,
		Outbox:       outboxRepo,
		UnitOfWork:   f.UnitOfWork(),
	}, nil
}

// OpenStores connects to the configured backend, migrates it and builds the
// repositories. DATABASE_URL=memory keeps everything in process.
func OpenStores(ctx context.Context, cfg *config.Config, cipher crypto.FieldCipher, logger *slog.Logger) (*Stores, error) {
	driver := database.DetectDriver(cfg.DatabaseURL)
	if driver == database.DriverMemory {
		logger.Info("using in-memory store")
		return NewRepositoryFactory(nil, cipher).Build()
	}

	dbCfg := database.Config{Driver: driver, URL: cfg.DatabaseURL}
	if driver == database.DriverSQLite && cfg.DatabaseURL == "" {
		dbCfg.SQLitePath = cfg.SQLitePath
	}
	conn, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Up(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("connected to database", "driver", driver)

	stores, err := NewRepositoryFactory(conn, cipher).Build()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return stores, nil
}
