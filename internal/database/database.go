package database

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	// GORM imports
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tomlord1122/todo-service/internal/config"
	"github.com/Tomlord1122/todo-service/internal/domain"
)

var logger = loggo.GetLogger("todo.database")

// Service exposes the GORM handle plus pool lifecycle and health.
type Service interface {
	Health() map[string]string
	Close() error
	GetDB() *gorm.DB
	// EnsureSchema creates the todos table when it does not exist yet.
	EnsureSchema() error
}

type service struct {
	db   *gorm.DB
	name string
}

// gormWriter routes GORM's SQL log through loggo.
type gormWriter struct {
	logger loggo.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Debugf(format, args...)
}

// New opens a pgx-backed connection pool and wraps it in GORM.
func New(cfg config.Database) (Service, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.NewNotValid(err, "parsing database settings")
	}
	if cfg.Schema != "" {
		connConfig.RuntimeParams["search_path"] = cfg.Schema
	}
	sqlDB := stdlib.OpenDB(*connConfig)

	// Set connection pool settings (important for production)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	newLogger := gormlogger.New(
		gormWriter{logger: loggo.GetLogger("todo.database.gorm")},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, errors.Annotatef(err, "connecting to database %q at %s", cfg.Name, cfg.Host)
	}

	logger.Infof("connected to database %q at %s:%s", cfg.Name, cfg.Host, cfg.Port)
	return &service{db: db, name: cfg.Name}, nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

func (s *service) EnsureSchema() error {
	return errors.Annotate(s.db.AutoMigrate(&domain.Todo{}), "creating todos table")
}

// Health pings the pool and reports its usage alongside the number of
// stored todos.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := map[string]string{"store": "postgres", "database": s.name}
	down := func(err error) map[string]string {
		logger.Errorf("database %q unhealthy: %v", s.name, err)
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return down(errors.Annotate(err, "getting underlying sql.DB"))
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return down(errors.Annotate(err, "pinging database"))
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Todo{}).Count(&count).Error; err != nil {
		return down(errors.Annotate(err, "counting todos"))
	}

	dbStats := sqlDB.Stats()
	stats["status"] = "up"
	stats["todos"] = strconv.FormatInt(count, 10)
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	return stats
}

func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Annotate(err, "getting underlying sql.DB for closing")
	}
	logger.Infof("closing connection pool for database %q", s.name)
	return sqlDB.Close()
}
