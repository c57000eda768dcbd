package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jujuerrors "github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Tomlord1122/todo-service/internal/config"
	"github.com/Tomlord1122/todo-service/internal/database"
	"github.com/Tomlord1122/todo-service/internal/domain"
	"github.com/Tomlord1122/todo-service/internal/repository"
	"github.com/Tomlord1122/todo-service/internal/server"
	"github.com/Tomlord1122/todo-service/internal/service"

	_ "github.com/joho/godotenv/autoload"
)

var logger = loggo.GetLogger("todo.main")

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Infof("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			logger.Errorf("closing database connection pool: %v", err)
		}
	}

	logger.Infof("server exiting")
	done <- true
}

// openStore returns the repository selected by cfg. dbService is nil for
// the in-memory store.
func openStore(cfg config.Config) (repository.TodoRepository, database.Service, error) {
	if cfg.Store != config.StorePostgres {
		logger.Infof("using in-memory todo store")
		return repository.NewMemoryTodoRepository(), nil, nil
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, jujuerrors.Trace(err)
	}
	if err := dbService.EnsureSchema(); err != nil {
		_ = dbService.Close()
		return nil, nil, jujuerrors.Trace(err)
	}
	return repository.NewGormTodoRepository(dbService.GetDB()), dbService, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return jujuerrors.Annotate(err, "loading config")
	}
	if err := loggo.ConfigureLoggers(cfg.LogConfig); err != nil {
		return jujuerrors.Annotatef(err, "configuring loggers from %q", cfg.LogConfig)
	}

	todoRepo, dbService, err := openStore(cfg)
	if err != nil {
		return jujuerrors.Annotate(err, "opening todo store")
	}
	if cfg.Seed {
		if err := todoRepo.Seed(context.Background(), domain.SeedTodos()); err != nil {
			return jujuerrors.Annotate(err, "seeding todo store")
		}
	}

	var health server.HealthChecker = todoRepo
	if dbService != nil {
		health = dbService
	}

	todoService := service.NewTodoService(todoRepo)
	apiServer := server.NewServer(cfg.Port, todoService, health)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, done)

	logger.Infof("starting server on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		if dbService != nil {
			_ = dbService.Close()
		}
		return jujuerrors.Annotate(err, "serving HTTP")
	}

	<-done
	logger.Infof("graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}
