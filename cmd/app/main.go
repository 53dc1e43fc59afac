package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fooddelivery/cmd"
	"fooddelivery/internal/adapters/out/eventbus"
	"fooddelivery/internal/adapters/out/postgres/deliveryrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultEventBusBuffer = 64

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB, err := openDatabase(configs)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	root, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build composition root: %v", err)
	}

	go consumeNotifications(root.EventBus(), logger)

	jobManager := root.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}

	e := echo.New()
	server, err := root.CreateServer()
	if err != nil {
		log.Fatalf("Failed to create HTTP server: %v", err)
	}
	server.RegisterRoutes(e)

	go func() {
		if startErr := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); startErr != nil {
			logger.Info("web server stopped", "error", startErr)
		}
	}()

	waitForShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
	jobManager.StopAll()
	root.EventBus().Close()

	// In-flight saga state is process-local; abandoned suspensions are logged
	// so operators can reconcile the affected deliveries.
	for _, stepID := range root.Registry().Drain() {
		logger.Warn("abandoning suspended step at shutdown", "step_id", stepID)
	}
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:       goDotEnvVariable("HTTP_PORT"),
		DBHost:         goDotEnvVariable("DB_HOST"),
		DBPort:         goDotEnvVariable("DB_PORT"),
		DBUser:         goDotEnvVariable("DB_USER"),
		DBPassword:     goDotEnvVariable("DB_PASSWORD"),
		DBName:         goDotEnvVariable("DB_NAME"),
		DBSslMode:      goDotEnvVariable("DB_SSLMODE"),
		EventBusBuffer: intEnvVariable("EVENT_BUS_BUFFER", defaultEventBusBuffer),
	}
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func intEnvVariable(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid value for %s: %v", key, err)
	}
	return value
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = gormDB.AutoMigrate(
		&deliveryrepo.DeliveryDTO{},
		&deliveryrepo.ItemDTO{},
		&deliveryrepo.PendingDriverDTO{},
	)
	if err != nil {
		return nil, err
	}

	return gormDB, nil
}

// consumeNotifications drains the restaurant notification channel. The log
// line stands in for the push to the restaurant's device; the bus is the
// integration point for a real transport.
func consumeNotifications(bus *eventbus.ChannelEventBus, logger *slog.Logger) {
	for event := range bus.Channel() {
		logger.Info("notification published", "event", event.Name, "payload", event.Payload)
	}
}

func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
