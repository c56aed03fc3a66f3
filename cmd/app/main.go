package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"fleet/cmd"
	httpserver "fleet/internal/adapters/in/http"
	"fleet/internal/adapters/out/postgres/noderepo"
	"fleet/internal/adapters/out/postgres/orderrepo"
	"fleet/internal/adapters/out/postgres/robotrepo"
	"fleet/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	config := getConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := openDatabase(config)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	root, err := cmd.NewCompositionRoot(config, db)
	if err != nil {
		log.Fatalf("Failed to build composition root: %v", err)
	}

	ctx := context.Background()
	if err := root.WarmStateStore(ctx); err != nil {
		log.Fatalf("Failed to warm state store: %v", err)
	}

	if config.RedisAddr != "" {
		relay := root.CreateRedisRelay()
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "Redis relay stopped", "error", err)
			}
		}()
	}

	jobManager := jobs.NewJobManager(
		root.CreateDispatchOrdersCommandHandler(),
		root.CreateMoveRobotsCommandHandler(),
		logger,
	)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(root, config.HTTPPort)
}

func openDatabase(config cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser,
		config.DBPassword, config.DBName, config.DBSslMode,
	)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&noderepo.NodeDTO{},
		&robotrepo.RobotDTO{},
		&orderrepo.OrderDTO{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

func getConfig() cmd.Config {
	return cmd.Config{
		HTTPPort:          goDotEnvVariable("HTTP_PORT"),
		DBHost:            goDotEnvVariable("DB_HOST"),
		DBPort:            goDotEnvVariable("DB_PORT"),
		DBUser:            goDotEnvVariable("DB_USER"),
		DBPassword:        goDotEnvVariable("DB_PASSWORD"),
		DBName:            goDotEnvVariable("DB_NAME"),
		DBSslMode:         goDotEnvVariable("DB_SSLMODE"),
		RedisAddr:         goDotEnvVariable("REDIS_ADDR"),
		RedisStreamMaxLen: envInt("REDIS_STREAM_MAXLEN", 10000),
		ReserveBattery:    envFloat("RESERVE_BATTERY", 0.2),
		CostPerKm:         envFloat("COST_PER_KM", 0.001),
		StepKm:            envFloat("STEP_KM", 0.5),
		ChargeRate:        envFloat("CHARGE_RATE", 0.05),
	}
}

func goDotEnvVariable(key string) string {
	_ = godotenv.Load(".env")
	return os.Getenv(key)
}

func envFloat(key string, fallback float64) float64 {
	raw := goDotEnvVariable(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
}

func envInt(key string, fallback int64) int64 {
	raw := goDotEnvVariable(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
}

func startWebServer(root *cmd.CompositionRoot, port string) {
	e := echo.New()

	server := httpserver.NewServer(
		root.CreateCreateNodeCommandHandler(),
		root.CreateRemoveNodeCommandHandler(),
		root.CreateCreateRobotCommandHandler(),
		root.CreateDecommissionRobotCommandHandler(),
		root.CreateCreateOrderCommandHandler(),
		root.CreateCancelOrderCommandHandler(),
		root.CreateSettlePaymentCommandHandler(),
		root.CreateGetAllRobotsQueryHandler(),
		root.CreateGetActiveOrdersQueryHandler(),
		root.CreateGetUserOrdersQueryHandler(),
		root.Registry(),
	)
	server.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
