package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/app/background"
	"github.com/LavaJover/shvark-payment-service/internal/app/setup"
	"github.com/LavaJover/shvark-payment-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/migrate"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}

	deps, err := setup.InitializeDependencies()
	if err != nil {
		log.Fatalf("failed to init dependencies: %v\n", err)
	}

	if err := migrate.RunMigrations(deps.DB, deps.Config.PaymentDB.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v\n", err)
	}

	useCases, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v\n", err)
	}

	tasks := background.NewBackgroundTasks(
		useCases.PaymentUsecase,
		time.Duration(deps.Config.BankFeed.PollIntervalSeconds)*time.Second,
	)
	tasks.StartAll(context.Background())

	router := gin.Default()
	paymentHandler := handlers.NewPaymentHandler(useCases.PaymentUsecase)
	paymentHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	address := fmt.Sprintf("%s:%s", deps.Config.HTTPServer.Host, deps.Config.HTTPServer.Port)
	log.Printf("payment service started on %s\n", address)
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}
