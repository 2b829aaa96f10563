package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-payment-service/internal/client"
	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/banksync"
	publisher "github.com/LavaJover/shvark-payment-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/postgres/repository"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.PaymentConfig
	DB           *gorm.DB
	Publisher    *publisher.DefaultKafkaPublisher
	TxRepo       domain.TransactionRepository
	Reservations domain.ReservationService
	BankFeed     domain.BankStatementFeed
	Resolver     *config.Resolver
	Metrics      *metrics.PaymentMetrics
}

func InitializeDependencies() (*Dependencies, error) {
	cfg := config.MustLoad()

	db := postgres.MustInitDB(cfg)

	kafkaPublisher := publisher.NewDefaultKafkaPublisher(
		[]string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)},
	)

	reservations, err := client.NewHTTPReservationClient(
		fmt.Sprintf("%s:%s", cfg.ReservationService.Host, cfg.ReservationService.Port),
	)
	if err != nil {
		return nil, fmt.Errorf("reservation client: %w", err)
	}

	return &Dependencies{
		Config: cfg,
		DB: db,
		Publisher: kafkaPublisher,
		TxRepo: repository.NewDefaultTransactionRepository(db),
		Reservations: reservations,
		BankFeed: banksync.NewHTTPStatementFeed(cfg.BankFeed.BaseURL, cfg.BankFeed.APIKey),
		Resolver: config.NewResolver(cfg.Providers),
		Metrics: metrics.NewPaymentMetrics(),
	}, nil
}
