package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type PaymentConfig struct {
	Env string 			`yaml:"env"`
	HTTPServer 			`yaml:"http_server"`
	PaymentDB 			`yaml:"payment_db"`
	LogConfig 			`yaml:"log_config"`
	KafkaService 		`yaml:"kafka-service"`
	ReservationService 	`yaml:"reservation-service"`
	BankFeed 			`yaml:"bank-feed"`
	Offline 	OfflineConfig 	 `yaml:"offline"`
	Providers 	ProviderSettings `yaml:"providers"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type PaymentDB struct {
	Dsn 		   string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel 	string 	`yaml:"log_level"`
	LogFormat 	string 	`yaml:"log_format"`
	LogOutput 	string 	`yaml:"log_output"`
}

type KafkaService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type ReservationService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type BankFeed struct {
	BaseURL 			string `yaml:"base_url"`
	APIKey 				string `yaml:"api_key"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

type OfflineConfig struct {
	WaitingDays int  	`yaml:"waiting_days"`
	GraceHours 	int  	`yaml:"grace_hours"`
	AutoConfirm bool 	`yaml:"auto_confirm"`
	WorkingDays []string `yaml:"working_days"`
}

// ProviderSettings is the externally supplied key-value configuration per
// provider, layered by scope. Any subset of keys may be absent; an incomplete
// provider is inactive, never a startup failure.
type ProviderSettings struct {
	System 		  map[string]string 		   `yaml:"system"`
	Organizations map[string]map[string]string `yaml:"organizations"`
	Contexts 	  map[string]map[string]string `yaml:"contexts"`
}

func MustLoad() *PaymentConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PAYMENT_CONFIG_PATH")

	if configPath == ""{
		log.Fatalf("PAYMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil{
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg PaymentConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil{
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
