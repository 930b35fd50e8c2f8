package utils

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Checkout CheckoutProviderConfig
	Iframe   IframeProviderConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Sweep    SweepConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type PaymentConfig struct {
	HoldDays              int
	PendingTimeoutMinutes int
	ProviderTimeoutSecs   int
}

// CheckoutProviderConfig configures the hosted checkout form rail.
type CheckoutProviderConfig struct {
	APIKey      string
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

// IframeProviderConfig configures the embedded iframe token rail.
type IframeProviderConfig struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
	BaseURL      string
	CallbackURL  string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
}

type RedisConfig struct {
	Addr             string
	Password         string
	StatusTTLSeconds int
}

type SweepConfig struct {
	IntervalMinutes int
	BatchSize       int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("HOLD_DAYS", 7)
	viper.SetDefault("PENDING_TIMEOUT_MINUTES", 15)
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 10)
	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKERS", "kafka:9092")
	viper.SetDefault("REDIS_STATUS_TTL_SECONDS", 30)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 5)
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Payment: PaymentConfig{
			HoldDays:              viper.GetInt("HOLD_DAYS"),
			PendingTimeoutMinutes: viper.GetInt("PENDING_TIMEOUT_MINUTES"),
			ProviderTimeoutSecs:   viper.GetInt("PROVIDER_TIMEOUT_SECONDS"),
		},
		Checkout: CheckoutProviderConfig{
			APIKey:      viper.GetString("CHECKOUT_API_KEY"),
			SecretKey:   viper.GetString("CHECKOUT_SECRET_KEY"),
			BaseURL:     viper.GetString("CHECKOUT_BASE_URL"),
			CallbackURL: viper.GetString("CHECKOUT_CALLBACK_URL"),
		},
		Iframe: IframeProviderConfig{
			MerchantID:   viper.GetString("IFRAME_MERCHANT_ID"),
			MerchantKey:  viper.GetString("IFRAME_MERCHANT_KEY"),
			MerchantSalt: viper.GetString("IFRAME_MERCHANT_SALT"),
			BaseURL:      viper.GetString("IFRAME_BASE_URL"),
			CallbackURL:  viper.GetString("IFRAME_CALLBACK_URL"),
		},
		Kafka: KafkaConfig{
			Enabled: viper.GetBool("KAFKA_ENABLED"),
			Brokers: strings.Split(viper.GetString("KAFKA_BROKERS"), ","),
		},
		Redis: RedisConfig{
			Addr:             viper.GetString("REDIS_ADDR"),
			Password:         viper.GetString("REDIS_PASS"),
			StatusTTLSeconds: viper.GetInt("REDIS_STATUS_TTL_SECONDS"),
		},
		Sweep: SweepConfig{
			IntervalMinutes: viper.GetInt("SWEEP_INTERVAL_MINUTES"),
			BatchSize:       viper.GetInt("SWEEP_BATCH_SIZE"),
		},
	}

	return config, nil
}
