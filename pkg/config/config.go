package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Fees      FeesConfig      `mapstructure:"fees"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"` // signing secret for inbound events
	MaxSkewSeconds int    `mapstructure:"max_skew_seconds"`
}

type FeesConfig struct {
	PlatformFeeBps   int64 `mapstructure:"platform_fee_bps"`   // e.g. 800 = 8%
	MinDonationMinor int64 `mapstructure:"min_donation_minor"` // minimum donation in minor units
}

type RateLimitConfig struct {
	MaxAttempts   int64 `mapstructure:"max_attempts"`
	WindowSeconds int   `mapstructure:"window_seconds"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type ReconcileConfig struct {
	Schedule     string `mapstructure:"schedule"`      // cron spec, e.g. "@every 1m"
	GraceSeconds int    `mapstructure:"grace_seconds"` // leave fresh events to the inline path
	BatchSize    int    `mapstructure:"batch_size"`
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "funding_user")
	viper.SetDefault("db.password", "funding_password")
	viper.SetDefault("db.name", "funding_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("stripe.max_skew_seconds", 300)

	viper.SetDefault("fees.platform_fee_bps", 800)
	viper.SetDefault("fees.min_donation_minor", 100)

	viper.SetDefault("ratelimit.max_attempts", 10)
	viper.SetDefault("ratelimit.window_seconds", 60)

	viper.SetDefault("worker.concurrency", 10)

	viper.SetDefault("reconcile.schedule", "@every 1m")
	viper.SetDefault("reconcile.grace_seconds", 120)
	viper.SetDefault("reconcile.batch_size", 100)
}
