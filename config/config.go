package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	AppEnv string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	OrdersTopic   string
	OrdersGroupID string
	CountsTopic   string
	CountsGroupID string
}

type InventoryConfig struct {
	// CountTolerance is the absolute quantity variance a count sheet item may
	// carry and still be auto-approved without a reason code.
	CountTolerance string
	// ExpiryWarningDays controls how far ahead the sweeper looks for
	// batches nearing expiration.
	ExpiryWarningDays int
	// SweepIntervalSeconds is the tick of the reservation/expiry sweeper.
	SweepIntervalSeconds int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "dev"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "inventory"),
			Password:        getEnv("POSTGRES_PASSWORD", "inventory"),
			DBName:          getEnv("POSTGRES_DB", "inventory"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MigrationsPath:  getEnv("POSTGRES_MIGRATIONS_PATH", "migrations"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:   getEnv("KAFKA_TOPIC_INVENTORY_EVENTS", "inventory.events"),
			OrdersTopic:   getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			OrdersGroupID: getEnv("KAFKA_GROUP_INVENTORY", "inventory"),
			CountsTopic:   getEnv("KAFKA_TOPIC_COUNTS", "counts.events"),
			CountsGroupID: getEnv("KAFKA_GROUP_COUNTS", "inventory-counts"),
		},
		Inventory: InventoryConfig{
			CountTolerance:       getEnv("INVENTORY_COUNT_TOLERANCE", "0"),
			ExpiryWarningDays:    getEnvInt("INVENTORY_EXPIRY_WARNING_DAYS", 7),
			SweepIntervalSeconds: getEnvInt("INVENTORY_SWEEP_INTERVAL_SECONDS", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
