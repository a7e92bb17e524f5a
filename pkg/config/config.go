package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Weather   WeatherConfig
	Ports     PortsConfig
	Broadcast BroadcastConfig
	Archiver  ArchiverConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers          []string
	TopicPositions   string
	TopicPredictions string
	GroupID          string
	NumPartitions    int
}

type WeatherConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PortsConfig struct {
	// CatalogPath points at a JSON port catalog; empty uses the built-in ports
	CatalogPath string
}

type BroadcastConfig struct {
	QueueSize int
}

type ArchiverConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	Retention     time.Duration
	PurgeInterval time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "vesseleta_user"),
			Password: getEnv("DB_PASSWORD", "vesseleta_pass"),
			DBName:   getEnv("DB_NAME", "vesseleta_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:          strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicPositions:   getEnv("KAFKA_TOPIC_POSITIONS", "raw-ais-positions"),
			TopicPredictions: getEnv("KAFKA_TOPIC_PREDICTIONS", "eta-predictions"),
			GroupID:          getEnv("KAFKA_GROUP_ID", "vessel-eta-group"),
			NumPartitions:    getEnvAsInt("KAFKA_NUM_PARTITIONS", 10),
		},
		Weather: WeatherConfig{
			BaseURL: getEnv("WEATHER_BASE_URL", "https://marine-api.open-meteo.com/v1/marine"),
			Timeout: getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second),
		},
		Ports: PortsConfig{
			CatalogPath: getEnv("PORTS_FILE", ""),
		},
		Broadcast: BroadcastConfig{
			QueueSize: getEnvAsInt("BROADCAST_QUEUE_SIZE", 256),
		},
		Archiver: ArchiverConfig{
			BatchSize:     getEnvAsInt("ARCHIVER_BATCH_SIZE", 100),
			FlushInterval: getEnvAsDuration("ARCHIVER_FLUSH_INTERVAL", 5*time.Second),
			Retention:     getEnvAsDuration("ARCHIVER_RETENTION", 7*24*time.Hour),
			PurgeInterval: getEnvAsDuration("ARCHIVER_PURGE_INTERVAL", time.Hour),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
