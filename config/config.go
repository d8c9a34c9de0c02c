package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	ShipTrack ShipTrackConfig `yaml:"shiptrack"`
}

type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	StaticDir   string `yaml:"static_dir"`
	SwaggerPath string `yaml:"swagger_path"`
	// IANA zone for timeline display strings, UTC when empty.
	Timezone string `yaml:"timezone"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" | "postgres"
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Host пустой - Kafka не используется.
type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ShipmentChangedTopicName string `yaml:"shipment_changed_topic_name"`
	ShipmentStatusTopicName  string `yaml:"shipment_status_topic_name"`
}

// Host пустой - Redis не используется.
type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ShipTrackConfig struct {
	KafkaConsumerGroup      string `yaml:"kafka_consumer_group"`
	ShipmentCacheTTLSeconds int    `yaml:"shipment_cache_ttl_seconds"`
	EventsLimit             int    `yaml:"events_limit"`
	TrackRateLimitPerMinute int    `yaml:"track_rate_limit_per_minute"`
	TimelineRecheckSeconds  int    `yaml:"timeline_recheck_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}
