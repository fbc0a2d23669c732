// Package config loads process settings from TXFEED_* environment variables.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/validator"
)

const prefix = "TXFEED"

// ErrAccountRequired is returned by ValidateServer when TXFEED_ACCOUNT is unset.
var ErrAccountRequired = errors.New("TXFEED_ACCOUNT is required to serve")

const (
	CheckpointFile  = "file"
	CheckpointRedis = "redis"

	SourceAlgorand = "algorand"
	SourceRedis    = "redis"
	SourceKafka    = "kafka"
)

type Redis struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379" validate:"required"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"gte=0"`
}

type Kafka struct {
	Brokers []string `envconfig:"BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"TOPIC" default:"txfeed.events"`
	GroupID string   `envconfig:"GROUP_ID" default:"txfeed"`
}

type Config struct {
	// Account is only needed by the server; viewers leave it empty.
	Account           string `envconfig:"ACCOUNT"`
	MaxLogSize        int    `envconfig:"MAX_LOG_SIZE" default:"10" validate:"gt=0"`
	MaxPendingOrphans int    `envconfig:"MAX_PENDING_ORPHANS" default:"32" validate:"gt=0"`

	ReconnectBackoff time.Duration `envconfig:"RECONNECT_BACKOFF" default:"3s" validate:"gt=0"`

	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":3001" validate:"required"`
	SnapshotPath string `envconfig:"SNAPSHOT_PATH" default:"/api/transactions" validate:"startswith=/"`
	LivePath     string `envconfig:"LIVE_PATH" default:"/ws" validate:"startswith=/"`
	ServerURL    string `envconfig:"SERVER_URL" default:"http://localhost:3001" validate:"url"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"txfeed" validate:"required"`

	CheckpointBackend    string `envconfig:"CHECKPOINT_BACKEND" default:"file" validate:"oneof=file redis"`
	CheckpointFile       string `envconfig:"CHECKPOINT_FILE" default:"latest-transactions.json" validate:"required_if=CheckpointBackend file"`
	CheckpointQueueDepth int    `envconfig:"CHECKPOINT_QUEUE_DEPTH" default:"1" validate:"gt=0"`

	Source               string        `envconfig:"SOURCE" default:"algorand" validate:"oneof=algorand redis kafka"`
	AlgorandIndexerURL   string        `envconfig:"ALGORAND_INDEXER_URL" default:"https://testnet-idx.algonode.cloud" validate:"required_if=Source algorand"`
	AlgorandPollInterval time.Duration `envconfig:"ALGORAND_POLL_INTERVAL" default:"4s" validate:"gt=0"`
	RedisStream          string        `envconfig:"REDIS_STREAM" default:"txfeed:events" validate:"required_if=Source redis"`

	// Nested keys read as TXFEED_REDIS_ADDR, TXFEED_KAFKA_TOPIC and so on.
	Redis Redis `envconfig:"REDIS"`
	Kafka Kafka `envconfig:"KAFKA"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateServer checks the settings only the ingesting server needs.
func (c Config) ValidateServer() error {
	if err := validator.Var(c.Account, "required"); err != nil {
		return errors.Join(ErrAccountRequired, err)
	}
	return nil
}
