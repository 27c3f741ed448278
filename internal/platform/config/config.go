// Package config loads server settings from the environment and gameplay
// tuning from an optional YAML file.
package config

import "time"

// Config holds all server configuration loaded from environment variables.
// Field tags follow github.com/caarlos0/env: `env` names the variable and
// `envDefault` sets its default.
type Config struct {
	// Server
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Simulation
	TuningPath string `env:"TUNING_PATH"`
	TickRateHz int    `env:"TICK_RATE_HZ" envDefault:"60"`
	ProfileID  string `env:"PROFILE_ID" envDefault:"local"`

	// Best time storage: sqlite, redis or memory
	StoreBackend string `env:"BEST_TIME_STORE" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"overheat.db"`

	// Redis
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"500"`

	// Event log
	PersistEvents      bool `env:"PERSIST_EVENTS" envDefault:"true"`
	EventLogCapacity   int  `env:"EVENT_LOG_CAPACITY" envDefault:"10000"`
	EventChannelBuffer int  `env:"EVENT_CHANNEL_BUFFER" envDefault:"1024"`

	// Network
	WireFormat             string `env:"WIRE_FORMAT" envDefault:"json"`
	SnapshotRateHz         int    `env:"SNAPSHOT_RATE_HZ" envDefault:"20"`
	InputBuffer            int    `env:"INPUT_BUFFER" envDefault:"256"`
	BroadcastChannelBuffer int    `env:"BROADCAST_CHANNEL_BUFFER" envDefault:"256"`
	ClientSendBuffer       int    `env:"CLIENT_SEND_BUFFER" envDefault:"64"`
	MaxMessagesPerSecond   int    `env:"MAX_MESSAGES_PER_SECOND" envDefault:"100"` // 0 means unlimited
	MaxClients             int    `env:"MAX_CLIENTS" envDefault:"200"`             // 0 means unlimited
}

// TickInterval returns the real-time frame period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

// SnapshotInterval returns how often snapshots are pushed to clients.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Second / time.Duration(c.SnapshotRateHz)
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisRetryDelay returns the initial backoff between Redis connection attempts.
func (c *Config) RedisRetryDelay() time.Duration {
	return time.Duration(c.RedisRetryDelayMs) * time.Millisecond
}
