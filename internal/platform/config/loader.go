package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables. The given dotenv
// files (".env" when none are given) are loaded first if they exist;
// variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("invalid BEST_TIME_STORE: %q (must be sqlite, redis or memory)", c.StoreBackend)
	}
	if c.StoreBackend == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
	}

	switch c.WireFormat {
	case "json", "msgpack":
	default:
		return fmt.Errorf("invalid WIRE_FORMAT: %q (must be json or msgpack)", c.WireFormat)
	}

	if c.TickRateHz < 1 || c.TickRateHz > 1000 {
		return fmt.Errorf("invalid TICK_RATE_HZ: %d (must be 1-1000)", c.TickRateHz)
	}
	if c.SnapshotRateHz < 1 || c.SnapshotRateHz > c.TickRateHz {
		return fmt.Errorf("invalid SNAPSHOT_RATE_HZ: %d (must be 1-%d)", c.SnapshotRateHz, c.TickRateHz)
	}
	if c.ProfileID == "" {
		return fmt.Errorf("PROFILE_ID must not be empty")
	}

	for name, v := range map[string]int{
		"INPUT_BUFFER":             c.InputBuffer,
		"EVENT_CHANNEL_BUFFER":     c.EventChannelBuffer,
		"BROADCAST_CHANNEL_BUFFER": c.BroadcastChannelBuffer,
		"CLIENT_SEND_BUFFER":       c.ClientSendBuffer,
		"REDIS_POOL_SIZE":          c.RedisPoolSize,
	} {
		if v < 1 {
			return fmt.Errorf("invalid %s: %d (must be positive)", name, v)
		}
	}
	// Zero lifts the limit.
	for name, v := range map[string]int{
		"MAX_MESSAGES_PER_SECOND": c.MaxMessagesPerSecond,
		"MAX_CLIENTS":             c.MaxClients,
	} {
		if v < 0 {
			return fmt.Errorf("invalid %s: %d (must be 0 for unlimited or positive)", name, v)
		}
	}
	return nil
}
