package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string

	// EventBusBuffer is the dispatcher's bounded event queue length.
	EventBusBuffer int

	// ClientSendBuffer is each websocket subscriber's outbound queue length.
	ClientSendBuffer int

	// InitialSnapshotLimit bounds the initial_data payload per connection.
	InitialSnapshotLimit int
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Environment variables win over .env values, which win over
// defaults.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("EVENT_BUS_BUFFER", 1024)
	viper.SetDefault("CLIENT_SEND_BUFFER", 256)
	viper.SetDefault("INITIAL_SNAPSHOT_LIMIT", 100)

	viper.AutomaticEnv()

	cfg := &Config{
		Port:                 viper.GetString("PORT"),
		IsProduction:         viper.GetBool("IS_PRODUCTION"),
		RateLimit:            viper.GetString("RATE_LIMIT"),
		EventBusBuffer:       viper.GetInt("EVENT_BUS_BUFFER"),
		ClientSendBuffer:     viper.GetInt("CLIENT_SEND_BUFFER"),
		InitialSnapshotLimit: viper.GetInt("INITIAL_SNAPSHOT_LIMIT"),
	}
	return cfg, nil
}
