package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Broadcast driver names accepted in BROADCAST_DRIVER.
const (
	DriverPusher = "pusher"
	DriverRedis  = "redis"
	DriverLog    = "log"
	DriverNull   = "null"
	DriverAbly   = "ably"
)

type Config struct {
	Port       string
	GinMode    string
	LogLevel   string
	LogFormat  string
	JWTSecret  string
	CORSOrigin string

	// InternalKey guards the /internal hooks through X-Internal-Key. Empty
	// leaves them open.
	InternalKey string
	RateLimit   RateLimitConfig
	Database    DatabaseConfig
	Broadcast   BroadcastConfig
}

// RateLimitConfig bounds inbox requests per user. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type DatabaseConfig struct {
	Driver string // sqlite | mysql
	DSN    string
}

// BroadcastConfig holds the selected real-time driver and the credentials of
// every driver. Only the selected driver's block is consulted.
type BroadcastConfig struct {
	Driver  string
	Timeout time.Duration
	Pusher  PusherConfig
	Redis   RedisConfig
	Ably    AblyConfig
}

type PusherConfig struct {
	Key     string
	Secret  string
	AppID   string
	Cluster string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AblyConfig struct {
	Key string
}

// Load -> reads .env (if any) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:        v.GetString("APP_PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigin:  v.GetString("CORS_ORIGIN"),
		InternalKey: v.GetString("INTERNAL_API_KEY"),
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DB_DSN"),
		},
		Broadcast: BroadcastConfig{
			Driver:  strings.ToLower(strings.TrimSpace(v.GetString("BROADCAST_DRIVER"))),
			Timeout: v.GetDuration("BROADCAST_TIMEOUT"),
			Pusher: PusherConfig{
				Key:     v.GetString("PUSHER_APP_KEY"),
				Secret:  v.GetString("PUSHER_APP_SECRET"),
				AppID:   v.GetString("PUSHER_APP_ID"),
				Cluster: v.GetString("PUSHER_APP_CLUSTER"),
			},
			Redis: RedisConfig{
				Host:     v.GetString("REDIS_HOST"),
				Port:     v.GetInt("REDIS_PORT"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
			},
			Ably: AblyConfig{
				Key: v.GetString("ABLY_KEY"),
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("INTERNAL_API_KEY", "")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "nexusesi.db")
	v.SetDefault("BROADCAST_DRIVER", DriverLog)
	v.SetDefault("BROADCAST_TIMEOUT", 5*time.Second)
	v.SetDefault("PUSHER_APP_KEY", "")
	v.SetDefault("PUSHER_APP_SECRET", "")
	v.SetDefault("PUSHER_APP_ID", "")
	v.SetDefault("PUSHER_APP_CLUSTER", "")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ABLY_KEY", "")
}
