package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	ClientConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshPath() string
	GetFeaturedCount() int
}

type SessionConfig interface {
	GetSessionBackend() SessionBackend
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type mainConfig struct {
	EnvVars
	Client
	Session
}

// New loads a .env file from the working directory when one exists and
// returns a Config backed by the process environment.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
