package config

import (
	"path/filepath"
	"strconv"
	"strings"
)

// SessionBackend selects where the token pair is persisted.
type SessionBackend string

const (
	SessionBackendFile   SessionBackend = "file"
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionBackend() SessionBackend {
	switch b := SessionBackend(strings.ToLower(GetEnv("SESSION_BACKEND", string(SessionBackendFile)))); b {
	case SessionBackendFile, SessionBackendMemory, SessionBackendRedis:
		return b
	default:
		return SessionBackendFile
	}
}

func (Session) GetSessionFile() string {
	return GetEnv("SESSION_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "session.json"))
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Session) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Session) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

func (Session) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "storefront:")
}
