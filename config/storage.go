package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects where cache entries and auth sessions are persisted.
type StorageBackend string

const (
	// StorageMemory keeps everything in process; nothing survives a restart.
	StorageMemory StorageBackend = "memory"
	// StorageRedis uses the Redis connection from RedisConfig.
	StorageRedis StorageBackend = "redis"
	// StoragePostgres uses the kv_store table in the database from DBConfig.
	StoragePostgres StorageBackend = "postgres"
	// StorageFile keeps a JSON document at FilePath so state survives between CLI runs.
	StorageFile StorageBackend = "file"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres", "file":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, redis, postgres, file)", v)
	}
}

// StorageConfig contains key-value storage configuration.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"memory"`

	// KeyPrefix namespaces keys in shared Redis databases and tables.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"idnremote:"`

	// FilePath is the document used by the file backend. The CLI falls back to its
	// user config directory when empty.
	FilePath string `env:"STORAGE_FILE_PATH"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageMemory
	}
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
	c.FilePath = strings.TrimSpace(c.FilePath)
}
