package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/khanghh/ktoken/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
	DefaultSQLiteDSN  = "file:ktoken.db"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	CacheBackendNone   = ""
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Dsn             string        `mapstructure:"dsn"`
	TablePrefix     string        `mapstructure:"tablePrefix"`
	Replicas        []string      `mapstructure:"replicas"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type Config struct {
	Debug        bool           `mapstructure:"debug"`
	ListenAddr   string         `mapstructure:"listenAddr"`
	APIKey       string         `mapstructure:"apiKey"`
	AllowOrigins []string       `mapstructure:"allowOrigins"`
	Audit        bool           `mapstructure:"audit"`
	Database     DatabaseConfig `mapstructure:"database"`
	Cache        CacheConfig    `mapstructure:"cache"`
	Redis        RedisConfig    `mapstructure:"redis"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.APIKey == "" {
		c.APIKey = params.DefaultAPIKey
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = params.DefaultCacheTTL
	}

	switch c.Database.Driver {
	case "", DriverSQLite:
		c.Database.Driver = DriverSQLite
		if c.Database.Dsn == "" {
			c.Database.Dsn = DefaultSQLiteDSN
		}
		if len(c.Database.Replicas) > 0 {
			return errors.New("database replicas are only supported with the mysql driver")
		}
	case DriverMySQL:
		dsn, err := normalizeMySQLDsn(c.Database.Dsn)
		if err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
		c.Database.Dsn = dsn
		for i, replica := range c.Database.Replicas {
			dsn, err := normalizeMySQLDsn(replica)
			if err != nil {
				return fmt.Errorf("invalid mysql replica dsn: %w", err)
			}
			c.Database.Replicas[i] = dsn
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.URL == "" {
			return errors.New("redis url is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	return nil
}

// normalizeMySQLDsn forces time parsing in UTC, which token timestamps rely on.
func normalizeMySQLDsn(dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("empty dsn")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// LoadConfig reads the YAML file at filename, if any, and overlays environment
// variables. Nested keys map to upper case variables with "." replaced by "_",
// the API key is also read from API_KEY.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("apiKey", "API_KEY"); err != nil {
		return nil, err
	}

	v.SetDefault("debug", false)
	v.SetDefault("listenAddr", DefaultListenAddr)
	v.SetDefault("allowOrigins", []string{"*"})
	v.SetDefault("audit", true)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.tablePrefix", "")
	v.SetDefault("database.replicas", []string{})
	v.SetDefault("database.maxIdleConns", 0)
	v.SetDefault("database.maxOpenConns", 0)
	v.SetDefault("database.connMaxLifetime", time.Duration(0))
	v.SetDefault("cache.backend", CacheBackendNone)
	v.SetDefault("cache.ttl", params.DefaultCacheTTL)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.poolSize", 0)
	v.SetDefault("redis.clusterMode", false)

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
