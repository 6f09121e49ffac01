// Package config loads the rowkit command configuration.
//
// Values are merged in this order, later sources win: defaults, the yaml
// config file, ROWKIT_ environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"

	CacheNone   = ""
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var ErrNoDataSource = errors.New("config: 没有配置 dsn")

// Config holds every option of the rowkit command.
type Config struct {
	Driver  string        `koanf:"driver"`
	DSN     string        `koanf:"dsn"`
	Verbose bool          `koanf:"verbose"`
	MySQL   *MySQLConfig  `koanf:"mysql"`
	Cache   CacheConfig   `koanf:"cache"`
	Tracing TracingConfig `koanf:"tracing"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// MySQLConfig 没有配置 dsn 的时候用来拼接 MySQL 的 dsn
type MySQLConfig struct {
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Params   map[string]string `koanf:"params"`
}

// CacheConfig 行缓存，Type 为空的时候不使用缓存
type CacheConfig struct {
	Type       string        `koanf:"type"`
	Expiration time.Duration `koanf:"expiration"`
	Addr       string        `koanf:"addr"`
	Prefix     string        `koanf:"prefix"`
}

// TracingConfig Exporter 为空的时候不开启链路追踪
type TracingConfig struct {
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Driver: DriverSQLite,
		Cache: CacheConfig{
			Expiration: 15 * time.Minute,
			Addr:       "localhost:6379",
			Prefix:     "rowkit",
		},
		Tracing: TracingConfig{
			ServiceName: "rowkit",
		},
		Metrics: MetricsConfig{
			Namespace: "rowkit",
		},
	}
}

// Validate checks the fields that can not be fixed by defaults.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("config: 不支持的 driver %q", c.Driver)
	}
	switch c.Cache.Type {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("config: 不支持的缓存类型 %q", c.Cache.Type)
	}
	return nil
}

// DataSource 优先使用 dsn，MySQL 可以使用 mysql 小节拼接出来
func (c *Config) DataSource() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.Driver != DriverMySQL || c.MySQL == nil {
		return "", ErrNoDataSource
	}
	mc := mysql.NewConfig()
	mc.User = c.MySQL.User
	mc.Passwd = c.MySQL.Password
	mc.Net = "tcp"
	port := c.MySQL.Port
	if port == 0 {
		port = 3306
	}
	mc.Addr = net.JoinHostPort(c.MySQL.Host, strconv.Itoa(port))
	mc.DBName = c.MySQL.Database
	mc.ParseTime = true
	if len(c.MySQL.Params) > 0 {
		mc.Params = c.MySQL.Params
	}
	return mc.FormatDSN(), nil
}
