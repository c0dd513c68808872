package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration shared by every service role.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Roles       RolesConfig       `mapstructure:"roles"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Database    DatabaseConfig    `mapstructure:"database"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	Bus         BusConfig         `mapstructure:"bus"`
	KV          KVConfig          `mapstructure:"kv"`
}

type ServerConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RolesConfig holds the listen settings of each role server. Only the
// dispatched role's entry is read at runtime.
type RolesConfig struct {
	Task        RoleConfig `mapstructure:"task"`
	Worker      RoleConfig `mapstructure:"worker"`
	Performance RoleConfig `mapstructure:"performance"`
}

type RoleConfig struct {
	Port int `mapstructure:"port"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	LogLevel     string `mapstructure:"log_level"`
}

// BreakerConfig tunes the circuit breaker wrapped around every connector.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN renders the libpq URL understood by pgxpool.ParseConfig.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DB, c.SSLMode,
	)
}

type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

type BusConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type KVConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the go-redis client.
func (c KVConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the TASKMANAGER_ prefix
// (e.g. TASKMANAGER_DATABASE_HOST).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TASKMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("roles.task.port", 8081)
	v.SetDefault("roles.worker.port", 8082)
	v.SetDefault("roles.performance.port", 8083)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("breaker.max_failures", 3)
	v.SetDefault("breaker.open_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.db", "sanbercode")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("object_store.endpoint", "localhost:9000")
	v.SetDefault("object_store.access_key", "minioadmin")
	v.SetDefault("object_store.secret_key", "minioadmin")
	v.SetDefault("object_store.use_ssl", false)
	v.SetDefault("object_store.region", "")
	v.SetDefault("object_store.bucket", "task-manager")

	v.SetDefault("bus.url", "nats://localhost:4222")
	v.SetDefault("bus.name", "task-manager")

	v.SetDefault("kv.host", "localhost")
	v.SetDefault("kv.port", 6379)
	v.SetDefault("kv.db", 0)
}
