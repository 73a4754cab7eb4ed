package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Elastic   ElasticsearchConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string
	ServiceName     string
	ShutdownTimeout time.Duration
	LocalesDir      string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

type JWTConfig struct {
	SecretKey  string
	CookieName string
	Issuer     string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type InventoryConfig struct {
	DefaultLowStockThreshold int
	ListCacheTTL             time.Duration
	AdjustLockTTL            time.Duration
}

// binding maps a config key to its environment variable and default value.
type binding struct {
	key string
	env string
	def interface{}
}

var bindings = []binding{
	{"server.app_env", "APP_ENV", "dev"},
	{"server.http_port", "HTTP_PORT", ":8080"},
	{"server.grpc_port", "GRPC_PORT", ":8082"},
	{"server.service_name", "SERVICE_NAME", "workshop-service"},
	{"server.shutdown_timeout", "SHUTDOWN_TIMEOUT", "10s"},
	{"server.locales_dir", "I18N_LOCALES_DIR", ""},

	{"logger.level", "LOGGER_LEVEL", "debug"},
	{"logger.encoding", "LOGGER_ENCODING", "console"},
	{"logger.disable_caller", "LOGGER_DISABLE_CALLER", false},
	{"logger.disable_stacktrace", "LOGGER_DISABLE_STACKTRACE", true},

	{"postgres.host", "POSTGRES_HOST", "localhost"},
	{"postgres.port", "POSTGRES_PORT", "5432"},
	{"postgres.user", "POSTGRES_USER", "workshop"},
	{"postgres.password", "POSTGRES_PASSWORD", "workshop"},
	{"postgres.db", "POSTGRES_DB", "workshop"},
	{"postgres.sslmode", "POSTGRES_SSLMODE", "disable"},
	{"postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS", 10},
	{"postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS", 5},
	{"postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME", 300},
	{"postgres.conn_max_idle_time", "POSTGRES_CONN_MAX_IDLE_TIME", 60},
	{"postgres.auto_migrate", "POSTGRES_AUTO_MIGRATE", false},

	{"jwt.secret_key", "JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"},
	{"jwt.cookie_name", "JWT_COOKIE_NAME", "access_token"},
	{"jwt.issuer", "JWT_ISSUER", "motohub-portal"},

	{"redis.enabled", "REDIS_ENABLED", true},
	{"redis.addr", "REDIS_ADDR", "localhost:6379"},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},

	{"kafka.enabled", "KAFKA_ENABLED", false},
	{"kafka.brokers", "KAFKA_BROKERS", "localhost:9092"},
	{"kafka.topic", "KAFKA_TOPIC_WORKSHOP", "workshop.events"},
	{"kafka.group_id", "KAFKA_GROUP_REALTIME", "workshop-realtime"},

	{"elastic.enabled", "ELASTICSEARCH_ENABLED", false},
	{"elastic.addresses", "ELASTICSEARCH_ADDRESSES", "http://localhost:9200"},
	{"elastic.username", "ELASTICSEARCH_USERNAME", ""},
	{"elastic.password", "ELASTICSEARCH_PASSWORD", ""},
	{"elastic.index", "ELASTICSEARCH_INDEX", "workshop-products"},

	{"inventory.default_low_stock_threshold", "INVENTORY_LOW_STOCK_THRESHOLD", 5},
	{"inventory.list_cache_ttl", "INVENTORY_LIST_CACHE_TTL", "5m"},
	{"inventory.adjust_lock_ttl", "INVENTORY_ADJUST_LOCK_TTL", "5s"},
}

// Load resolves the configuration from an optional config.yaml under paths,
// then environment variables, then defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, err
		}
	}

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	return &Config{
		Server: ServerConfig{
			AppEnv:          v.GetString("server.app_env"),
			HTTPPort:        v.GetString("server.http_port"),
			GRPCPort:        v.GetString("server.grpc_port"),
			ServiceName:     v.GetString("server.service_name"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			LocalesDir:      v.GetString("server.locales_dir"),
		},
		Logger: LoggerConfig{
			Level:             v.GetString("logger.level"),
			Encoding:          v.GetString("logger.encoding"),
			DisableCaller:     v.GetBool("logger.disable_caller"),
			DisableStacktrace: v.GetBool("logger.disable_stacktrace"),
		},
		Postgres: PostgresConfig{
			Host:            v.GetString("postgres.host"),
			Port:            v.GetString("postgres.port"),
			User:            v.GetString("postgres.user"),
			Password:        v.GetString("postgres.password"),
			DBName:          v.GetString("postgres.db"),
			SSLMode:         v.GetString("postgres.sslmode"),
			MaxOpenConns:    v.GetInt("postgres.max_open_conns"),
			MaxIdleConns:    v.GetInt("postgres.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("postgres.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("postgres.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("postgres.auto_migrate"),
		},
		JWT: JWTConfig{
			SecretKey:  v.GetString("jwt.secret_key"),
			CookieName: v.GetString("jwt.cookie_name"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: splitCSV(v.GetString("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
			GroupID: v.GetString("kafka.group_id"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   v.GetBool("elastic.enabled"),
			Addresses: splitCSV(v.GetString("elastic.addresses")),
			Username:  v.GetString("elastic.username"),
			Password:  v.GetString("elastic.password"),
			Index:     v.GetString("elastic.index"),
		},
		Inventory: InventoryConfig{
			DefaultLowStockThreshold: v.GetInt("inventory.default_low_stock_threshold"),
			ListCacheTTL:             v.GetDuration("inventory.list_cache_ttl"),
			AdjustLockTTL:            v.GetDuration("inventory.adjust_lock_ttl"),
		},
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
