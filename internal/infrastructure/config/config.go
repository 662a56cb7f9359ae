package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"crypto-investigation-engine/internal/domain/service"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig            `mapstructure:"app"`
	Explorer ExplorerConfig       `mapstructure:"explorer"`
	Graph    GraphConfig          `mapstructure:"graph"`
	Layout   service.LayoutConfig `mapstructure:"layout"`
	Neo4J    Neo4JConfig          `mapstructure:"neo4j"`
	NATS     NATSConfig           `mapstructure:"nats"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPPort       int    `mapstructure:"http_port"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
}

// ExplorerConfig tunes the ledger-explorer gateway
type ExplorerConfig struct {
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	TxPageSize       int           `mapstructure:"tx_page_size"`
	WalletTTL        time.Duration `mapstructure:"wallet_ttl"`
	TransactionTTL   time.Duration `mapstructure:"transaction_ttl"`
	RatePerSecond    float64       `mapstructure:"rate_per_second"`
	RateBurst        int           `mapstructure:"rate_burst"`
	EtherscanAPIKey  string        `mapstructure:"etherscan_api_key"`
	BlockcypherToken string        `mapstructure:"blockcypher_token"`
}

// GraphConfig bounds the BFS exploration
type GraphConfig struct {
	DefaultDepth     int `mapstructure:"default_depth"`
	MaxDepth         int `mapstructure:"max_depth"`
	DefaultMaxNodes  int `mapstructure:"default_max_nodes"`
	MaxNodes         int `mapstructure:"max_nodes"`
	FanoutCap        int `mapstructure:"fanout_cap"`
	FetchConcurrency int `mapstructure:"fetch_concurrency"`
}

// Neo4JConfig represents Neo4J configuration for the graph archive
type Neo4JConfig struct {
	Enabled                      bool          `mapstructure:"enabled"`
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// NATSConfig represents NATS configuration for the request intake
type NATSConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	URL                string        `mapstructure:"url"`
	Subject            string        `mapstructure:"subject"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingRequests int           `mapstructure:"max_pending_requests"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/crypto-investigation-engine")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.http_port", 8080)
	viper.SetDefault("app.worker_pool_size", 4)

	viper.SetDefault("explorer.request_timeout", "15s")
	viper.SetDefault("explorer.tx_page_size", 25)
	viper.SetDefault("explorer.wallet_ttl", "5m")
	viper.SetDefault("explorer.transaction_ttl", "1h")
	// politeness limit per provider, roughly 5 req/s
	viper.SetDefault("explorer.rate_per_second", 5.0)
	viper.SetDefault("explorer.rate_burst", 5)
	viper.SetDefault("explorer.etherscan_api_key", "")
	viper.SetDefault("explorer.blockcypher_token", "")

	viper.SetDefault("graph.default_depth", 2)
	viper.SetDefault("graph.max_depth", 3)
	viper.SetDefault("graph.default_max_nodes", 50)
	viper.SetDefault("graph.max_nodes", 200)
	viper.SetDefault("graph.fanout_cap", 10)
	viper.SetDefault("graph.fetch_concurrency", 4)

	viper.SetDefault("layout.repulsion", 5000.0)
	viper.SetDefault("layout.attraction", 0.01)
	viper.SetDefault("layout.center_gravity", 0.01)
	viper.SetDefault("layout.damping", 0.3)
	viper.SetDefault("layout.iterations", 300)
	viper.SetDefault("layout.center_x", 500.0)
	viper.SetDefault("layout.center_y", 400.0)
	viper.SetDefault("layout.init_radius", 250.0)

	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.connect_timeout", "10s")
	viper.SetDefault("neo4j.max_connection_pool_size", 50)
	viper.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subject", "investigations.requests")
	viper.SetDefault("nats.consumer_group", "investigation-engine")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")
	viper.SetDefault("nats.max_pending_requests", 1024)

	viper.BindEnv("nats.url", "NATS_URL")
	viper.BindEnv("explorer.etherscan_api_key", "ETHERSCAN_API_KEY")
	viper.BindEnv("explorer.blockcypher_token", "BLOCKCYPHER_TOKEN")
}
