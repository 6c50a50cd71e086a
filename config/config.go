package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App     AppConfig
	API     APIConfig
	Kafka   KafkaConfig
	Risk    RiskConfig
	Data    DataConfig
	Metrics MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig
}

// CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Configuration for Kafka
type KafkaConfig struct {
	Brokers []string
	GroupID string `mapstructure:"group_id"`
	Topics  KafkaTopicsConfig
}

// Kafka topics configuration
type KafkaTopicsConfig struct {
	VaRRequests string `mapstructure:"var_requests"`
	VaRResults  string `mapstructure:"var_results"`
}

// Configuration for risk calculations
type RiskConfig struct {
	ConfidenceLevel  float64 `mapstructure:"confidence_level"`
	SimulationRuns   int     `mapstructure:"simulation_runs"`
	WindowDays       int     `mapstructure:"window_days"`
	RandomSeed       int64   `mapstructure:"random_seed"`
	TailScenarios    int     `mapstructure:"tail_scenarios"`
	NearVaRScenarios int     `mapstructure:"near_var_scenarios"`
	Workers          int
}

// Configuration for dataset storage
type DataConfig struct {
	DatasetDir string `mapstructure:"dataset_dir"`
	DateColumn string `mapstructure:"date_column"`
}

// Configuration for metrics
type MetricsConfig struct {
	Prometheus PrometheusConfig
}

// Configuration for Prometheus metrics
type PrometheusConfig struct {
	Enabled bool
	Port    int
}

// Load reads the configuration from a file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("VAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "var-engine")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "30s")
	viper.SetDefault("api.shutdown_timeout", "30s")
	viper.SetDefault("api.cors.allowed_origins", []string{"*"})
	viper.SetDefault("api.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("api.cors.allowed_headers", []string{"Authorization", "Content-Type"})

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.group_id", "var-engine")
	viper.SetDefault("kafka.topics.var_requests", "risk.var.requests")
	viper.SetDefault("kafka.topics.var_results", "risk.var.results")

	// Risk defaults. The confidence level is the lower tail probability,
	// so 0.01 corresponds to a 99% VaR.
	viper.SetDefault("risk.confidence_level", 0.01)
	viper.SetDefault("risk.simulation_runs", 10000)
	viper.SetDefault("risk.window_days", 252)
	viper.SetDefault("risk.random_seed", 42)
	viper.SetDefault("risk.tail_scenarios", 20)
	viper.SetDefault("risk.near_var_scenarios", 10)
	viper.SetDefault("risk.workers", 8)

	// Data defaults
	viper.SetDefault("data.dataset_dir", "./data")
	viper.SetDefault("data.date_column", "Date")

	// Metrics defaults
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
}

// GetConfigPath returns the config file path, honoring VAR_CONFIG_PATH.
func GetConfigPath() string {
	if configPath := os.Getenv("VAR_CONFIG_PATH"); configPath != "" {
		return configPath
	}

	return "./config/config.yaml"
}
