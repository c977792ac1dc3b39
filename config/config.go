package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds the static settings needed to run the worker and the operator CLI.
type Configuration struct {
	Address string `env:"ADDRESS" envDefault:":8090"` // Ops server address (health, metrics, job intake)

	// Control-plane database: tenant routing table and pending segment set.
	MongoDB_ConnectionURI    string `env:"MONGODB_CONNECTION_URI,required"`
	MongoDB_DBName_Control   string `env:"MONGODB_DBNAME_CONTROL" envDefault:"audit_control"`
	MongoDB_MaxPoolSize      int    `env:"MONGODB_MAX_POOL_SIZE" envDefault:"20"`
	MongoDB_TenantPoolSize   int    `env:"MONGODB_TENANT_POOL_SIZE" envDefault:"5"`
	MongoDB_ConnectTimeoutMs int    `env:"MONGODB_CONNECT_TIMEOUT_MS" envDefault:"5000"`

	// Tenant handle cache
	TenantCacheCapacity   int `env:"TENANT_CACHE_CAPACITY" envDefault:"64"`
	TenantCacheIdleMinute int `env:"TENANT_CACHE_IDLE_MINUTES" envDefault:"30"`

	// Kafka job transport
	Kafka_Brokers       string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"` // Comma separated
	Kafka_SurveyTopic   string `env:"KAFKA_SURVEY_TOPIC" envDefault:"survey-processing"`
	Kafka_ConsumerGroup string `env:"KAFKA_CONSUMER_GROUP" envDefault:"survey-processor"`
	JobMaxAttempts      int    `env:"JOB_MAX_ATTEMPTS" envDefault:"5"`

	// Segment aggregate worker
	AggregateIntervalSec int `env:"AGGREGATE_INTERVAL_SECONDS" envDefault:"300"`
	AggregateBatchSize   int `env:"AGGREGATE_BATCH_SIZE" envDefault:"50"`
	AggregatePageSize    int `env:"AGGREGATE_PAGE_SIZE" envDefault:"500"`

	// Tree join keys: "title" | "id_title"
	TrendJoinKey     string `env:"TREND_JOIN_KEY" envDefault:"title"`
	AggregateJoinKey string `env:"AGGREGATE_JOIN_KEY" envDefault:"id_title"`

	ReportTimezone string `env:"REPORT_TIMEZONE" envDefault:"UTC"` // Used to cut monthly periods
}

// Brokers returns the Kafka broker list with blanks removed.
func (c *Configuration) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.Kafka_Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// getEnvPath returns the env file for the current GO_ENV, walking up from the working directory.
func getEnvPath() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// logger may not be initialized yet
		fmt.Printf("Cannot resolve working directory: %v\n", err)
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig loads the env file (when present) and parses the process environment.
// Variables already set in the environment win over the file.
func NewConfig() (*Configuration, error) {
	if envPath := getEnvPath(); envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
