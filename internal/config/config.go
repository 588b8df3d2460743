// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Warehouse  WarehouseConfig  `mapstructure:"warehouse"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// HTTPConfig configures client timeout and retry behavior.
type HTTPConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	DelayMs          int    `mapstructure:"delay_ms"`
}

// SourcesConfig holds per-portal endpoints and paging knobs. Endpoints are
// configuration, not code, so staging mirrors can be pointed at in tests.
type SourcesConfig struct {
	Nedrug NedrugConfig `mapstructure:"nedrug"`
	Hira   HiraConfig   `mapstructure:"hira"`
	Health HealthConfig `mapstructure:"health"`
}

// NedrugConfig targets the drug-safety registry Excel export.
type NedrugConfig struct {
	ExcelURL string `mapstructure:"excel_url"`
	PageSize int    `mapstructure:"page_size"`
}

// HiraConfig targets the insurance-review agency board and open-data portal.
type HiraConfig struct {
	ListingURL  string `mapstructure:"listing_url"`
	DownloadURL string `mapstructure:"download_url"`
	OpenDataURL string `mapstructure:"opendata_url"`
	UploadURL   string `mapstructure:"upload_url"`
}

// HealthConfig targets the drug-information site search endpoint.
type HealthConfig struct {
	SearchURL string `mapstructure:"search_url"`
	PageSize  int    `mapstructure:"page_size"`
}

// StorageConfig selects and parameterizes the blob store provider.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
}

// WarehouseConfig selects and parameterizes the warehouse provider.
type WarehouseConfig struct {
	Provider    string `mapstructure:"provider"`
	ProjectID   string `mapstructure:"project_id"`
	Dataset     string `mapstructure:"dataset"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// NotifyConfig parameterizes the Pub/Sub completion publisher.
type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// CheckpointConfig sets where the local CSV snapshots are written.
type CheckpointConfig struct {
	Dir string `mapstructure:"dir"`
}

// ScheduleConfig holds cron expressions per source.
type ScheduleConfig struct {
	Hira         string `mapstructure:"hira"`
	HiraOpenData string `mapstructure:"hira_opendata"`
	Nedrug       string `mapstructure:"nedrug"`
	Health       string `mapstructure:"health"`
}

// MetricsConfig controls the metrics/health listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SAYOU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.delay_ms", 100)

	v.SetDefault("sources.nedrug.excel_url", "https://nedrug.mfds.go.kr/searchDrug/getExcel")
	v.SetDefault("sources.nedrug.page_size", 10000)
	v.SetDefault("sources.hira.listing_url", "https://www.hira.or.kr/bbsDummy.do?pgmid=HIRAA030014050000")
	v.SetDefault("sources.hira.download_url", "https://www.hira.or.kr/bbs/bbsCDownLoad.do")
	v.SetDefault("sources.hira.opendata_url", "https://opendata.hira.or.kr/op/opc/selectOpenData.do?sno=11925")
	v.SetDefault("sources.hira.upload_url",
		"https://opendata.hira.or.kr/dext5upload/handler/upload.dx?callType=download&url=/op/opc/selectOpenData.do")
	v.SetDefault("sources.health.search_url", "https://www.health.kr/searchDrug/result_more.asp")
	v.SetDefault("sources.health.page_size", 1000)

	v.SetDefault("storage.provider", "noop")
	v.SetDefault("storage.prefix", "data")
	v.SetDefault("storage.local_dir", "./data")
	v.SetDefault("warehouse.provider", "noop")
	v.SetDefault("warehouse.dataset", "healthcare")
	v.SetDefault("checkpoint.dir", ".")
	v.SetDefault("schedule.hira", "0 3 1 * *")
	v.SetDefault("schedule.hira_opendata", "0 4 1 1,4,7,10 *")
	v.SetDefault("schedule.nedrug", "0 2 1 * *")
	v.SetDefault("schedule.health", "0 5 1 * *")
	v.SetDefault("metrics.addr", ":8080")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Sources.Nedrug.PageSize <= 0 {
		return fmt.Errorf("sources.nedrug.page_size must be > 0")
	}
	if c.Sources.Health.PageSize <= 0 {
		return fmt.Errorf("sources.health.page_size must be > 0")
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "local", "noop":
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	switch c.Warehouse.Provider {
	case "bigquery":
		if c.Warehouse.ProjectID == "" {
			return fmt.Errorf("warehouse.project_id must be set when warehouse.provider is bigquery")
		}
	case "postgres":
		if c.Warehouse.PostgresDSN == "" {
			return fmt.Errorf("warehouse.postgres_dsn must be set when warehouse.provider is postgres")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown warehouse provider: %s", c.Warehouse.Provider)
	}
	if c.Notify.Enabled && (c.Notify.ProjectID == "" || c.Notify.Topic == "") {
		return fmt.Errorf("notify.project_id and notify.topic must be set when notify.enabled")
	}
	return nil
}

// Timeout converts the HTTP timeout config into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Delay is the polite inter-request pause.
func (c Config) Delay() time.Duration {
	return time.Duration(c.HTTP.DelayMs) * time.Millisecond
}
