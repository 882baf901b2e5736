package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
	"gopkg.in/yaml.v3"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
	Batch    Batch    `mapstructure:"batch"`
	Log      Log      `mapstructure:"log"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP address to listen on
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the object storage mirror.
type Storage struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the job and event topics.
type Kafka struct {
	GroupID    string   `mapstructure:"group_id"`    // Consumer group ID
	JobTopic   string   `mapstructure:"job_topic"`   // Topic carrying job requests
	EventTopic string   `mapstructure:"event_topic"` // Topic receiving progress and completion events
	Brokers    []string `mapstructure:"brokers"`     // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Batch holds the orchestrator settings shared by every job.
type Batch struct {
	PerFileTimeout time.Duration `mapstructure:"per_file_timeout"` // 0 disables the timeout
	Window         int           `mapstructure:"window"`           // files in the throughput average
	Naming         string        `mapstructure:"naming"`           // default output name template
	Software       string        `mapstructure:"software"`         // value of the Software tag
	EventBuffer    int           `mapstructure:"event_buffer"`     // events kept for polling clients
}

// Log holds logger settings.
type Log struct {
	Level string `mapstructure:"level"`
}

// Enabled reports whether a database is configured.
func (d Database) Enabled() bool {
	return d.Master.Host != ""
}

// Enabled reports whether Kafka is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("kafka.group_id", "photo-unikalizer")
	v.SetDefault("kafka.job_topic", "photo-jobs")
	v.SetDefault("kafka.event_topic", "photo-events")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 500*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)
	v.SetDefault("batch.window", 5)
	v.SetDefault("batch.naming", model.DefaultNaming)
	v.SetDefault("batch.event_buffer", 500)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("log.level", "info")
}

// bindEnv binds secrets to their environment variables.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.access_key":   "STORAGE_ACCESS_KEY",
		"storage.secret_key":   "STORAGE_SECRET_KEY",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the configuration from the YAML file at path. An empty path
// yields the defaults, overridden by the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Str("path", path).Msg("failed to load config")
	}
	return cfg
}

// LoadJob decodes a job description from the YAML file at path. Unknown
// keys are rejected.
func LoadJob(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, fmt.Errorf("failed to read job file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var job model.Job
	if err := dec.Decode(&job); err != nil {
		return model.Job{}, fmt.Errorf("failed to decode job file %s: %w", path, err)
	}

	return job, nil
}
