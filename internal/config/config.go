package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Scorecard ScorecardConfig `mapstructure:"scorecard"`
	Import    ImportConfig    `mapstructure:"import"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite/postgres
	Path            string        `mapstructure:"path"`   // sqlite 文件路径
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent/error/warn/info
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScorecardConfig 计分卡策略参数
type ScorecardConfig struct {
	DefaultRate        float64 `mapstructure:"default_rate"`
	ReconcileThreshold float64 `mapstructure:"reconcile_threshold"`
	DefaultFunction    string  `mapstructure:"default_function"`
	Timezone           string  `mapstructure:"timezone"`
}

type ImportConfig struct {
	Encoding string `mapstructure:"encoding"` // utf-8/windows-1252
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Enabled 是否配置了归档存储
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "scorecard.db",
			Host:            "127.0.0.1",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			LogLevel:        "warn",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Scorecard: ScorecardConfig{
			DefaultRate:        170.0,
			ReconcileThreshold: 20.0,
			DefaultFunction:    "ENGINEERING",
			Timezone:           "Local",
		},
		Import: ImportConfig{
			Encoding: "utf-8",
		},
	}
}

func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v, Default())

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在，使用默认值和环境变量
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Scorecard.DefaultRate < 0 {
		return fmt.Errorf("scorecard.default_rate must not be negative")
	}
	if c.Scorecard.ReconcileThreshold < 0 {
		return fmt.Errorf("scorecard.reconcile_threshold must not be negative")
	}
	if _, err := c.Scorecard.Location(); err != nil {
		return fmt.Errorf("invalid scorecard.timezone: %w", err)
	}
	return nil
}

// Location 解析报表时区
func (s ScorecardConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)
	v.SetDefault("database.log_level", d.Database.LogLevel)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("scorecard.default_rate", d.Scorecard.DefaultRate)
	v.SetDefault("scorecard.reconcile_threshold", d.Scorecard.ReconcileThreshold)
	v.SetDefault("scorecard.default_function", d.Scorecard.DefaultFunction)
	v.SetDefault("scorecard.timezone", d.Scorecard.Timezone)

	v.SetDefault("import.encoding", d.Import.Encoding)

	v.SetDefault("minio.use_ssl", d.MinIO.UseSSL)
}

func bindEnvVariables(v *viper.Viper) {
	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// Scorecard
	v.BindEnv("scorecard.default_rate", "SCORECARD_DEFAULT_RATE")
	v.BindEnv("scorecard.reconcile_threshold", "SCORECARD_RECONCILE_THRESHOLD")
	v.BindEnv("scorecard.timezone", "SCORECARD_TIMEZONE")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.use_ssl", "MINIO_USE_SSL")

	// Import
	v.BindEnv("import.encoding", "IMPORT_ENCODING")
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
