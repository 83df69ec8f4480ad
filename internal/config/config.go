// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile 可选的YAML配置文件
const DefaultConfigFile = "narrative.yaml"

// 存储后端
const (
	StoreBackendPostgres = "postgres"
	StoreBackendFile     = "file"
)

// Config 存储应用配置，优先级：默认值 < YAML < 环境变量
type Config struct {
	Port      string `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	DebugMode bool   `yaml:"debug_mode"`

	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Rate     RateConfig     `yaml:"rate"`
	Composer ComposerConfig `yaml:"composer"`
}

// StoreConfig 角色存储配置
type StoreConfig struct {
	Backend         string        `yaml:"backend"`
	DatabaseURL     string        `yaml:"database_url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// AuthConfig 会话令牌配置
type AuthConfig struct {
	SecretKey  string        `yaml:"secret_key"`
	Expiration time.Duration `yaml:"expiration"`
	CookieName string        `yaml:"cookie_name"`
}

// RateConfig 按IP限流配置
type RateConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ComposerConfig 分镜生成配置
type ComposerConfig struct {
	// GenerationDelay 仅用于展示层的模拟等待，0 表示不等待
	GenerationDelay time.Duration `yaml:"generation_delay"`
}

// Defaults 返回默认配置
func Defaults() Config {
	return Config{
		Port:      "8080",
		DataDir:   "data",
		LogDir:    "logs",
		LogLevel:  "info",
		DebugMode: true,
		Store: StoreConfig{
			Backend:         StoreBackendFile,
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
			HealthCheck:     time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			Expiration: 24 * time.Hour,
			CookieName: "nnb_session",
		},
		Rate: RateConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// Load 从 .env、YAML 文件和环境变量加载配置
func Load() (*Config, error) {
	// .env 文件是可选的
	_ = godotenv.Load()

	return LoadFrom(getEnv("CONFIG_FILE", DefaultConfigFile))
}

// LoadFrom 从指定YAML路径加载配置，文件不存在不算错误
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("加载YAML配置失败: %w", err)
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("读取 %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析 %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.LogDir, "LOG_DIR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setBool(&cfg.DebugMode, "DEBUG_MODE")

	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setInt32(&cfg.Store.MaxConns, "PG_MAX_CONNS")
	setInt32(&cfg.Store.MinConns, "PG_MIN_CONNS")
	setDuration(&cfg.Store.MaxConnLifetime, "PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Store.MaxConnIdleTime, "PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Store.HealthCheck, "PG_HEALTH_CHECK")
	setBool(&cfg.Store.AutoMigrate, "AUTO_MIGRATE")

	setString(&cfg.Auth.SecretKey, "AUTH_SECRET_KEY")
	setDuration(&cfg.Auth.Expiration, "AUTH_TOKEN_TTL")

	setFloat64(&cfg.Rate.RequestsPerSecond, "RATE_LIMIT_RPS")
	setInt(&cfg.Rate.Burst, "RATE_LIMIT_BURST")

	setDuration(&cfg.Composer.GenerationDelay, "GENERATION_DELAY")
}

// Validate 检查配置组合是否可用
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendFile:
	case StoreBackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("postgres 存储需要设置 DATABASE_URL")
		}
	default:
		return fmt.Errorf("未知的存储后端: %q", c.Store.Backend)
	}
	if c.Port == "" {
		return errors.New("端口不能为空")
	}
	if c.Composer.GenerationDelay < 0 {
		return errors.New("GENERATION_DELAY 不能为负数")
	}
	return nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setBool 接受 true/1/yes，其余非空值视为 false
func setBool(dst *bool, key string) {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return
	}
	*dst = v == "true" || v == "1" || v == "yes"
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setInt32(dst *int32, key string) {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 32); err == nil {
		*dst = int32(v)
	}
}

func setFloat64(dst *float64, key string) {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = v
	}
}
