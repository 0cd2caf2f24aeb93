package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix は環境変数による上書きに使用する接頭辞です。
const EnvPrefix = "DAILY_REPORT_"

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server       ServerConfig       `yaml:"server" envPrefix:"SERVER_"`
	Database     DatabaseConfig     `yaml:"database" envPrefix:"DATABASE_"`
	Auth         AuthConfig         `yaml:"auth" envPrefix:"AUTH_"`
	Redis        RedisConfig        `yaml:"redis" envPrefix:"REDIS_"`
	Log          LogConfig          `yaml:"log" envPrefix:"LOG_"`
	InitialAdmin InitialAdminConfig `yaml:"initial_admin" envPrefix:"INITIAL_ADMIN_"`
}

// ServerConfig は gRPC サーバーと運用向け HTTP サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	OpsListenAddr      string        `yaml:"ops_listen_addr" env:"OPS_LISTEN_ADDR"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host" env:"HOST"`
	Port               int           `yaml:"port" env:"PORT"`
	User               string        `yaml:"user" env:"USER"`
	Password           string        `yaml:"password" env:"PASSWORD"`
	Name               string        `yaml:"name" env:"NAME"`
	SSLMode            string        `yaml:"ssl_mode" env:"SSL_MODE"`
	ApplicationName    string        `yaml:"application_name" env:"APPLICATION_NAME"`
	Isolation          string        `yaml:"isolation" env:"ISOLATION"`
	MaxOpenConns       int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns       int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
}

// AuthConfig はアクセストークンに関する設定です。
type AuthConfig struct {
	SigningKey  string        `yaml:"signing_key" env:"SIGNING_KEY"`
	Issuer      string        `yaml:"issuer" env:"ISSUER"`
	BcryptCost  int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// RedisConfig はトークン失効リストの保存先です。URL が空の場合はプロセス内で保持します。
type RedisConfig struct {
	URL            string        `yaml:"url" env:"URL"`
	PoolSize       int           `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns   int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	DialTimeout    time.Duration `yaml:"-"`
	DialTimeoutRaw string        `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
}

// LogConfig はログ出力に関する設定です。
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// InitialAdminConfig は起動時に投入する管理者社員です。Code が空の場合は投入しません。
type InitialAdminConfig struct {
	Code     string `yaml:"code" env:"CODE"`
	Name     string `yaml:"name" env:"NAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// Load は指定されたパスから設定ファイルを読み込み、環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Redis.validateAndNormalize(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "":
		c.Log.Level = "info"
	case "debug", "info", "warn", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		return fmt.Errorf("config: log.level %q is not supported", c.Log.Level)
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is not supported", c.Log.Format)
	}

	if c.InitialAdmin.Code != "" && c.InitialAdmin.Password == "" {
		return fmt.Errorf("config: initial_admin.password must be set when initial_admin.code is set")
	}

	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	s.ShutdownTimeout = timeout

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.ApplicationName == "" {
		d.ApplicationName = "daily-report"
	}

	switch strings.ToLower(d.Isolation) {
	case "":
		d.Isolation = "read_committed"
	case "read_committed", "repeatable_read", "serializable":
		d.Isolation = strings.ToLower(d.Isolation)
	default:
		return fmt.Errorf("config: database.isolation %q is not supported", d.Isolation)
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.SigningKey == "" {
		return fmt.Errorf("config: auth.signing_key must be set")
	}
	if len(a.SigningKey) < 32 {
		return fmt.Errorf("config: auth.signing_key must be at least 32 bytes")
	}
	if a.Issuer == "" {
		a.Issuer = "daily-report"
	}

	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	a.TokenTTL = ttl

	return nil
}

func (r *RedisConfig) validateAndNormalize() error {
	timeout, err := parseDurationAllowEmpty(r.DialTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: redis.dial_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	r.DialTimeout = timeout

	if r.PoolSize == 0 {
		r.PoolSize = 10
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}

	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}
