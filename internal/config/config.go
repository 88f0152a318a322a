package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server Server `yaml:"server"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	Log Log `yaml:"log"`

	Redis Redis `yaml:"redis"`

	RateLimit RateLimit `yaml:"rate_limit"`

	Business Business `yaml:"business"`

	Upload Upload `yaml:"upload"`

	Bootstrap Bootstrap `yaml:"bootstrap"`
}

type Server struct {
	Address         string        `yaml:"address"`
	Mode            string        `yaml:"mode"` // development or production
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AllowedOrigins restricts websocket upgrades; empty allows any origin
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// IsDevelopment reports whether internal error detail may be returned to clients
func (s Server) IsDevelopment() bool {
	return s.Mode == "development"
}

type JWT struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // In Hours
}

type Database struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns host:port for the redis client
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RateLimit struct {
	// Login uses the limiter formatted rate, e.g. "10-M" for ten per minute
	Login string `yaml:"login"`
}

type Business struct {
	Timezone   string        `yaml:"timezone"`
	EditWindow time.Duration `yaml:"edit_window"`
}

// Location loads the business timezone used for end-of-day calculations
func (b Business) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

type Upload struct {
	Dir         string `yaml:"dir"`
	MaxFileSize int64  `yaml:"max_file_size"` // bytes
}

// Bootstrap seeds the first admin account when no admin exists
type Bootstrap struct {
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	AdminEmail    string `yaml:"admin_email"`
}

// Enabled reports whether an admin account should be seeded
func (b Bootstrap) Enabled() bool {
	return b.AdminUsername != "" && b.AdminPassword != ""
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	configPath := "configs/development.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Address, "SERVER_ADDRESS")
	setString(&c.Server.Mode, "SERVER_MODE")

	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.JWT.Secret, "JWT_SECRET")
	setInt(&c.JWT.ExpiresIn, "JWT_EXPIRES_IN")

	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		c.Redis.Enabled, _ = strconv.ParseBool(v)
	}
	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Business.Timezone, "BUSINESS_TIMEZONE")

	setString(&c.Bootstrap.AdminUsername, "ADMIN_USERNAME")
	setString(&c.Bootstrap.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.Bootstrap.AdminEmail, "ADMIN_EMAIL")
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "production"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "file://migrations"
	}
	if c.JWT.ExpiresIn == 0 {
		c.JWT.ExpiresIn = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RateLimit.Login == "" {
		c.RateLimit.Login = "10-M"
	}
	if c.Business.Timezone == "" {
		c.Business.Timezone = "Asia/Jakarta"
	}
	if c.Business.EditWindow == 0 {
		c.Business.EditWindow = 48 * time.Hour
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = os.TempDir()
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 10 << 20
	}
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		errs = append(errs, errors.New("database.host and database.dbname are required"))
	}
	if c.Server.Mode != "development" && c.Server.Mode != "production" {
		errs = append(errs, fmt.Errorf("server.mode must be development or production, got %q", c.Server.Mode))
	}
	if c.Business.EditWindow < 0 {
		errs = append(errs, errors.New("business.edit_window must not be negative"))
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		errs = append(errs, errors.New("redis.host is required when redis is enabled"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
