package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit string
	// DefaultCountry fills Location.Country when a create request leaves it empty.
	DefaultCountry    string
	AllowRegistration bool
	DashboardCacheTTL time.Duration
}

type ServerConfig struct {
	Addr    string
	GinMode string
}

type DBConfig struct {
	Driver          string
	URL             string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	LogLevel        string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

// DefaultOrigins are the development and preview hosts the frontend is served from.
var DefaultOrigins = []string{
	"http://localhost:*",
	"https://localhost:*",
	"https://*.netlify.app",
	"https://*.vercel.app",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_URL", "localhost:3306/medtrack")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL_SECONDS", 7200)
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("PRODUCTION_ORIGIN", "https://medtrack.netlify.app")
	v.SetDefault("DEFAULT_COUNTRY", "India")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.SetDefault("ALLOW_REGISTRATION", true)

	cfg := &Config{
		Server: ServerConfig{
			Addr:    v.GetString("SERVER_ADDR"),
			GinMode: v.GetString("GIN_MODE"),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			URL:             v.GetString("DB_URL"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnectRetries:  v.GetInt("DB_CONNECT_RETRIES"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins(v.GetString("ALLOWED_ORIGINS"), v.GetString("PRODUCTION_ORIGIN")),
		},
		RateLimit:         v.GetString("AUTH_RATE_LIMIT"),
		DefaultCountry:    v.GetString("DEFAULT_COUNTRY"),
		AllowRegistration: v.GetBool("ALLOW_REGISTRATION"),
		DashboardCacheTTL: v.GetDuration("DASHBOARD_CACHE_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL_SECONDS must be positive")
	}
	switch c.DB.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.URL == "" {
		return errors.New("DB_URL must be set")
	}
	return nil
}

// origins returns the override list when one is given, otherwise the
// default hosts plus the production origin.
func origins(override, production string) []string {
	if override != "" {
		var list []string
		for _, o := range strings.Split(override, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		return list
	}
	list := append([]string{}, DefaultOrigins...)
	if production != "" {
		list = append(list, production)
	}
	return list
}
