package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	SessionTTLDays   int    `mapstructure:"session_ttl_days"`
	SweepIntervalMin int    `mapstructure:"sweep_interval_min"`
}

type AdminConfig struct {
	PerPage int `mapstructure:"per_page"`
	// Extra tables to administer, introspected from the live schema at
	// startup in addition to the built-in auth tables.
	Tables []string `mapstructure:"tables"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "fastadmin")
	viper.SetDefault("database.name", "fastadmin")
	viper.SetDefault("database.pool_size", 10)
	viper.SetDefault("auth.jwt_secret", "changeme-secret")
	viper.SetDefault("auth.session_ttl_days", 7)
	viper.SetDefault("auth.sweep_interval_min", 60)
	viper.SetDefault("admin.per_page", 25)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus environment variables are enough to run.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
