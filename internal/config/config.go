package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort  int `yaml:"apiPort"`
	Database struct {
		Type     string `yaml:"type"` // "sqlite" or "postgres"
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret           string        `yaml:"jwtSecret"`
		SessionTTL          time.Duration `yaml:"sessionTTL"`
		DefaultRadiusMeters float64       `yaml:"defaultRadiusMeters"`
	} `yaml:"auth"`
	Audit struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
	} `yaml:"audit"`
}

// ErrMissingSecret is returned when no signing secret is configured. The
// server refuses to start without one.
var ErrMissingSecret = errors.New("auth.jwtSecret is required")

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, err
			}
		}
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 8081
		log.Println("APIPort not specified, using default 8081")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "/data/geogate.db"
		log.Println("Database path not specified, using default /data/geogate.db")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// The signing secret has no default on purpose.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("GEOGATE_JWT_SECRET")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 7 * 24 * time.Hour
		log.Println("Session TTL not specified, using default 168h")
	}
	if cfg.Auth.DefaultRadiusMeters == 0 {
		cfg.Auth.DefaultRadiusMeters = 100
		log.Println("Default allowed radius not specified, using 100m")
	}

	return &cfg, nil
}

// AuditEnabled reports whether violation records should be archived.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Endpoint != "" && c.Audit.Bucket != ""
}
