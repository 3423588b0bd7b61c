package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	AWS      AWSConfig      `json:"aws"`
	Worker   WorkerConfig   `json:"worker"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration. Driver selects
// between the Postgres portal database and a file-backed SQLite
// database for local runs and the seed tool.
type DatabaseConfig struct {
	Driver         string        `json:"driver"`
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	SQLitePath     string        `json:"sqlite_path"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// AuthConfig holds token signing material
type AuthConfig struct {
	JWTSecret  string        `json:"jwt_secret"`
	TokenTTL   time.Duration `json:"token_ttl"`
	BcryptCost int           `json:"bcrypt_cost"`
}

// AWSConfig holds credentials and resource names for S3 exports, SES
// mail and SNS alerts
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"`
	S3Bucket        string `json:"s3_bucket"`
	SESSender       string `json:"ses_sender"`
	SNSTopicARN     string `json:"sns_topic_arn"`
}

// WorkerConfig controls the background forecast refresher
type WorkerConfig struct {
	ForecastCron        string `json:"forecast_cron"`
	ForecastHorizonDays int    `json:"forecast_horizon_days"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "agrisight_portal",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		AWS: AWSConfig{
			Region: "ap-south-1",
		},
		Worker: WorkerConfig{
			ForecastCron:        "0 6 * * *",
			ForecastHorizonDays: 90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if path := os.Getenv("DATABASE_SQLITE_PATH"); path != "" {
		config.Database.SQLitePath = path
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.AWS.Region = region
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		config.AWS.S3Bucket = bucket
	}
	if sender := os.Getenv("SES_SENDER"); sender != "" {
		config.AWS.SESSender = sender
	}
	if topic := os.Getenv("SNS_TOPIC_ARN"); topic != "" {
		config.AWS.SNSTopicARN = topic
	}
	if cron := os.Getenv("FORECAST_CRON"); cron != "" {
		config.Worker.ForecastCron = cron
	}
	if horizon := os.Getenv("FORECAST_HORIZON_DAYS"); horizon != "" {
		if d, err := strconv.Atoi(horizon); err == nil {
			config.Worker.ForecastHorizonDays = d
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
