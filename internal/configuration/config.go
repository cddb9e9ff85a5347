package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Google   GoogleConfig
	Database DatabaseConfig
	MinIO    MinIOConfig

	// ArchiveBackend selects where images land: "drive" or "minio".
	ArchiveBackend string
	// LedgerBackend selects where rows are appended: "sheets" or "postgres".
	LedgerBackend string

	Timezone    string
	NATSURL     string
	CLAMAVURL   string
	CallTimeout time.Duration
}

type ServerConfig struct {
	Port string
}

type GoogleConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	RootFolderName  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint   string
	PublicURL  string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Google: GoogleConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "vision_key.json"),
			SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
			RootFolderName:  getEnv("DRIVE_ROOT_FOLDER", "ESP32-CAM"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "plateuser"),
			Password: getEnv("DB_PASSWORD", "platepassword"),
			DBName:   getEnv("DB_NAME", "platewatch"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicURL:  getEnv("MINIO_PUBLIC_URL", "http://localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET", "plate-captures"),
			UseSSL:     getEnv("MINIO_USE_SSL", "false") == "true",
		},
		ArchiveBackend: getEnv("ARCHIVE_BACKEND", "drive"),
		LedgerBackend:  getEnv("LEDGER_BACKEND", "sheets"),
		Timezone:       getEnv("TIMEZONE", "Asia/Kolkata"),
		NATSURL:        getEnv("NATS_URL", ""),
		CLAMAVURL:      getEnv("CLAMAV_URL", ""),
		CallTimeout:    getEnvSeconds("CALL_TIMEOUT_SECONDS", 30),
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultValue) * time.Second
}
