package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAdminEmail = "admin@admin.com"

type Config struct {
	Backend          string
	DBPath           string
	PostgresURL      string
	Redis            RedisConfig
	AdminEmail       string
	CredentialScheme string
	WatchInterval    time.Duration
	Backup           BackupConfig
	SampleDataPath   string
	LogLevel         string
	LogPath          string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BackupConfig struct {
	Cron   string
	Prefix string
	S3     S3Config
	Mirror SupabaseConfig
}

// Enabled reports whether a backup has anywhere to go.
func (c BackupConfig) Enabled() bool {
	return c.S3.Enabled() || c.Mirror.Enabled()
}

// SupabaseConfig points at a PostgREST table that mirrors the listings.
type SupabaseConfig struct {
	URL        string
	ServiceKey string
	Table      string
	Timeout    time.Duration
}

func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.ServiceKey != ""
}

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
	ProxyURL        string // Optional: route uploads through an HTTP proxy
	Timeout         time.Duration
}

// Enabled reports whether enough is configured to talk to a bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend:     strings.ToLower(getEnv("BACKEND", "sqlite")),
		DBPath:      getEnv("DB_PATH", "estate.db"),
		PostgresURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AdminEmail:       getEnv("ADMIN_EMAIL", DefaultAdminEmail),
		CredentialScheme: strings.ToLower(getEnv("CREDENTIAL_SCHEME", "plaintext")),
		WatchInterval:    getEnvDuration("WATCH_INTERVAL", time.Second),
		Backup: BackupConfig{
			Cron:   os.Getenv("BACKUP_CRON"),
			Prefix: getEnv("BACKUP_PREFIX", "backups"),
			S3: S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          os.Getenv("S3_REGION"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
				ProxyURL:        os.Getenv("S3_PROXY_URL"),
				Timeout:         getEnvDuration("S3_TIMEOUT", 60*time.Second),
			},
			Mirror: SupabaseConfig{
				URL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
				ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
				Table:      getEnv("SUPABASE_TABLE", "properties"),
				Timeout:    getEnvDuration("SUPABASE_TIMEOUT", 30*time.Second),
			},
		},
		SampleDataPath: os.Getenv("SAMPLE_DATA_PATH"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPath:        getEnv("LOG_PATH", "estate.log"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
