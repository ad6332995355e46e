package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	Port              string
	PostgresURI       string
	RedisURI          string
	FrontendURL       string
	SecretKey         string
	CookieName        string
	DashboardPassword string
	EncryptionKey     string
	UploadsDir        string
	MediaBackend      string
	R2                R2
	PollInterval      time.Duration
	EnableScheduler   bool
	SettingsTTL       time.Duration
	RemoteTimeout     time.Duration
	LoginWaitSeconds  int
	CronBaseURL       string
}

func LoadConfig() *Config {
	return &Config{
		Port:              getEnv("PORT", "3000"),
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "fbscheduler_token"),
		DashboardPassword: getEnv("DASHBOARD_PASSWORD", ""),
		EncryptionKey:     getEnv("ENCRYPTION_KEY", ""),
		UploadsDir:        getEnv("UPLOADS_DIR", "public/uploads"),
		MediaBackend:      getEnv("MEDIA_BACKEND", "local"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		PollInterval:     getEnvDuration("POLL_INTERVAL", time.Minute),
		EnableScheduler:  getEnvBool("ENABLE_SCHEDULER", true),
		SettingsTTL:      getEnvDuration("SETTINGS_TTL", 30*time.Second),
		RemoteTimeout:    getEnvDuration("REMOTE_TIMEOUT", 90*time.Second),
		LoginWaitSeconds: getEnvInt("LOGIN_WAIT_SECONDS", 120),
		CronBaseURL:      getEnv("CRON_BASE_URL", "http://localhost:3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
