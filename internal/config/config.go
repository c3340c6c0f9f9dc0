package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	Port        string
	ProjectName string
	JWTSecret   string
	GinMode     string

	SMTPHost          string
	SMTPPort          string
	NotificationEmail string
	NotificationEmailPassword string
}

func Load() *Config {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "warcat"),
		DBPassword:  getEnv("DB_PASSWORD", "warcat"),
		DBName:      getEnv("DB_NAME", "warcat"),
		Port:        getEnv("PORT", "8080"),
		ProjectName: getEnv("PROJECT_NAME", "Warcat"),
		// TODO: refuse to start in release mode with the default secret.
		JWTSecret: getEnv("JWT_SECRET", "your_secret_key"),
		GinMode:   getEnv("GIN_MODE", "debug"),

		SMTPHost:                  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:                  getEnv("SMTP_PORT", "587"),
		NotificationEmail:         getEnv("NOTIFICATION_EMAIL", ""),
		NotificationEmailPassword: getEnv("NOTIFICATION_EMAIL_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
