package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Knowledge KnowledgeConfig
	Auth      AuthConfig
	Session   SessionConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	NatsURL     string
	RedisURL    string
}

type KnowledgeConfig struct {
	BasePath       string
	TextsPath      string
	ImagesPath     string
	FilesPath      string
	MaterialsFile  string
	DiagnosticFile string // optional JSON override for the built-in table
}

type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string // bcrypt
	JWTSecret         string
}

type SessionConfig struct {
	Backend    string // "memory" or "redis"
	TTLMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	basePath := getEnv("KNOWLEDGE_PATH", "knowledge_base")

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/app.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Knowledge: KnowledgeConfig{
			BasePath:       basePath,
			TextsPath:      getEnv("KNOWLEDGE_TEXTS_PATH", filepath.Join(basePath, "texts")),
			ImagesPath:     getEnv("KNOWLEDGE_IMAGES_PATH", filepath.Join(basePath, "images")),
			FilesPath:      getEnv("KNOWLEDGE_FILES_PATH", filepath.Join(basePath, "files")),
			MaterialsFile:  getEnv("KNOWLEDGE_MATERIALS_FILE", filepath.Join(basePath, "materials.json")),
			DiagnosticFile: getEnv("DIAGNOSTIC_KNOWLEDGE_FILE", ""),
		},
		Auth: AuthConfig{
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_BACKEND", "memory"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
