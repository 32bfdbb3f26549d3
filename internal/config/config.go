// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ストレージバックエンドの種別。
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// IDプロバイダーの種別。
const (
	AuthProviderLocal  = "local"
	AuthProviderGoTrue = "gotrue"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageBackend string
	DatabaseURL    string
	MongoURL       string
	MongoDatabase  string

	// Identity
	AuthProvider  string
	JWTSecret     string
	TokenTTL      time.Duration
	GoTrueURL     string
	GoTrueAnonKey string

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitAuth    int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 選択されたバックエンド/プロバイダーに対する必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StorageBackend = getEnvString("STORAGE_BACKEND", StoragePostgres)
	if cfg.StorageBackend != StoragePostgres && cfg.StorageBackend != StorageMongo {
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.StorageBackend)
	}

	cfg.AuthProvider = getEnvString("AUTH_PROVIDER", AuthProviderLocal)
	if cfg.AuthProvider != AuthProviderLocal && cfg.AuthProvider != AuthProviderGoTrue {
		return nil, fmt.Errorf("unsupported AUTH_PROVIDER: %q", cfg.AuthProvider)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.MongoURL = os.Getenv("MONGO_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.GoTrueURL = os.Getenv("GOTRUE_URL")
	cfg.GoTrueAnonKey = os.Getenv("GOTRUE_ANON_KEY")

	// 選択された構成に応じた必須チェック
	var missing []string

	if cfg.StorageBackend == StoragePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.StorageBackend == StorageMongo && cfg.MongoURL == "" {
		missing = append(missing, "MONGO_URL")
	}

	switch cfg.AuthProvider {
	case AuthProviderLocal:
		if cfg.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
		// 組み込みプロバイダーはaccountsテーブルを使用するためPostgresが必須
		if cfg.DatabaseURL == "" && cfg.StorageBackend != StoragePostgres {
			missing = append(missing, "DATABASE_URL")
		}
	case AuthProviderGoTrue:
		if cfg.GoTrueURL == "" {
			missing = append(missing, "GOTRUE_URL")
		}
		if cfg.GoTrueAnonKey == "" {
			missing = append(missing, "GOTRUE_ANON_KEY")
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "taskman")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
