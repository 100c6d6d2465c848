package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr          string
	ShopDomain    string
	AccessToken   string
	APIVersion    string
	StorefrontURL string
	DatabaseURL   string
	MigrationsDir string
	HistoryDir    string
	CORSOrigin    string
	MeiliURL      string
	MeiliAPIKey   string
	// Redis - optional backend for the proposal store
	RedisURL      string
	MaxAssetBytes int
}

func Load() Config {
	shop := getenv("SHOPIFY_SHOP_DOMAIN", "")
	storefront := getenv("STOREFRONT_BASE_URL", "")
	if storefront == "" && shop != "" {
		storefront = "https://" + shop
	}
	return Config{
		Addr:          getenv("API_ADDR", ":8788"),
		ShopDomain:    shop,
		AccessToken:   getenv("SHOPIFY_ACCESS_TOKEN", ""),
		APIVersion:    getenv("SHOPIFY_API_VERSION", "2024-10"),
		StorefrontURL: storefront,
		// Postgres is optional - suggestions are disabled without it
		DatabaseURL:   getenv("DATABASE_URL", ""),
		MigrationsDir: getenv("TRENDSTAGE_MIGRATIONS_DIR", "./db/migrations"),
		HistoryDir:    getenv("TRENDSTAGE_HISTORY_DIR", "./data/history"),
		CORSOrigin:    getenv("TRENDSTAGE_CORS_ORIGIN", "*"),
		MeiliURL:      getenv("MEILI_URL", ""),
		MeiliAPIKey:   getenv("MEILI_MASTER_KEY", ""),
		RedisURL:      getenv("REDIS_URL", ""),
		MaxAssetBytes: getenvInt("TRENDSTAGE_MAX_ASSET_BYTES", 500_000),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
