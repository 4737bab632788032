package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	ProviderOpenAI = "openai"
	ProviderCustom = "custom"

	openAIChatURL = "https://api.openai.com/v1/chat/completions"
)

type Config struct {
	Port         string
	BindAddress  string
	BasePath     string
	Env          string
	CookieSecure bool
	CORSOrigins  []string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	StateBackend  string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	AdminPasswordHash  string
	SessionSecret      string
	AllowedAdminEmails []string

	IDPIssuer     string
	IDPAudience   string
	IDPJWTSecret  string
	IDPPublicKey  string
	IDPCookieName string

	APIProvider string
	Provider    *ProviderConfig

	NtfyURL string
}

// ProviderConfig describes the chat-completion endpoint used for grammar
// correction. A nil *ProviderConfig means correction is disabled.
type ProviderConfig struct {
	Provider    string
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "1337"),
		BindAddress: getEnv("BIND_ADDRESS", ""),
		BasePath:    normalizeBasePath(getEnv("BASE_PATH", "")),
		Env:         getEnv("APP_ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "anonq"),
		DBPassword:  getEnv("DB_PASSWORD", "anonq"),
		DBName:      getEnv("DB_NAME", "anonq"),

		StateBackend:  strings.ToLower(getEnv("STATE_BACKEND", "memory")),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AdminPasswordHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		AllowedAdminEmails: parseEmails(os.Getenv("ALLOWED_ADMIN_EMAILS")),

		IDPIssuer:     getEnv("IDP_ISSUER", ""),
		IDPAudience:   getEnv("IDP_AUDIENCE", ""),
		IDPJWTSecret:  getEnv("IDP_JWT_SECRET", ""),
		IDPPublicKey:  getEnv("IDP_PUBLIC_KEY", ""),
		IDPCookieName: getEnv("IDP_COOKIE_NAME", "id_token"),

		APIProvider: strings.ToLower(getEnv("API_PROVIDER", ProviderOpenAI)),

		NtfyURL: getEnv("NTFY_URL", getEnv("NEXT_PUBLIC_NTFY_URL", "")),
	}

	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.Env == "production")
	cfg.Provider = loadProvider(cfg.APIProvider)

	return cfg
}

func loadProvider(provider string) *ProviderConfig {
	if provider == ProviderCustom {
		url := os.Getenv("CUSTOM_API_URL")
		key := os.Getenv("CUSTOM_API_KEY")
		if url == "" || key == "" {
			return nil
		}
		return &ProviderConfig{
			Provider:    ProviderCustom,
			URL:         url,
			APIKey:      key,
			Model:       getEnv("CUSTOM_API_MODEL", "gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("CUSTOM_API_MAX_TOKENS", 1000),
			Temperature: getEnvFloat("CUSTOM_API_TEMPERATURE", 0.7),
		}
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	return &ProviderConfig{
		Provider:    ProviderOpenAI,
		URL:         openAIChatURL,
		APIKey:      key,
		Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 1000),
		Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
	}
}

// Validate reports configuration problems that leave part of the service
// unusable. None of them prevent startup.
func (c *Config) Validate() []string {
	var problems []string
	if c.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD_HASH is required for password login")
	}
	if c.SessionSecret == "" {
		problems = append(problems, "SESSION_SECRET is not set; session hashes fall back to the admin password hash")
	}
	if c.Provider == nil {
		problems = append(problems, "grammar correction API configuration is incomplete")
	}
	if c.IDPJWTSecret == "" && c.IDPPublicKey == "" {
		problems = append(problems, "no identity provider key configured; admin access is password-only")
	}
	return problems
}

func (c *Config) ListenAddr() string {
	return c.BindAddress + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %g", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseEmails(raw string) []string {
	emails := splitList(raw)
	for i, e := range emails {
		emails[i] = strings.ToLower(e)
	}
	return emails
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "anonq.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return client
}
