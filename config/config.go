package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config armazena todas as configurações do serviço de usuários.
type Config struct {
	// Geral
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error fatal"`
	ServiceName string `validate:"required"`

	// Banco de Dados
	DBDriver       string        `validate:"oneof=postgres sqlite3"`
	DatabaseURL    string        `validate:"required"`
	DBTimeout      time.Duration `validate:"gt=0"`
	MigrateOnStart bool

	// Cache (Redis)
	CacheEnabled  bool
	RedisAddr     string `validate:"required_if=CacheEnabled true"`
	RedisPassword string
	CacheTimeout  time.Duration `validate:"gt=0"`

	// Segurança (JWT + bcrypt)
	JWTSecretKey string        `validate:"required,min=32"`
	TokenExpiry  time.Duration `validate:"gt=0"`
	BcryptCost   int           `validate:"min=4,max=31"`

	// Rate Limiting
	RateLimitMaxRequests int           `validate:"gt=0"`
	RateLimitPeriod      time.Duration `validate:"gt=0"`

	// HTTP
	CORSAllowedOrigins []string

	// Observabilidade
	OTLPEndpoint string
}

// LoadConfig carrega as configurações a partir de um .env opcional e das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: arquivo .env não carregado (%v). Usando apenas variáveis de ambiente.", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		// 1. Geral
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		ServiceName: v.GetString("SERVICE_NAME"),

		// 2. Banco de Dados
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBTimeout:      time.Duration(v.GetInt("DB_TIMEOUT_SEC")) * time.Second,
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),

		// 3. Cache (Redis)
		CacheEnabled:  v.GetBool("CACHE_ENABLED"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		CacheTimeout:  time.Duration(v.GetInt("CACHE_TIMEOUT_SEC")) * time.Second,

		// 4. Segurança
		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(v.GetInt("JWT_EXPIRY_MIN")) * time.Minute,
		BcryptCost:   v.GetInt("BCRYPT_COST"),

		// 5. Rate Limiting
		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(v.GetInt("RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		// 6. HTTP
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		// 7. Observabilidade
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}

	return cfg, nil
}

// IsDevelopment indica se o serviço roda em ambiente de desenvolvimento.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "gousers")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_TIMEOUT_SEC", 5)
	v.SetDefault("MIGRATE_ON_START", true)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_TIMEOUT_SEC", 10)

	v.SetDefault("JWT_EXPIRY_MIN", 60)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_PERIOD_MIN", 1)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

// splitList transforma "a, b,,c" em [a b c].
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
