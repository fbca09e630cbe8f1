package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gousers/config"
	"gousers/internal/api/health"
	"gousers/internal/api/router"
	"gousers/internal/api/user"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/database"
	"gousers/internal/pkg/hasher"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/middleware"
	"gousers/internal/pkg/token"
	"gousers/internal/pkg/tracing"
	"gousers/internal/repository/userrepo"
	"gousers/internal/service/userservice"
)

// @title GoUsers API
// @version 1.0
// @description Serviço de contas de usuário: registro, login com JWT, perfil e listagem paginada.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Informe "Bearer {token}"
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoUsers...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Erro de Configuração: %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "db_driver": cfg.DBDriver})

	// 2. Observabilidade
	shutdownTracing, err := tracing.Init(context.Background(), cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		appLog.Fatal("Falha ao inicializar o tracing.", err)
	}

	// 3. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados
	db, err := database.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão com o banco estabelecida.", map[string]interface{}{"driver": cfg.DBDriver})

	if cfg.MigrateOnStart {
		applied, err := database.Migrate(context.Background(), db, cfg.DBDriver)
		if err != nil {
			appLog.Fatal("Falha ao aplicar migrações.", err)
		}
		appLog.Info("Migrações aplicadas.", map[string]interface{}{"applied": applied})
	}

	// B. Cache (Redis)
	var cacheClient cache.Client = cache.NewNoopClient()
	if cfg.CacheEnabled {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			appLog.Warn("Redis indisponível na inicialização; seguindo com o cliente e tentando a cada operação.", map[string]interface{}{"error": err.Error()})
		} else {
			appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
		}
		defer redisClient.Close()
		cacheClient = redisClient
	}

	// 4. Montagem explícita das dependências
	// Ordem: Repository -> Service -> Handler

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	appLog.Debug("Serviço de Tokens JWT inicializado.", nil)

	userRepo := userrepo.NewUserRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTimeout, appLog)
	appLog.Debug("Repositório de Usuário inicializado.", nil)

	passwordHasher := hasher.NewBcrypt(cfg.BcryptCost)
	appLog.Debug("Hasher bcrypt inicializado.", map[string]interface{}{"cost": passwordHasher.Cost()})

	userSvc := userservice.NewService(userRepo, passwordHasher, appLog)
	appLog.Debug("Serviço de Usuário inicializado.", nil)

	userHandler := user.NewHandler(userSvc, tokenSvc, appLog)
	healthHandler := health.NewHandler(map[string]health.Pinger{
		"database": db,
		"cache":    health.PingerFunc(cacheClient.Ping),
	}, 2*time.Second, appLog)

	// 5. Roteador e Servidor
	r := router.NewRouter(router.Dependencies{
		UserHandler:          userHandler,
		HealthHandler:        healthHandler,
		Verifier:             tokenSvc,
		Policy:               middleware.DefaultAuthPolicy(),
		Cache:                cacheClient,
		Logger:               appLog,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoUsers ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		appLog.Error("Falha ao descarregar spans pendentes.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
