package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gousers/docs" // registra a especificação Swagger
	"gousers/internal/api/health"
	"gousers/internal/api/user"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/middleware"
)

// Dependencies reúne tudo o que o roteador precisa, montado explicitamente no main.go.
type Dependencies struct {
	UserHandler   *user.Handler
	HealthHandler *health.Handler
	Verifier      middleware.TokenVerifier
	Policy        middleware.AuthPolicy
	Cache         cache.Client
	Logger        logger.Logger

	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
	CORSAllowedOrigins   []string
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// --- 1. Middlewares globais ---
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing)
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))
	r.Use(middleware.NewAuthFilter(deps.Verifier, deps.Policy, deps.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, apperror.NewNotFoundError("rota "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorBody(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método não permitido.")
	})

	// --- 2. Health, métricas e documentação ---
	r.Get("/ping", health.PingHandler)
	r.Get("/healthz", deps.HealthHandler.Liveness)
	r.Get("/readyz", deps.HealthHandler.Readiness)
	r.Get("/actuator/health", deps.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 3. Autenticação (pública, com rate limit) ---
	authRoutes := func(r chi.Router) {
		r.Use(middleware.RateLimiter(deps.Cache, deps.RateLimitMaxRequests, deps.RateLimitPeriod, deps.Logger))
		r.Post("/register", deps.UserHandler.RegisterUserHandler)
		r.Post("/login", deps.UserHandler.LoginUserHandler)
	}
	r.Route("/auth", authRoutes)
	r.Route("/api/auth", authRoutes)

	// --- 4. Usuário autenticado ---
	r.Get("/user", deps.UserHandler.GetProfileHandler)
	r.Get("/user/", deps.UserHandler.GetProfileHandler)
	r.Put("/user/update", deps.UserHandler.UpdateProfileHandler)
	r.Get("/user/all", deps.UserHandler.ListUsersHandler)
	r.Delete("/user/delete", deps.UserHandler.DeleteAccountHandler)

	return r
}
