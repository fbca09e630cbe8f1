package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/metrics"
	"gousers/internal/pkg/token"
)

// ContextKey evita colisões com outras chaves de contexto.
type ContextKey int

const (
	PrincipalKey ContextKey = iota
	RequestIDKey
)

// ErrNoPrincipal indica que a requisição não passou pelo filtro de autenticação.
var ErrNoPrincipal = errors.New("nenhum principal autenticado no contexto")

// TokenVerifier define o contrato de verificação necessário para o filtro.
type TokenVerifier interface {
	Verify(tokenString string) (token.Identity, error)
}

// AuthPolicy lista as rotas que dispensam autenticação.
type AuthPolicy struct {
	PublicPaths    []string
	PublicPrefixes []string
}

// DefaultAuthPolicy é a lista de rotas públicas do serviço.
func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{
		PublicPaths: []string{
			"/auth/login",
			"/auth/register",
			"/api/auth/login",
			"/api/auth/register",
			"/ping",
			"/healthz",
			"/readyz",
			"/metrics",
		},
		PublicPrefixes: []string{
			"/actuator/",
			"/swagger/",
		},
	}
}

// IsPublic informa se o caminho está liberado.
func (p AuthPolicy) IsPublic(path string) bool {
	for _, public := range p.PublicPaths {
		if path == public {
			return true
		}
	}
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// NewAuthFilter valida o Bearer token das rotas protegidas e anexa o Principal ao contexto.
func NewAuthFilter(verifier TokenVerifier, policy AuthPolicy, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
				metrics.RecordAuthEvent("token", "missing")
				WriteError(w, apperror.NewUnauthorizedError("token de autorização ausente ou malformado."))
				return
			}

			// 2. Validar o Token
			identity, err := verifier.Verify(strings.TrimSpace(authHeader[len(prefix):]))
			if err != nil {
				log.Debug("Token rejeitado.", map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
				metrics.RecordAuthEvent("token", "invalid")
				WriteError(w, apperror.NewUnauthorizedError("token inválido ou expirado."))
				return
			}

			// 3. Anexar o Principal ao contexto
			principal := domain.Principal{
				UserID: identity.UserID,
				Email:  identity.Email,
				Role:   identity.Role,
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext extrai o principal autenticado; falha explicitamente se ausente.
func PrincipalFromContext(ctx context.Context) (domain.Principal, error) {
	principal, ok := ctx.Value(PrincipalKey).(domain.Principal)
	if !ok || principal.UserID <= 0 {
		return domain.Principal{}, ErrNoPrincipal
	}
	return principal, nil
}

// WithPrincipal devolve um contexto com o principal (usado por testes de handlers).
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
