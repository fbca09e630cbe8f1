package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gousers/internal/domain"
)

// Issuer identifica os tokens emitidos por este serviço.
const Issuer = "gousers-api"

// ErrInvalidToken é a causa comum de qualquer falha de verificação.
var ErrInvalidToken = errors.New("token inválido")

// CustomClaims define as informações específicas que queremos armazenar no JWT.
// O subject (sub) carrega o e-mail do usuário.
type CustomClaims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity é o resultado de uma verificação bem-sucedida.
type Identity struct {
	Email  string
	UserID int64
	Role   domain.UserRole
}

// Service emite e verifica tokens HS256.
type Service struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// Option customiza o Service.
type Option func(*Service)

// WithClock substitui o relógio usado na emissão e verificação.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService cria uma nova instância do serviço Token.
func NewService(secretKey string, expiry time.Duration, opts ...Option) *Service {
	s := &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpiresIn retorna a validade dos tokens emitidos.
func (s *Service) ExpiresIn() time.Duration {
	return s.expiry
}

// Issue cria um novo JWT assinado com e-mail (sub), id e papel do usuário.
func (s *Service) Issue(email string, userID int64, role domain.UserRole) (string, error) {
	now := s.now()
	claims := CustomClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}

	return tokenString, nil
}

// Verify valida assinatura, algoritmo, expiração e emissor, e exige as claims de identidade.
func (s *Service) Verify(tokenString string) (Identity, error) {
	claims := &CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if claims.UserID <= 0 {
		return Identity{}, fmt.Errorf("%w: claim userId ausente ou inválida", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: claim sub ausente", ErrInvalidToken)
	}
	role := domain.UserRole(claims.Role)
	if !role.IsValid() {
		return Identity{}, fmt.Errorf("%w: papel desconhecido %q", ErrInvalidToken, claims.Role)
	}

	return Identity{Email: claims.Subject, UserID: claims.UserID, Role: role}, nil
}
