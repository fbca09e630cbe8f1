package userservice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/hasher"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/metrics"
	"gousers/internal/pkg/tracing"
)

// Limites de paginação aceitos por GetAllUsers.
const (
	MaxPageSize     = 100
	DefaultPageSize = 10
)

const invalidCredentials = "Credenciais inválidas."

// UserRepository define o contrato que o Serviço de Usuários espera da camada de Persistência.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAllPaged(ctx context.Context, page, size int) ([]domain.User, int64, error)
	Save(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// Service concentra as regras de negócio da conta de usuário.
type Service struct {
	repo   UserRepository
	hasher hasher.PasswordHasher
	logger logger.Logger
}

// NewService cria uma nova instância do Serviço de Usuários.
func NewService(repo UserRepository, h hasher.PasswordHasher, log logger.Logger) *Service {
	return &Service{repo: repo, hasher: h, logger: log}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, "UserService."+name, trace.WithAttributes(attrs...))
}

// RegisterUser cria a conta, com senha em hash e papel USER por padrão.
func (s *Service) RegisterUser(ctx context.Context, reg domain.UserRegistration) (user domain.User, err error) {
	ctx, span := startSpan(ctx, "RegisterUser")
	defer func() { tracing.RecordError(span, err); span.End() }()

	email := domain.NormalizeEmail(reg.Email)
	s.logger.Debug("Iniciando registro de usuário no serviço.", map[string]interface{}{"email": email})

	if email == "" || reg.Password == "" {
		return domain.User{}, apperror.NewValidationError("e-mail e senha são obrigatórios.")
	}

	role := reg.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.IsValid() {
		return domain.User{}, apperror.NewValidationError(fmt.Sprintf("papel inválido: %s", reg.Role))
	}

	// Verificação antecipada; a restrição UNIQUE do banco cobre registros concorrentes.
	if err := s.ensureEmailAvailable(ctx, email, 0); err != nil {
		metrics.RecordAuthEvent("register", "conflict")
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	created, err := s.repo.Create(ctx, domain.User{
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(reg.Phone),
		PasswordHash: hash,
		Country:      strings.TrimSpace(reg.Country),
		City:         strings.TrimSpace(reg.City),
		Street:       strings.TrimSpace(reg.Street),
		Role:         role,
	})
	if err != nil {
		metrics.RecordAuthEvent("register", "error")
		return domain.User{}, err
	}

	metrics.RecordAuthEvent("register", "success")
	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"user_id": created.ID, "role": created.Role})
	return created, nil
}

// AuthenticateUser verifica as credenciais. E-mail desconhecido e senha errada
// produzem exatamente o mesmo erro.
func (s *Service) AuthenticateUser(ctx context.Context, creds domain.Credentials) (user domain.User, err error) {
	ctx, span := startSpan(ctx, "AuthenticateUser")
	defer func() { tracing.RecordError(span, err); span.End() }()

	email := domain.NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		metrics.RecordAuthEvent("login", "rejected")
		return domain.User{}, apperror.NewUnauthorizedError(invalidCredentials)
	}

	user, err = s.repo.FindByEmail(ctx, email)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Info("Tentativa de login com e-mail desconhecido.", nil)
			metrics.RecordAuthEvent("login", "rejected")
			return domain.User{}, apperror.NewUnauthorizedError(invalidCredentials)
		}
		return domain.User{}, err
	}

	if !s.hasher.Compare(user.PasswordHash, creds.Password) {
		s.logger.Info("Tentativa de login com senha incorreta.", map[string]interface{}{"user_id": user.ID})
		metrics.RecordAuthEvent("login", "rejected")
		return domain.User{}, apperror.NewUnauthorizedError(invalidCredentials)
	}

	metrics.RecordAuthEvent("login", "success")
	s.logger.Info("Usuário autenticado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// UpdateUser aplica uma atualização parcial: apenas os campos informados são alterados.
func (s *Service) UpdateUser(ctx context.Context, userID int64, upd domain.UserUpdate) (user domain.User, err error) {
	ctx, span := startSpan(ctx, "UpdateUser", attribute.Int64("user.id", userID))
	defer func() { tracing.RecordError(span, err); span.End() }()

	s.logger.Debug("Iniciando atualização de usuário no serviço.", map[string]interface{}{"user_id": userID})

	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if upd.IsEmpty() {
		s.logger.Debug("Atualização vazia; nada a persistir.", map[string]interface{}{"user_id": userID})
		return current, nil
	}

	if upd.Email != nil {
		newEmail := domain.NormalizeEmail(*upd.Email)
		if newEmail == "" {
			return domain.User{}, apperror.NewValidationError("o e-mail não pode ser vazio.")
		}
		if newEmail != current.Email {
			if err := s.ensureEmailAvailable(ctx, newEmail, current.ID); err != nil {
				return domain.User{}, err
			}
		}
	}

	upd.ApplyTo(&current)

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": saved.ID})
	return saved, nil
}

// LoadUserByID retorna o registro do usuário.
func (s *Service) LoadUserByID(ctx context.Context, userID int64) (user domain.User, err error) {
	ctx, span := startSpan(ctx, "LoadUserByID", attribute.Int64("user.id", userID))
	defer func() { tracing.RecordError(span, err); span.End() }()

	return s.repo.FindByID(ctx, userID)
}

// GetAllUsers lista usuários paginados em ordem crescente de id.
func (s *Service) GetAllUsers(ctx context.Context, page, size int) (result domain.Page[domain.User], err error) {
	ctx, span := startSpan(ctx, "GetAllUsers", attribute.Int("page", page), attribute.Int("size", size))
	defer func() { tracing.RecordError(span, err); span.End() }()

	if page < 0 {
		return domain.Page[domain.User]{}, apperror.NewValidationError("o número da página não pode ser negativo.")
	}
	if size < 1 || size > MaxPageSize {
		return domain.Page[domain.User]{}, apperror.NewValidationError(fmt.Sprintf("o tamanho da página deve estar entre 1 e %d.", MaxPageSize))
	}
	if int64(page) > math.MaxInt64/int64(size) {
		return domain.Page[domain.User]{}, apperror.NewValidationError("o número da página é grande demais.")
	}

	users, total, err := s.repo.FindAllPaged(ctx, page, size)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}

	return domain.NewPage(users, page, size, total), nil
}

// DeleteUser remove a conta após confirmar a senha e devolve o registro removido.
func (s *Service) DeleteUser(ctx context.Context, userID int64, password string) (user domain.User, err error) {
	ctx, span := startSpan(ctx, "DeleteUser", attribute.Int64("user.id", userID))
	defer func() { tracing.RecordError(span, err); span.End() }()

	user, err = s.repo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.logger.Warn("Remoção de conta recusada: senha incorreta.", map[string]interface{}{"user_id": userID})
		return domain.User{}, apperror.NewUnauthorizedError("senha incorreta.")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário removido.", map[string]interface{}{"user_id": userID})
	return user, nil
}

// ensureEmailAvailable falha com ConflictError se o e-mail pertence a outro usuário.
// ownerID = 0 significa "nenhum dono aceitável" (registro).
func (s *Service) ensureEmailAvailable(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.ID == ownerID {
			return nil
		}
		s.logger.Warn("E-mail já está em uso.", map[string]interface{}{"email": email})
		return apperror.NewConflictError("o e-mail já está em uso.")
	}

	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
