package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/middleware"
)

const maxBodyBytes = 1 << 20

// UserService define o contrato que os handlers esperam da camada de negócio.
type UserService interface {
	RegisterUser(ctx context.Context, reg domain.UserRegistration) (domain.User, error)
	AuthenticateUser(ctx context.Context, creds domain.Credentials) (domain.User, error)
	UpdateUser(ctx context.Context, userID int64, upd domain.UserUpdate) (domain.User, error)
	LoadUserByID(ctx context.Context, userID int64) (domain.User, error)
	GetAllUsers(ctx context.Context, page, size int) (domain.Page[domain.User], error)
	DeleteUser(ctx context.Context, userID int64, password string) (domain.User, error)
}

// TokenIssuer emite o token após a autenticação.
type TokenIssuer interface {
	Issue(email string, userID int64, role domain.UserRole) (string, error)
	ExpiresIn() time.Duration
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service  UserService
	Tokens   TokenIssuer
	Logger   logger.Logger
	validate *validator.Validate
}

// NewHandler cria uma nova instância do Handler, injetando o Service, o emissor de tokens e o Logger.
func NewHandler(svc UserService, tokens TokenIssuer, log logger.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Mensagens de validação usam o nome do campo JSON.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		Service:  svc,
		Tokens:   tokens,
		Logger:   log,
		validate: v,
	}
}

// handleServiceResponse padroniza o tratamento de erros e respostas HTTP.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	// Log apenas de erros graves
	if status >= http.StatusInternalServerError {
		h.Logger.Error(fmt.Sprintf("Erro interno em %s %s.", r.Method, r.URL.Path), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// decodeAndValidate lê o JSON (limitado a 1 MiB) e aplica as regras de validação.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.NewValidationError("payload excede o tamanho máximo permitido.")
		case errors.Is(err, io.EOF):
			return apperror.NewValidationError("corpo da requisição vazio.")
		default:
			return apperror.NewValidationError("payload JSON inválido.")
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.NewValidationError("payload JSON inválido: conteúdo extra após o objeto.")
	}

	if err := h.validate.Struct(dst); err != nil {
		return apperror.NewValidationError(describeValidation(err))
	}
	return nil
}

// describeValidation resume os erros do validator em uma mensagem legível.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "dados inválidos."
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s é obrigatório", fe.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s deve ser um e-mail válido", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s deve ter no mínimo %s caracteres", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s deve ter no máximo %s caracteres", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s é inválido", fe.Field()))
		}
	}
	return strings.Join(parts, "; ") + "."
}

// principal lê a identidade autenticada do contexto.
func (h *Handler) principal(r *http.Request) (domain.Principal, error) {
	p, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		return domain.Principal{}, apperror.NewUnauthorizedError("autenticação necessária.")
	}
	return p, nil
}

// RegisterUserHandler lida com a requisição POST /auth/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário, gera o hash da senha e salva no banco de dados.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body RegisterRequest true "Dados de registro"
// @Success 200 {object} UserResponse "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Failure 429 {object} domain.ErrorResponse "Limite de requisições excedido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /auth/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("role deve ser USER ou ADMIN."), http.StatusOK)
		return
	}

	created, err := h.Service.RegisterUser(r.Context(), req.toDomain(role))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, ToResponse(created), nil, http.StatusOK)
}

// LoginUserHandler lida com a requisição POST /auth/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe e-mail e senha, verifica as credenciais e emite um JSON Web Token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário"
// @Success 200 {object} LoginResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 429 {object} domain.ErrorResponse "Limite de requisições excedido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /auth/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	authenticated, err := h.Service.AuthenticateUser(r.Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	tok, err := h.Tokens.Issue(authenticated.Email, authenticated.ID, authenticated.Role)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewInternalError("Falha ao gerar token de autenticação.", err), http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, LoginResponse{
		Token:            tok,
		ExpiresInSeconds: int64(h.Tokens.ExpiresIn().Seconds()),
	}, nil, http.StatusOK)
}

// GetProfileHandler lida com a requisição GET /user/.
// @Summary Perfil do usuário autenticado
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} domain.ErrorResponse "Token ausente, inválido ou expirado"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Router /user/ [get]
func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	u, err := h.Service.LoadUserByID(r.Context(), p.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, ToResponse(u), nil, http.StatusOK)
}

// UpdateProfileHandler lida com a requisição PUT /user/update.
// @Summary Atualiza parcialmente o perfil do usuário autenticado
// @Description Somente os campos enviados são alterados.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param update body UpdateRequest true "Campos a alterar"
// @Success 200 {object} UserResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Token ausente, inválido ou expirado"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Router /user/update [put]
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req UpdateRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	u, err := h.Service.UpdateUser(r.Context(), p.UserID, req.toDomain())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, ToResponse(u), nil, http.StatusOK)
}

// ListUsersHandler lida com a requisição GET /user/all.
// @Summary Lista usuários paginados
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página (a partir de 0)" default(0)
// @Param size query int false "Tamanho da página (1 a 100)" default(10)
// @Success 200 {object} UserPageResponse
// @Failure 400 {object} domain.ErrorResponse "Parâmetros de paginação inválidos"
// @Failure 401 {object} domain.ErrorResponse "Token ausente, inválido ou expirado"
// @Router /user/all [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	size, err := queryInt(r, "size", 10)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.Service.GetAllUsers(r.Context(), page, size)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.MapPage(result, ToResponse), nil, http.StatusOK)
}

// DeleteAccountHandler lida com a requisição DELETE /user/delete.
// @Summary Remove a conta do usuário autenticado
// @Description Exige a senha atual como confirmação.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param confirmation body DeleteRequest true "Senha atual"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Token inválido ou senha incorreta"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Router /user/delete [delete]
func (h *Handler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req DeleteRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if _, err := h.Service.DeleteUser(r.Context(), p.UserID, req.Password); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, MessageResponse{Message: "Usuário removido com sucesso."}, nil, http.StatusOK)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("parâmetro %s deve ser um número inteiro.", key))
	}
	return n, nil
}
