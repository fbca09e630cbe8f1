package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gousers/internal/api/user"
	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/middleware"
	"gousers/internal/pkg/token"
)

// MockUserService é um mock da interface user.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) RegisterUser(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID int64, upd domain.UserUpdate) (domain.User, error) {
	args := m.Called(ctx, userID, upd)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) LoadUserByID(ctx context.Context, userID int64) (domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) GetAllUsers(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	args := m.Called(ctx, page, size)
	return args.Get(0).(domain.Page[domain.User]), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID int64, password string) (domain.User, error) {
	args := m.Called(ctx, userID, password)
	return args.Get(0).(domain.User), args.Error(1)
}

const secret = "0123456789abcdef0123456789abcdef"

func newHandler(svc *MockUserService) *user.Handler {
	return user.NewHandler(svc, token.NewService(secret, time.Hour), logger.NewNop())
}

func authed(req *http.Request, id int64) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), domain.Principal{UserID: id, Email: "ana@example.com", Role: domain.RoleUser}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func storedUser() domain.User {
	return domain.User{
		ID: 1, FirstName: "Ana", LastName: "Souza", Email: "ana@example.com",
		PasswordHash: "$2a$10$segredo", City: "São Paulo", Role: domain.RoleUser,
	}
}

func TestRegister_Success_NoPasswordInResponse(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	svc.On("RegisterUser", mock.Anything, mock.MatchedBy(func(reg domain.UserRegistration) bool {
		return reg.Email == "ana@example.com" && reg.Role == domain.RoleUser && reg.Password == "segredo123"
	})).Return(storedUser(), nil)

	body := `{"firstName":"Ana","lastName":"Souza","email":"ana@example.com","password":"segredo123","role":"user"}`
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.EqualValues(t, 1, resp["id"])
	assert.NotContains(t, resp, "password")
	assert.NotContains(t, resp, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
	svc.AssertExpectations(t)
}

func TestRegister_ValidationFailuresNeverReachService(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	cases := map[string]string{
		"json inválido":      `{"email":`,
		"corpo vazio":        ``,
		"e-mail inválido":    `{"firstName":"A","lastName":"B","email":"nao-e-email","password":"segredo123"}`,
		"senha curta":        `{"firstName":"A","lastName":"B","email":"a@b.com","password":"123"}`,
		"sem nome":           `{"lastName":"B","email":"a@b.com","password":"segredo123"}`,
		"papel inválido":     `{"firstName":"A","lastName":"B","email":"a@b.com","password":"segredo123","role":"ROOT"}`,
		"lixo após o objeto": `{"firstName":"A","lastName":"B","email":"a@b.com","password":"segredo123"}garbage`,
		"dois objetos":       `{"firstName":"A","lastName":"B","email":"a@b.com","password":"segredo123"}{}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["category"])
		})
	}
	svc.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
}

func TestRegister_Conflict(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("RegisterUser", mock.Anything, mock.Anything).Return(domain.User{}, apperror.NewConflictError("o e-mail já está em uso."))

	body := `{"firstName":"Ana","lastName":"Souza","email":"ana@example.com","password":"segredo123"}`
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc := new(MockUserService)
	tokens := token.NewService(secret, time.Hour)
	h := user.NewHandler(svc, tokens, logger.NewNop())

	svc.On("AuthenticateUser", mock.Anything, domain.Credentials{Email: "ana@example.com", Password: "segredo123"}).Return(storedUser(), nil)

	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"segredo123"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.EqualValues(t, 3600, resp["expiresInSeconds"])

	identity, err := tokens.Verify(resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.UserID)
	assert.Equal(t, "ana@example.com", identity.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("AuthenticateUser", mock.Anything, mock.Anything).Return(domain.User{}, apperror.NewUnauthorizedError("Credenciais inválidas."))

	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"errada"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["category"])
}

func TestGetProfile(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("LoadUserByID", mock.Anything, int64(1)).Return(storedUser(), nil)

	rec := httptest.NewRecorder()
	h.GetProfileHandler(rec, authed(httptest.NewRequest(http.MethodGet, "/user/", nil), 1))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "São Paulo", decode(t, rec)["city"])
}

func TestGetProfile_WithoutPrincipal(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	rec := httptest.NewRecorder()
	h.GetProfileHandler(rec, httptest.NewRequest(http.MethodGet, "/user/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "LoadUserByID", mock.Anything, mock.Anything)
}

func TestUpdateProfile_PassesOnlyProvidedFields(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	updated := storedUser()
	updated.City = "Recife"
	svc.On("UpdateUser", mock.Anything, int64(1), mock.MatchedBy(func(u domain.UserUpdate) bool {
		return u.City != nil && *u.City == "Recife" && u.Email == nil && u.FirstName == nil
	})).Return(updated, nil)

	rec := httptest.NewRecorder()
	h.UpdateProfileHandler(rec, authed(httptest.NewRequest(http.MethodPut, "/user/update", strings.NewReader(`{"city":"Recife"}`)), 1))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Recife", decode(t, rec)["city"])
}

func TestUpdateProfile_InvalidEmail(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	rec := httptest.NewRecorder()
	h.UpdateProfileHandler(rec, authed(httptest.NewRequest(http.MethodPut, "/user/update", strings.NewReader(`{"email":""}`)), 1))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUsers(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	svc.On("GetAllUsers", mock.Anything, 2, 10).Return(domain.NewPage([]domain.User{storedUser()}, 2, 10, 21), nil)

	rec := httptest.NewRecorder()
	h.ListUsersHandler(rec, authed(httptest.NewRequest(http.MethodGet, "/user/all?page=2&size=10", nil), 1))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.EqualValues(t, 21, resp["totalElements"])
	assert.EqualValues(t, 3, resp["totalPages"])
	assert.Len(t, resp["content"], 1)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestListUsers_DefaultsAndBadQuery(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("GetAllUsers", mock.Anything, 0, 10).Return(domain.NewPage[domain.User](nil, 0, 10, 0), nil)

	rec := httptest.NewRecorder()
	h.ListUsersHandler(rec, authed(httptest.NewRequest(http.MethodGet, "/user/all", nil), 1))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ListUsersHandler(rec, authed(httptest.NewRequest(http.MethodGet, "/user/all?size=abc", nil), 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAccount(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("DeleteUser", mock.Anything, int64(1), "segredo123").Return(storedUser(), nil)
	svc.On("DeleteUser", mock.Anything, int64(1), "errada").Return(domain.User{}, apperror.NewUnauthorizedError("senha incorreta."))

	rec := httptest.NewRecorder()
	h.DeleteAccountHandler(rec, authed(httptest.NewRequest(http.MethodDelete, "/user/delete", strings.NewReader(`{"password":"segredo123"}`)), 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Usuário removido com sucesso.", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.DeleteAccountHandler(rec, authed(httptest.NewRequest(http.MethodDelete, "/user/delete", strings.NewReader(`{"password":"errada"}`)), 1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteAccount_TrailingDataIsRejected(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)

	rec := httptest.NewRecorder()
	h.DeleteAccountHandler(rec, authed(httptest.NewRequest(http.MethodDelete, "/user/delete", strings.NewReader(`{"password":"x"}garbage`)), 1))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["category"])
	svc.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_TrailingWhitespaceIsAccepted(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("AuthenticateUser", mock.Anything, mock.Anything).Return(storedUser(), nil)

	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{\"email\":\"ana@example.com\",\"password\":\"segredo123\"}\n  ")))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	svc := new(MockUserService)
	h := newHandler(svc)
	svc.On("LoadUserByID", mock.Anything, int64(1)).Return(domain.User{}, apperror.NewDBError("falha", assert.AnError))

	rec := httptest.NewRecorder()
	h.GetProfileHandler(rec, authed(httptest.NewRequest(http.MethodGet, "/user/", nil), 1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperror.GenericInternalMessage, decode(t, rec)["message"])
}
