package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gousers/internal/api/health"
	"gousers/internal/api/router"
	"gousers/internal/api/user"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/database"
	"gousers/internal/pkg/hasher"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/middleware"
	"gousers/internal/pkg/token"
	"gousers/internal/repository/userrepo"
	"gousers/internal/service/userservice"
)

const secret = "0123456789abcdef0123456789abcdef"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.NewDB(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(context.Background(), db, database.DriverSQLite)
	require.NoError(t, err)

	log := logger.NewNop()
	cacheClient := cache.NewNoopClient()
	tokens := token.NewService(secret, time.Hour)

	repo := userrepo.NewUserRepository(db, cacheClient, 5*time.Second, time.Minute, log)
	svc := userservice.NewService(repo, hasher.NewBcrypt(bcrypt.MinCost), log)

	handler := router.NewRouter(router.Dependencies{
		UserHandler: user.NewHandler(svc, tokens, log),
		HealthHandler: health.NewHandler(map[string]health.Pinger{
			"database": db,
			"cache":    health.PingerFunc(cacheClient.Ping),
		}, time.Second, log),
		Verifier:             tokens,
		Policy:               middleware.DefaultAuthPolicy(),
		Cache:                cacheClient,
		Logger:               log,
		RateLimitMaxRequests: 100,
		RateLimitPeriod:      time.Minute,
		CORSAllowedOrigins:   []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, tok string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestUserLifecycle_EndToEnd(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"firstName": "Ana", "lastName": "Souza", "email": "ana@example.com",
		"password": "segredo123", "city": "São Paulo",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "USER", body["role"])
	assert.NotContains(t, body, "password")

	status, body = call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "segredo123",
	})
	require.Equal(t, http.StatusOK, status, body)
	tok := body["token"].(string)

	status, body = call(t, srv, http.MethodGet, "/user/", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "São Paulo", body["city"])

	status, body = call(t, srv, http.MethodPut, "/user/update", tok, map[string]string{"city": "Recife"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, srv, http.MethodGet, "/user", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Recife", body["city"])
	assert.Equal(t, "Ana", body["firstName"])

	status, _ = call(t, srv, http.MethodDelete, "/user/delete", tok, map[string]string{"password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, srv, http.MethodDelete, "/user/delete", tok, map[string]string{"password": "segredo123"})
	require.Equal(t, http.StatusOK, status, body)

	// O token ainda é válido, mas o usuário não existe mais.
	status, body = call(t, srv, http.MethodGet, "/user/", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["category"])
}

func TestRegister_DuplicateEmailViaAlias(t *testing.T) {
	srv := newServer(t)
	payload := map[string]string{"firstName": "Ana", "lastName": "Souza", "email": "ana@example.com", "password": "segredo123"}

	status, _ := call(t, srv, http.MethodPost, "/api/auth/register", "", payload)
	require.Equal(t, http.StatusOK, status)

	payload["email"] = "ANA@example.com"
	status, body := call(t, srv, http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["category"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/user/"},
		{http.MethodPut, "/user/update"},
		{http.MethodGet, "/user/all"},
		{http.MethodDelete, "/user/delete"},
	} {
		status, body := call(t, srv, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
		assert.Equal(t, "UNAUTHORIZED", body["category"])

		status, _ = call(t, srv, tc.method, tc.path, "lixo", nil)
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
	}
}

func TestListUsers_Paging(t *testing.T) {
	srv := newServer(t)
	for i := 0; i < 12; i++ {
		status, _ := call(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
			"firstName": "U", "lastName": "X", "email": "u" + string(rune('a'+i)) + "@example.com", "password": "segredo123",
		})
		require.Equal(t, http.StatusOK, status)
	}
	_, body := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "ua@example.com", "password": "segredo123"})
	tok := body["token"].(string)

	status, body := call(t, srv, http.MethodGet, "/user/all?page=1&size=5", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 12, body["totalElements"])
	assert.EqualValues(t, 3, body["totalPages"])
	assert.Len(t, body["content"], 5)

	status, _ = call(t, srv, http.MethodGet, "/user/all?size=101", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	for _, page := range []string{"4611686018427387904", "9223372036854775807"} {
		status, body = call(t, srv, http.MethodGet, "/user/all?size=4&page="+page, tok, nil)
		assert.Equal(t, http.StatusBadRequest, status, page)
		assert.Equal(t, "VALIDATION_ERROR", body["category"])
	}

	status, body = call(t, srv, http.MethodGet, "/user/all?page=100&size=5", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["content"])
	assert.EqualValues(t, 12, body["totalElements"])
}

func TestMethodNotAllowed_UsesErrorBody(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPost, "/ping", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.EqualValues(t, http.StatusMethodNotAllowed, body["code"])
	assert.Equal(t, "METHOD_NOT_ALLOWED", body["category"])
	assert.Equal(t, "Método não permitido.", body["message"])
}

func TestPublicEndpoints(t *testing.T) {
	srv := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := call(t, srv, http.MethodGet, "/actuator/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "UP", body["status"])

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/user/update", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
