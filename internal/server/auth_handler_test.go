package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doAuthJSON performs a request with a bearer token against the server's routes
func doAuthJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	return w
}

// registerOperator creates an account over HTTP and returns its token
func registerOperator(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Pat Operator", Email: email, Password: password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp LoginResponse
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegister_ReturnsOperatorAndToken(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Pat Operator", Email: "pat@example.com", Password: "hunter2hunter2",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp LoginResponse
	decodeBody(t, w, &resp)
	require.NotNil(t, resp.Operator)
	assert.Equal(t, "pat@example.com", resp.Operator.Email)
	assert.Equal(t, "Pat Operator", resp.Operator.Name)
	assert.NotEmpty(t, resp.Token)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _ := newTestServer(t)
	registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	w := doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Other", Email: "pat@example.com", Password: "different-pass",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Name: "Pat", Password: "hunter2hunter2"}},
		{"bad email", RegisterRequest{Name: "Pat", Email: "not-an-email", Password: "hunter2hunter2"}},
		{"short password", RegisterRequest{Name: "Pat", Email: "pat@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/auth/register", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin_Succeeds(t *testing.T) {
	s, _ := newTestServer(t)
	registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "pat@example.com", Password: "hunter2hunter2",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "pat@example.com", resp.Operator.Email)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	s, _ := newTestServer(t)
	registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "pat@example.com", Password: "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "nobody@example.com", Password: "hunter2hunter2",
	})

	// Same status as a wrong password so accounts cannot be enumerated
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePassword_Flow(t *testing.T) {
	s, _ := newTestServer(t)
	token := registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	w := doAuthJSON(t, s, http.MethodPut, "/auth/password", token, UpdatePasswordRequest{
		CurrentPassword: "hunter2hunter2", NewPassword: "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The old password no longer works, the new one does
	w = doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "pat@example.com", Password: "hunter2hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "pat@example.com", Password: "correct-horse-battery",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	s, _ := newTestServer(t)
	token := registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	w := doAuthJSON(t, s, http.MethodPut, "/auth/password", token, UpdatePasswordRequest{
		CurrentPassword: "not-the-password", NewPassword: "correct-horse-battery",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePassword_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doAuthJSON(t, s, http.MethodPut, "/auth/password", "", UpdatePasswordRequest{
		CurrentPassword: "hunter2hunter2", NewPassword: "correct-horse-battery",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
