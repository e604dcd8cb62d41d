package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	operatorID uuid.UUID
}

func (c *stubClaims) GetOperatorID() uuid.UUID {
	return c.operatorID
}

type stubValidator struct {
	operatorID uuid.UUID
	err        error
}

func (v *stubValidator) ValidateToken(tokenString string) (OperatorIDGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &stubClaims{operatorID: v.operatorID}, nil
}

func protectedHandler(t *testing.T, wantID uuid.UUID, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		got, err := GetOperatorID(r)
		require.NoError(t, err)
		assert.Equal(t, wantID, got)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	operatorID := uuid.New()
	called := false
	handler := RequireAuth(&stubValidator{operatorID: operatorID})(protectedHandler(t, operatorID, &called))

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_CaseInsensitiveBearer(t *testing.T) {
	operatorID := uuid.New()
	called := false
	handler := RequireAuth(&stubValidator{operatorID: operatorID})(protectedHandler(t, operatorID, &called))

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("Authorization", "bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, called)
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *stubValidator
	}{
		{name: "missing header", header: "", validator: &stubValidator{}},
		{name: "not bearer", header: "Basic abc123", validator: &stubValidator{}},
		{name: "no token", header: "Bearer", validator: &stubValidator{}},
		{name: "invalid token", header: "Bearer bad", validator: &stubValidator{err: fmt.Errorf("expired")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequireAuth(tt.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/templates", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestGetOperatorID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	_, err := GetOperatorID(req)
	assert.Error(t, err)
}
