package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockValidator struct {
	userID int
	role   int
	err    error
	token  string
}

func (m *mockValidator) ValidateAccessToken(tokenString string) (int, int, error) {
	m.token = tokenString
	return m.userID, m.role, m.err
}

func identityHandler(t *testing.T, expectUserID int, expectAuthenticated bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		assert.Equal(t, expectAuthenticated, ok)
		assert.Equal(t, expectUserID, userID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		cookie         string
		validator      *mockValidator
		expectedStatus int
		expectedToken  string
	}{
		{
			name:           "bearer header",
			header:         "Bearer abc",
			validator:      &mockValidator{userID: 7, role: RoleStudent},
			expectedStatus: http.StatusOK,
			expectedToken:  "abc",
		},
		{
			name:           "cookie",
			cookie:         "from-cookie",
			validator:      &mockValidator{userID: 7, role: RoleStudent},
			expectedStatus: http.StatusOK,
			expectedToken:  "from-cookie",
		},
		{
			name:           "missing token",
			validator:      &mockValidator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			header:         "Token abc",
			validator:      &mockValidator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			header:         "Bearer bad",
			validator:      &mockValidator{err: errors.New("token is invalid")},
			expectedStatus: http.StatusUnauthorized,
			expectedToken:  "bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tt.validator)(identityHandler(t, 7, true))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedToken, tt.validator.token)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	t.Run("anonymous passes", func(t *testing.T) {
		handler := OptionalAuthMiddleware(&mockValidator{})(identityHandler(t, 0, false))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		handler := OptionalAuthMiddleware(&mockValidator{err: errors.New("expired")})(identityHandler(t, 0, false))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer old")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		handler := OptionalAuthMiddleware(&mockValidator{userID: 3, role: RoleTeacher})(identityHandler(t, 3, true))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer ok")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		role           int
		expectedStatus int
	}{
		{name: "admin allowed", role: RoleAdmin, expectedStatus: http.StatusOK},
		{name: "teacher denied", role: RoleTeacher, expectedStatus: http.StatusForbidden},
		{name: "student denied", role: RoleStudent, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RoleMiddleware(&mockValidator{userID: 1, role: tt.role}, RoleAdmin)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					role, ok := GetRole(r.Context())
					assert.True(t, ok)
					assert.Equal(t, tt.role, role)
					w.WriteHeader(http.StatusOK)
				}),
			)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer token")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		configured     string
		provided       string
		expectedStatus int
	}{
		{name: "valid key", configured: "secret", provided: "secret", expectedStatus: http.StatusOK},
		{name: "wrong key", configured: "secret", provided: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "missing key", configured: "secret", provided: "", expectedStatus: http.StatusUnauthorized},
		{name: "unconfigured key", configured: "", provided: "", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKeyMiddleware(tt.configured)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodDelete, "/maintenance/tokens", nil)
			if tt.provided != "" {
				req.Header.Set("X-API-Key", tt.provided)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
