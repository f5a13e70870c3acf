package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-core/internal/auth/service"
	"auth-core/internal/store"
)

type fakeService struct {
	loginErr   error
	refreshErr error
	logoutErr  error
}

func (f *fakeService) Login(_ context.Context, email, password string) (*service.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &service.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Minute), UserID: "u1"}, nil
}

func (f *fakeService) Refresh(_ context.Context, refreshToken string) (*service.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &service.TokenPair{AccessToken: "access2", RefreshToken: "refresh2", ExpiresAt: time.Now().Add(time.Minute), UserID: "u1"}, nil
}

func (f *fakeService) Logout(_ context.Context, refreshToken string) error {
	return f.logoutErr
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, nil, zerolog.Nop())
	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginSuccess(t *testing.T) {
	r := newRouter(&fakeService{})
	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"correct horse battery"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"access"`)
	assert.Contains(t, w.Body.String(), `"refresh_token":"refresh"`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := newRouter(&fakeService{loginErr: service.ErrInvalidCredentials})
	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginStoreUnavailable(t *testing.T) {
	r := newRouter(&fakeService{loginErr: store.ErrUnavailable})
	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw12345678"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	r := newRouter(&fakeService{})
	for _, body := range []string{`{}`, `{"email":"a@b.com"}`, `{"password":"x"}`, `not json`} {
		w := doJSON(t, r, http.MethodPost, "/login", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestRefresh(t *testing.T) {
	r := newRouter(&fakeService{})
	w := doJSON(t, r, http.MethodPost, "/auth/refresh", `{"refresh_token":"refresh"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refresh_token":"refresh2"`)
}

func TestRefreshInvalidToken(t *testing.T) {
	r := newRouter(&fakeService{refreshErr: service.ErrInvalidToken})
	w := doJSON(t, r, http.MethodPost, "/auth/refresh", `{"refresh_token":"stale"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	r := newRouter(&fakeService{})
	w := doJSON(t, r, http.MethodPost, "/auth/logout", `{"refresh_token":"refresh"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
}
