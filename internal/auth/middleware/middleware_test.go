package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-authoring/internal/rbac"
)

func login(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginAndMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a := NewAuthService("test-secret")
	h := LoginHandler(a, Logins{AdminUser: "admin", AdminPassHash: string(hash), DevLogin: true})

	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"admin","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"ana","password":"bob"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"ana","password":"ana","role":"admin"}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(t, h, `{`).Code)

	rec := login(t, h, `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "admin", resp.Role)
	assert.Equal(t, "Bearer", resp.TokenType)

	var sub, role string
	protected := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/exams/e1", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", sub)
	assert.Equal(t, "admin", role)

	forged, err := NewAuthService("other").IssueJWT("x", "admin")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevLoginDisabled(t *testing.T) {
	h := LoginHandler(NewAuthService("k"), Logins{AdminUser: "admin", AdminPassHash: "x"})
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"teacher","password":"teacher"}`).Code)
}
