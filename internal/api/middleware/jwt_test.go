package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func protected(cfg JWTConfig, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, mw...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func claims(sub, role string) teacherClaims {
	return teacherClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "eslsheets",
			Audience:  jwt.ClaimStrings{"api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

func TestJWTAuth_AcceptsValidToken(t *testing.T) {
	r := protected(JWTConfig{Secret: testSecret, Issuer: "eslsheets", Audience: "api"})

	w := do(r, "/x", sign(t, claims("u1", ""), jwt.SigningMethodHS256))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","role":"teacher"}`, w.Body.String())
}

func TestJWTAuth_QueryTokenForWebsockets(t *testing.T) {
	r := protected(JWTConfig{Secret: testSecret})

	w := do(r, "/x?access_token="+sign(t, claims("u1", "admin"), jwt.SigningMethodHS256), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestJWTAuth_Rejects(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret, Issuer: "eslsheets", Audience: "api"}
	r := protected(cfg)

	expired := claims("u1", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := claims("u1", "")
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := claims("u1", "")
	wrongAudience.Audience = jwt.ClaimStrings{"web"}

	cases := map[string]string{
		"missing":        "",
		"garbage":        "not-a-token",
		"expired":        sign(t, expired, jwt.SigningMethodHS256),
		"wrong issuer":   sign(t, wrongIssuer, jwt.SigningMethodHS256),
		"wrong audience": sign(t, wrongAudience, jwt.SigningMethodHS256),
		"no subject":     sign(t, claims("", ""), jwt.SigningMethodHS256),
		"hs512":          sign(t, claims("u1", ""), jwt.SigningMethodHS512),
	}
	for name, tok := range cases {
		w := do(r, "/x", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestJWTAuth_MissingSecret(t *testing.T) {
	w := do(protected(JWTConfig{}), "/x", "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := protected(JWTConfig{Secret: testSecret}, RequireAdmin())

	w := do(r, "/x", sign(t, claims("u1", "teacher"), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "/x", sign(t, claims("u1", "Admin"), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, w.Code)

	staff := protected(JWTConfig{Secret: testSecret}, RequireStaff())
	w = do(staff, "/x", sign(t, claims("u1", "student"), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
