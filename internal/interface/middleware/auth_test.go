package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(t *testing.T) (*gin.Engine, redismock.ClientMock, *helpers.JWTManager) {
	t.Helper()
	rdb, rmock := redismock.NewClientMock()
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/me", Auth(rdb, jwt), func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "name": actor.Name, "role": c.GetString(CtxUserRoleKey)})
	})
	return r, rmock, jwt
}

func TestAuth_MissingToken(t *testing.T) {
	r, _, _ := authRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing access token")
}

func TestAuth_BearerToken(t *testing.T) {
	r, rmock, jwt := authRouter(t)
	token, _, err := jwt.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	rmock.ExpectHGetAll(application.SessionKey("u1")).SetVal(map[string]string{
		"user_id": "u1", "name": "Ada", "email": "ada@example.com", "role": "user", "sid": "s1",
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","name":"Ada","role":"user"}`, w.Body.String())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestAuth_CookieWithRotatedSession(t *testing.T) {
	r, rmock, jwt := authRouter(t)
	token, _, err := jwt.GenerateAccessToken("u1", "old")
	require.NoError(t, err)
	rmock.ExpectHGetAll(application.SessionKey("u1")).SetVal(map[string]string{"user_id": "u1", "sid": "new"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestAuth_InvalidToken(t *testing.T) {
	r, _, _ := authRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
