package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/response"
)

// Gin context keys populated by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
	CtxUserRoleKey  = "userRole"
)

// Auth validates access token and ensures an active session exists in Redis.
// It sets userID, userName, userEmail and userRole in the Gin context on success.
func Auth(rdb redis.Cmdable, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.AccessTokenFrom(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		// Retrieve session from Redis as a hash; a rotated or dropped session invalidates the token
		data, err := rdb.HGetAll(c.Request.Context(), application.SessionKey(claims.UserID)).Result()
		if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxUserIDKey, data["user_id"])
		c.Set(CtxUserNameKey, data["name"])
		c.Set(CtxUserEmailKey, data["email"])
		c.Set(CtxUserRoleKey, data["role"])
		c.Next()
	}
}

// ActorFrom returns the authenticated user recorded by Auth.
func ActorFrom(c *gin.Context) application.Actor {
	return application.Actor{
		ID:    c.GetString(CtxUserIDKey),
		Name:  c.GetString(CtxUserNameKey),
		Email: c.GetString(CtxUserEmailKey),
	}
}
