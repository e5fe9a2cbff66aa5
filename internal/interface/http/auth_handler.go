package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/response"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

// UpsertSecretHeader carries the shared secret that authorizes identity upserts.
const UpsertSecretHeader = "X-Upsert-Secret"

type AuthHandler struct {
	Svc          *application.AuthService
	Logger       *logrus.Logger
	Cookies      *helpers.TokenCookies
	UpsertSecret string
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookies *helpers.TokenCookies, upsertSecret string) *AuthHandler {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies, UpsertSecret: upsertSecret}
}

// AuthResult is the body of a successful sign-in.
type AuthResult struct {
	User      entity.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type userBody struct {
	User entity.Identity `json:"user"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), req)
	if errors.Is(err, application.ErrEmailTaken) {
		response.Error[any](c, http.StatusConflict, "User already exists", nil)
		return
	}
	if err != nil {
		helpers.LogError(h.Logger, "register failed", err, nil)
		response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		return
	}
	c.JSON(http.StatusCreated, userBody{User: u.Identity()})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, application.ErrInvalidCredentials) {
			helpers.LogError(h.Logger, "login failed", err, logrus.Fields{"email": req.Email})
		}
		response.Error[any](c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	h.signedIn(c, u, pair)
}

// Google POST /api/auth/google
// Upserts an account for an identity already verified by the OAuth provider.
// The caller proves it is the trusted front-end through the shared secret header.
func (h *AuthHandler) Google(c *gin.Context) {
	if h.UpsertSecret == "" {
		response.Error[any](c, http.StatusForbidden, "identity upsert disabled", nil)
		return
	}
	got := c.GetHeader(UpsertSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.UpsertSecret)) != 1 {
		response.Error[any](c, http.StatusForbidden, "invalid upsert secret", nil)
		return
	}
	var req application.OAuthInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpsertOAuthUser(c.Request.Context(), req)
	if err != nil {
		helpers.LogError(h.Logger, "oauth upsert failed", err, logrus.Fields{"email": req.Email})
		response.Error[any](c, http.StatusInternalServerError, "sign-in failed", nil)
		return
	}
	pair, err := h.Svc.IssueTokens(c.Request.Context(), u)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "sign-in failed", nil)
		return
	}
	h.signedIn(c, u, pair)
}

func (h *AuthHandler) signedIn(c *gin.Context, u *entity.User, pair application.TokenPair) {
	h.Cookies.Set(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.JSON(http.StatusOK, AuthResult{User: u.Identity(), Token: pair.AccessToken, ExpiresAt: pair.AccessTokenExpiry})
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := helpers.RefreshTokenFrom(c)
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.Set(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"token": pair.AccessToken, "expiresAt": pair.AccessTokenExpiry}, "token refreshed", map[string]any{"refresh_expires_at": pair.RefreshTokenExpiry})
}

// Session GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	u, err := h.Svc.Profile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	c.JSON(http.StatusOK, userBody{User: u.Identity()})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		helpers.LogError(h.Logger, "logout failed", err, nil)
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
