package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	repo "github.com/oksasatya/go-eventhub/internal/domain/repository"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
)

const defaultSessionTTL = 24 * time.Hour

type AuthService struct {
	Repo       repo.UserRepository
	JWT        *helpers.JWTManager
	Redis      redis.Cmdable
	Logger     *logrus.Logger
	SessionTTL time.Duration

	now          func() time.Time
	newSessionID func() string
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RegisterInput mirrors the sign-up form rules.
type RegisterInput struct {
	Name     string `json:"name" binding:"required,displayname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OAuthInput is the identity an external provider vouched for.
type OAuthInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Image    string `json:"image"`
	Provider string `json:"provider"`
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func NewAuthService(r repo.UserRepository, jwt *helpers.JWTManager, rdb redis.Cmdable, logger *logrus.Logger, sessionTTL time.Duration) *AuthService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		Repo:         r,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		SessionTTL:   sessionTTL,
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
}

func (s *AuthService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Register creates a credentials account. Emails are unique case-insensitively.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Role:     entity.RoleUser,
		Provider: entity.ProviderCredentials,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.Password == "" || !helpers.PasswordMatches(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := s.newSessionID()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key,
			"user_id", u.ID,
			"email", u.Email,
			"name", u.Name,
			"role", u.Role,
			"avatar_url", u.AvatarURL,
			"sid", sid,
			"created_at", s.timestamp(),
		)
		pipe.Expire(ctx, key, s.SessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// UpsertOAuthUser finds or creates the account for an identity vouched for by an
// external provider and refreshes its display fields.
func (s *AuthService) UpsertOAuthUser(ctx context.Context, in OAuthInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		provider = entity.ProviderGoogle
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	u, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u = &entity.User{
			Email:     email,
			Name:      name,
			AvatarURL: in.Image,
			Role:      entity.RoleUser,
			Provider:  provider,
		}
		if err := s.Repo.Create(ctx, u); err != nil {
			return nil, err
		}
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": provider}).Info("oauth user created")
		return u, nil
	case err != nil:
		return nil, err
	}

	// an existing account keeps its provider and password; only blank display fields are filled
	changed := false
	if u.AvatarURL == "" && in.Image != "" {
		u.AvatarURL = in.Image
		changed = true
	}
	if u.Name == "" {
		u.Name = name
		changed = true
	}
	if changed {
		if err := s.Repo.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// Validate current session id matches the token's sid
	if s.Redis != nil {
		key := SessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	// Rotate session id and tokens
	sid := s.newSessionID()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, "sid", sid, "updated_at", s.timestamp())
		pipe.Expire(ctx, key, s.SessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Profile returns the user behind a session.
func (s *AuthService) Profile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Logout drops the Redis session so outstanding tokens stop validating.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil || userID == "" {
		return nil
	}
	return helpers.Del(ctx, s.Redis, SessionKey(userID))
}
