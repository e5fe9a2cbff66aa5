package eventapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// UpsertSecretHeader carries the shared secret for identity upserts.
const UpsertSecretHeader = "X-Upsert-Secret"

// Client talks to the EventHub REST API. Each call is a single attempt; there is no retry.
// The bearer token may be swapped while requests are in flight.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// New creates a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = helpers.NopLogger()
	}
	return c
}

// SetToken replaces the bearer token; "" sends requests unauthenticated.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AuthResult is returned by the sign-in endpoints.
type AuthResult struct {
	User      entity.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// GoogleIdentity is a profile already verified by the identity provider.
type GoogleIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

type userBody struct {
	User entity.Identity `json:"user"`
}

// List GET /api/events
func (c *Client) List(ctx context.Context) ([]entity.Event, error) {
	var out []entity.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID GET /api/events/{id}. Every failure status is reported as ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	var out entity.Event
	err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, nil, &out)
	if err != nil {
		if StatusOf(err) != 0 {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return &out, nil
}

// Create POST /api/events
func (c *Client) Create(ctx context.Context, d Draft, organizerID, organizerName string) (*entity.Event, error) {
	rec, err := RecordFromDraft(d, organizerID, organizerName)
	if err != nil {
		return nil, err
	}
	var out entity.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", nil, rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update PUT /api/events/{id}. rec replaces the stored event as a whole.
func (c *Client) Update(ctx context.Context, id string, rec Record) (*entity.Event, error) {
	var out entity.Event
	if err := c.do(ctx, http.MethodPut, "/api/events/"+url.PathEscape(id), nil, rec, &out); err != nil {
		return nil, err
	}
	// 204 or an empty object: the caller builds the result from what it sent
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

// Delete DELETE /api/events/{id}
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil, nil)
}

// Search GET /api/events/search
func (c *Client) Search(ctx context.Context, query, category string) ([]entity.Event, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if category != "" && category != entity.CategoryAll {
		q.Set("category", category)
	}
	path := "/api/events/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []entity.Event
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login POST /api/auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register POST /api/auth/register
func (c *Client) Register(ctx context.Context, name, email, password string) (*entity.Identity, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out userBody
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// GoogleSignIn POST /api/auth/google
func (c *Client) GoogleSignIn(ctx context.Context, id GoogleIdentity, secret string) (*AuthResult, error) {
	body := map[string]string{"name": id.Name, "email": id.Email, "image": id.Image, "provider": entity.ProviderGoogle}
	hdr := http.Header{}
	hdr.Set(UpsertSecretHeader, secret)
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/google", hdr, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me GET /api/auth/session
func (c *Client) Me(ctx context.Context) (*entity.Identity, error) {
	var out userBody
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout POST /api/auth/logout
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	c.Logger.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
