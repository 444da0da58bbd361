package crm

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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/observability"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

const (
	// expirySafetyMargin shortens the reported lifetime so a token is never
	// presented upstream within a minute of dying.
	expirySafetyMargin = 60 * time.Second
	defaultLifetime    = 3600 * time.Second

	redisTokenKey = "crm:api_token"
)

// TokenCache maintains the single process-wide CRM access token. The CRM's
// token endpoint is inconsistent about how it wants credentials, so refresh
// walks an ordered list of strategies until one yields a token.
//
// Concurrent callers hitting an expired window may each refresh; the fetch is
// idempotent and cheap, so refreshes are not coalesced. The mutex only guards
// the token/expiry pair.
type TokenCache struct {
	httpClient   *http.Client
	redis        *redis.Client
	logger       *zap.Logger
	metrics      *observability.Metrics
	now          func() time.Time
	authBaseURL  string
	clientID     string
	clientSecret string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// TokenCacheDeps encapsulates injectable collaborators. Zero-value fields
// fall back to production defaults.
type TokenCacheDeps struct {
	HTTPClient *http.Client
	Redis      *redis.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// NewTokenCache builds the cache. Construct once at process start and share.
func NewTokenCache(cfg config.CRMConfig, deps TokenCacheDeps) *TokenCache {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TokenCache{
		httpClient:   httpClient,
		redis:        deps.Redis,
		logger:       logger,
		metrics:      deps.Metrics,
		now:          now,
		authBaseURL:  strings.TrimRight(cfg.AuthBaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// GetToken returns a live access token, fetching one only when the cached
// value is absent or past its effective expiry.
func (tc *TokenCache) GetToken(ctx context.Context) (string, error) {
	tc.mu.Lock()
	if tc.token != "" && tc.now().Before(tc.expiry) {
		token := tc.token
		tc.mu.Unlock()
		return token, nil
	}
	tc.mu.Unlock()

	if token, ok := tc.loadReplica(ctx); ok {
		return token, nil
	}

	token, lifetime, err := tc.fetch(ctx)
	if err != nil {
		return "", err
	}

	expiry := tc.now().Add(lifetime - expirySafetyMargin)
	tc.mu.Lock()
	tc.token = token
	tc.expiry = expiry
	tc.mu.Unlock()

	tc.storeReplica(ctx, token, lifetime-expirySafetyMargin)
	return token, nil
}

// fetch walks the authentication strategies in order.
func (tc *TokenCache) fetch(ctx context.Context) (string, time.Duration, error) {
	strategies := []struct {
		name  string
		build func(ctx context.Context) (*http.Request, error)
	}{
		{"form post /v1/auth/token", func(ctx context.Context) (*http.Request, error) {
			return tc.formRequest(ctx, tc.authBaseURL+"/v1/auth/token")
		}},
		{"json post /v1/auth/token", func(ctx context.Context) (*http.Request, error) {
			return tc.jsonRequest(ctx, tc.authBaseURL+"/v1/auth/token")
		}},
		{"form post /v1/oauth/token", func(ctx context.Context) (*http.Request, error) {
			return tc.formRequest(ctx, tc.authBaseURL+"/v1/oauth/token")
		}},
	}

	var lastErr error
	for _, strategy := range strategies {
		req, err := strategy.build(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		if tc.metrics != nil {
			tc.metrics.RecordCRMTokenRefresh()
		}
		token, lifetime, err := tc.attempt(req)
		if err != nil {
			tc.logger.Warn("crm auth strategy failed",
				zap.String("strategy", strategy.name),
				zap.Error(err))
			lastErr = err
			continue
		}

		tc.logger.Info("crm auth succeeded", zap.String("strategy", strategy.name))
		return token, lifetime, nil
	}

	return "", 0, apperrors.NewCrmAuthFailure(lastErr)
}

func (tc *TokenCache) attempt(req *http.Request) (string, time.Duration, error) {
	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}

	token, lifetime, ok := extractToken(payload)
	if !ok {
		return "", 0, fmt.Errorf("token response has no recognizable token field: %s", body)
	}
	return token, lifetime, nil
}

// extractToken handles the response shapes the CRM has been seen to return:
// a top-level api_key, the same nested under "response", or a conventional
// OAuth access_token. Lifetime defaults to an hour when omitted.
func extractToken(payload map[string]any) (string, time.Duration, bool) {
	read := func(m map[string]any) (string, time.Duration, bool) {
		for _, key := range []string{"api_key", "access_token"} {
			token, ok := m[key].(string)
			if !ok || token == "" {
				continue
			}
			lifetime := defaultLifetime
			if secs, ok := m["expires_in"].(float64); ok && secs > 0 {
				lifetime = time.Duration(secs) * time.Second
			}
			return token, lifetime, true
		}
		return "", 0, false
	}

	if token, lifetime, ok := read(payload); ok {
		return token, lifetime, true
	}
	if nested, ok := payload["response"].(map[string]any); ok {
		return read(nested)
	}
	return "", 0, false
}

func (tc *TokenCache) formRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	form := url.Values{}
	form.Set("client_id", tc.clientID)
	form.Set("client_secret", tc.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func (tc *TokenCache) jsonRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     tc.clientID,
		"client_secret": tc.clientSecret,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// loadReplica tries the Redis copy written by a sibling instance or a prior
// run. Redis being down or empty just means a normal network refresh.
func (tc *TokenCache) loadReplica(ctx context.Context) (string, bool) {
	if tc.redis == nil {
		return "", false
	}

	token, err := tc.redis.Get(ctx, redisTokenKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	ttl, err := tc.redis.TTL(ctx, redisTokenKey).Result()
	if err != nil || ttl <= 0 {
		return "", false
	}

	tc.mu.Lock()
	tc.token = token
	tc.expiry = tc.now().Add(ttl)
	tc.mu.Unlock()
	return token, true
}

func (tc *TokenCache) storeReplica(ctx context.Context, token string, ttl time.Duration) {
	if tc.redis == nil || ttl <= 0 {
		return
	}
	if err := tc.redis.Set(ctx, redisTokenKey, token, ttl).Err(); err != nil {
		tc.logger.Warn("failed to replicate crm token to redis", zap.Error(err))
	}
}
