// Package auth verifies bearer tokens against the external auth provider
// and serves user profiles from its REST API.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnauthorized  = errors.New("invalid or expired token")
	ErrNotConfigured = errors.New("auth provider not configured")
)

// User is the verified identity attached to each request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier validates tokens. The token payload is decoded locally first
// (cheap, catches expiry); when the payload is unusable the provider's
// /auth/v1/user endpoint is the source of truth. Verified tokens are cached
// until their exp claim.
type Verifier struct {
	url     string
	anonKey string
	disable bool
	client  *http.Client

	mu    sync.Mutex
	cache map[string]cachedUser
}

type cachedUser struct {
	user    User
	expires time.Time
}

func NewVerifier(url, anonKey string, disable bool, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Verifier{
		url:     strings.TrimRight(url, "/"),
		anonKey: anonKey,
		disable: disable,
		client:  client,
		cache:   make(map[string]cachedUser),
	}
}

// Verify returns the user a bearer token belongs to.
func (v *Verifier) Verify(ctx context.Context, token string) (User, error) {
	if v.disable {
		return User{ID: "local-user", Email: "local@localhost"}, nil
	}
	if v.url == "" || v.anonKey == "" {
		return User{}, ErrNotConfigured
	}
	if token == "" {
		return User{}, ErrUnauthorized
	}

	v.mu.Lock()
	if cached, ok := v.cache[token]; ok && time.Now().Before(cached.expires) {
		v.mu.Unlock()
		return cached.user, nil
	}
	v.mu.Unlock()

	user, exp, err := verifyLocally(token)
	if errors.Is(err, ErrUnauthorized) {
		return User{}, err
	}
	if err != nil {
		user, exp, err = v.verifyWithProvider(ctx, token)
		if err != nil {
			return User{}, err
		}
	}

	v.mu.Lock()
	v.pruneLocked(time.Now())
	v.cache[token] = cachedUser{user: user, expires: exp}
	v.mu.Unlock()
	return user, nil
}

// pruneLocked drops expired cache entries so the map stays bounded by the
// number of currently valid tokens. Caller holds v.mu.
func (v *Verifier) pruneLocked(now time.Time) {
	for t, c := range v.cache {
		if now.After(c.expires) {
			delete(v.cache, t)
		}
	}
}

// verifyLocally decodes the JWT payload without signature verification, the
// provider API remaining the fallback authority. Expired tokens fail here
// and are never retried against the provider.
func verifyLocally(token string) (User, time.Time, error) {
	payload, err := decodeJWTPayload(token)
	if err != nil {
		return User{}, time.Time{}, err
	}

	exp := time.Now().Add(5 * time.Minute)
	if e, ok := payload["exp"].(float64); ok {
		exp = time.Unix(int64(e), 0)
		if time.Now().After(exp) {
			return User{}, time.Time{}, ErrUnauthorized
		}
	}

	id, _ := payload["sub"].(string)
	email, _ := payload["email"].(string)
	if id == "" || email == "" {
		return User{}, time.Time{}, fmt.Errorf("token payload missing sub/email")
	}
	return User{ID: id, Email: email}, exp, nil
}

func decodeJWTPayload(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed token")
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode token payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse token payload: %w", err)
	}
	return payload, nil
}

type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (v *Verifier) verifyWithProvider(ctx context.Context, token string) (User, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url+"/auth/v1/user", nil)
	if err != nil {
		return User{}, time.Time{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("auth provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, time.Time{}, ErrUnauthorized
	}
	var pu providerUser
	if err := json.NewDecoder(resp.Body).Decode(&pu); err != nil {
		return User{}, time.Time{}, fmt.Errorf("auth provider response: %w", err)
	}
	if pu.ID == "" {
		return User{}, time.Time{}, ErrUnauthorized
	}
	return User{ID: pu.ID, Email: pu.Email}, time.Now().Add(5 * time.Minute), nil
}
