package shared

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenSecretBytes = 20

// TokenStore issues and resolves opaque bearer tokens backed by Redis.
//
// A token has the form "<id>|<secret>". Only the SHA-256 digest of the secret
// is stored, under the key "<prefix>:<id>".
type TokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// IssuedToken is returned once, at login or registration.
type IssuedToken struct {
	ID        string
	PlainText string
	ExpiresAt time.Time
}

// TokenClaims describes a resolved token.
type TokenClaims struct {
	ID       string
	UserID   int64
	IssuedAt time.Time
}

type tokenPayload struct {
	UserID   int64     `json:"user_id"`
	Digest   string    `json:"digest"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, prefix string, ttl time.Duration) *TokenStore {
	if prefix == "" {
		prefix = "stockroom:token"
	}
	return &TokenStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new token for userID.
func (s *TokenStore) Issue(ctx context.Context, userID int64) (IssuedToken, error) {
	secret, err := randomSecret()
	if err != nil {
		return IssuedToken{}, err
	}
	id := uuid.NewString()
	now := s.now()
	payload, err := json.Marshal(tokenPayload{UserID: userID, Digest: digest(secret), IssuedAt: now})
	if err != nil {
		return IssuedToken{}, err
	}
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return IssuedToken{}, fmt.Errorf("store token: %w", err)
	}
	issued := IssuedToken{ID: id, PlainText: id + "|" + secret}
	if s.ttl > 0 {
		issued.ExpiresAt = now.Add(s.ttl)
	}
	return issued, nil
}

// Resolve validates a plain-text token and returns its claims.
func (s *TokenStore) Resolve(ctx context.Context, plain string) (TokenClaims, error) {
	id, secret, ok := strings.Cut(plain, "|")
	if !ok || id == "" || secret == "" {
		return TokenClaims{}, ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return TokenClaims{}, ErrUnauthenticated
	}
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return TokenClaims{}, ErrUnauthenticated
		}
		return TokenClaims{}, fmt.Errorf("load token: %w", err)
	}
	var stored tokenPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored.Digest), []byte(digest(secret))) != 1 {
		return TokenClaims{}, ErrUnauthenticated
	}
	return TokenClaims{ID: id, UserID: stored.UserID, IssuedAt: stored.IssuedAt}, nil
}

// Revoke deletes a single token by id.
func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *TokenStore) key(id string) string {
	return s.prefix + ":" + id
}

func randomSecret() (string, error) {
	buf := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
