package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the Redis-backed Store. Every token lives in a hash keyed by
// its SHA-256 with a TTL matching its expiry, plus a per-user/kind index set
// so bulk deletes don't need a scan.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(tokenHash string) string {
	return fmt.Sprintf("token:%s", tokenHash)
}

func userTokensKey(userID uuid.UUID, kind Type) string {
	return fmt.Sprintf("user_tokens:%s:%s", userID.String(), kind)
}

func (s *RedisStore) Create(ctx context.Context, t *Token) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	// Redis cannot hold a key with a non-positive TTL. Accept an
	// already-expired token without writing it; it can never verify, so
	// callers see the same behavior as the SQL store.
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	key := tokenKey(t.TokenHash)
	indexKey := userTokensKey(t.UserID, t.Type)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":          t.ID.String(),
		"user_id":     t.UserID.String(),
		"type":        string(t.Type),
		"expires_at":  t.ExpiresAt.Unix(),
		"blacklisted": boolToInt(t.Blacklisted),
		"created_at":  t.CreatedAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, indexKey, t.TokenHash)
	pipe.Expire(ctx, indexKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

func (s *RedisStore) FindOne(ctx context.Context, q Query) (*Token, error) {
	if q.TokenHash == "" {
		return nil, fmt.Errorf("redis token lookups require a token hash")
	}

	data, err := s.client.HGetAll(ctx, tokenKey(q.TokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrTokenNotFound
	}

	t, err := parseTokenHash(q.TokenHash, data)
	if err != nil {
		return nil, err
	}

	if q.Type != "" && t.Type != q.Type {
		return nil, ErrTokenNotFound
	}
	if q.UserID != uuid.Nil && t.UserID != q.UserID {
		return nil, ErrTokenNotFound
	}
	if q.ExcludeBlacklisted && t.Blacklisted {
		return nil, ErrTokenNotFound
	}
	// Redis usually evicts expired keys itself; the explicit check covers the
	// window between expiry and eviction.
	if time.Now().After(t.ExpiresAt) {
		return nil, ErrTokenNotFound
	}

	return t, nil
}

func (s *RedisStore) Delete(ctx context.Context, t *Token) error {
	key := tokenKey(t.TokenHash)

	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if deleted == 0 {
		return ErrTokenNotFound
	}

	if err := s.client.SRem(ctx, userTokensKey(t.UserID, t.Type), t.TokenHash).Err(); err != nil {
		return fmt.Errorf("failed to remove token from index: %w", err)
	}

	return nil
}

func (s *RedisStore) DeleteMany(ctx context.Context, q Query) (int64, error) {
	if q.TokenHash != "" {
		t, err := s.FindOne(ctx, q)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				return 0, nil
			}
			return 0, err
		}
		if err := s.Delete(ctx, t); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if q.UserID == uuid.Nil || q.Type == "" {
		return 0, fmt.Errorf("redis bulk deletes require a user ID and token type")
	}

	indexKey := userTokensKey(q.UserID, q.Type)

	hashes, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list user tokens: %w", err)
	}
	if len(hashes) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, hash := range hashes {
		keys = append(keys, tokenKey(hash))
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	if err := s.client.Del(ctx, indexKey).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete token index: %w", err)
	}

	return deleted, nil
}

func parseTokenHash(tokenHash string, data map[string]string) (*Token, error) {
	id, err := uuid.Parse(data["id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse token id: %w", err)
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse token user id: %w", err)
	}

	expiresAtUnix, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token expiry: %w", err)
	}

	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	return &Token{
		ID:          id,
		TokenHash:   tokenHash,
		Type:        Type(data["type"]),
		UserID:      userID,
		ExpiresAt:   time.Unix(expiresAtUnix, 0),
		Blacklisted: data["blacklisted"] == "1",
		CreatedAt:   time.Unix(createdAtUnix, 0),
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
