package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/blake2b"
)

// Values are "pending:<fingerprint>" while the first request runs and
// "done:<fingerprint>:<resource id>" afterwards.
const (
	idempotencyKeyPrefix = "idem:payment:"
	pendingPrefix        = "pending:"
	donePrefix           = "done:"
)

// RedisIdempotencyStore keeps Idempotency-Key state in Redis. Raw client keys
// are never stored; each is replaced by a keyed BLAKE2b digest.
type RedisIdempotencyStore struct {
	rdb    redis.Cmdable
	secret []byte
}

var _ portsrepo.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore builds a store hashing keys with secret.
func NewRedisIdempotencyStore(rdb redis.Cmdable, secret string) (*RedisIdempotencyStore, error) {
	if secret == "" {
		return nil, errors.New("idempotency secret must not be empty")
	}
	mac := []byte(secret)
	// blake2b accepts MAC keys of at most 64 bytes.
	if len(mac) > blake2b.Size {
		sum := blake2b.Sum512(mac)
		mac = sum[:]
	}
	return &RedisIdempotencyStore{rdb: rdb, secret: mac}, nil
}

func (s *RedisIdempotencyStore) redisKey(key string) (string, error) {
	h, err := blake2b.New256(s.secret)
	if err != nil {
		return "", err
	}
	h.Write([]byte(key))
	return idempotencyKeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Reserve claims key with SET NX; false means another request holds it.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error) {
	rk, err := s.redisKey(key)
	if err != nil {
		return false, wrapStoreErr("reserve", err)
	}
	ok, err := s.rdb.SetNX(ctx, rk, pendingPrefix+fingerprint, ttl).Result()
	if err != nil {
		return false, wrapStoreErr("reserve", err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, fingerprint, resourceID string, ttl time.Duration) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return wrapStoreErr("complete", err)
	}
	if err := s.rdb.Set(ctx, rk, donePrefix+fingerprint+":"+resourceID, ttl).Err(); err != nil {
		return wrapStoreErr("complete", err)
	}
	return nil
}

// Lookup reports a record as done only once Complete has stored a resource id.
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (*portsrepo.IdempotencyRecord, error) {
	rk, err := s.redisKey(key)
	if err != nil {
		return nil, wrapStoreErr("lookup", err)
	}
	val, err := s.rdb.Get(ctx, rk).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr("lookup", err)
	}
	if fp, ok := strings.CutPrefix(val, pendingPrefix); ok {
		return &portsrepo.IdempotencyRecord{Fingerprint: fp}, nil
	}
	if rest, ok := strings.CutPrefix(val, donePrefix); ok {
		fp, id, _ := strings.Cut(rest, ":")
		return &portsrepo.IdempotencyRecord{Fingerprint: fp, ResourceID: id}, nil
	}
	return nil, wrapStoreErr("lookup", fmt.Errorf("unrecognised value for key %s", rk))
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return wrapStoreErr("release", err)
	}
	if err := s.rdb.Del(ctx, rk).Err(); err != nil {
		return wrapStoreErr("release", err)
	}
	return nil
}

func wrapStoreErr(op string, err error) error {
	return apperrors.NewAppError(503, fmt.Sprintf("idempotency store %s failed", op), err)
}
