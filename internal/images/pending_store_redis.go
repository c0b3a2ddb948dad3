package images

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisUploadPrefix = "bizregistry:upload:"
	redisUploadOpTimeout     = 2 * time.Second
)

// RedisPendingStore keeps selected photos in Redis so an edit session can be
// resumed by another process. Layout under the prefix:
//
//	u:<uploadID>   JSON-encoded PendingUpload
//	s:<sessionID>  list of upload ids, oldest first
//
// Both keys carry the store TTL. Redis errors read as "not stored".
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return NewRedisPendingStoreWithPrefix(client, ttl, defaultRedisUploadPrefix)
}

// NewRedisPendingStoreWithPrefix lets several stores share one Redis.
func NewRedisPendingStoreWithPrefix(client *redis.Client, ttl time.Duration, prefix string) *RedisPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultRedisUploadPrefix
	}
	return &RedisPendingStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisPendingStore) uploadKey(id string) string { return s.prefix + "u:" + id }
func (s *RedisPendingStore) sessionKey(id string) string { return s.prefix + "s:" + id }

// run executes op with a bounded context. It is a no-op without a client.
func (s *RedisPendingStore) run(op func(ctx context.Context)) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisUploadOpTimeout)
	defer cancel()
	op(ctx)
	return true
}

func (s *RedisPendingStore) Put(upload PendingUpload) string {
	upload.ID = uuid.NewString()
	upload.CreatedAt = time.Now()
	upload.ExpiresAt = upload.CreatedAt.Add(s.ttl)

	body, err := json.Marshal(upload)
	if err != nil {
		return ""
	}

	stored := false
	s.run(func(ctx context.Context) {
		sk := s.sessionKey(upload.SessionID)
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.uploadKey(upload.ID), body, s.ttl)
			p.RPush(ctx, sk, upload.ID)
			p.Expire(ctx, sk, s.ttl)
			return nil
		})
		stored = err == nil
	})
	if !stored {
		return ""
	}
	return upload.ID
}

func (s *RedisPendingStore) Get(sessionID, uploadID string) (*PendingUpload, bool) {
	uploadID = strings.TrimSpace(uploadID)
	if uploadID == "" {
		return nil, false
	}

	var found *PendingUpload
	s.run(func(ctx context.Context) {
		body, err := s.client.Get(ctx, s.uploadKey(uploadID)).Bytes()
		if err != nil {
			return
		}
		if u, ok := decodeUpload(uploadID, body); ok && u.SessionID == sessionID {
			found = u
		}
	})
	return found, found != nil
}

// List loads the session's uploads in one MGET and drops ids whose value
// already expired.
func (s *RedisPendingStore) List(sessionID string, slot Slot) []PendingUpload {
	var out []PendingUpload
	s.run(func(ctx context.Context) {
		sk := s.sessionKey(sessionID)
		ids, err := s.client.LRange(ctx, sk, 0, -1).Result()
		if err != nil || len(ids) == 0 {
			return
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = s.uploadKey(id)
		}
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				s.client.LRem(ctx, sk, 0, ids[i])
				continue
			}
			if u, ok := decodeUpload(ids[i], []byte(raw)); ok && u.Slot == slot {
				out = append(out, *u)
			}
		}
	})
	return out
}

func (s *RedisPendingStore) Delete(uploadID string) {
	uploadID = strings.TrimSpace(uploadID)
	if uploadID == "" {
		return
	}
	s.run(func(ctx context.Context) {
		body, err := s.client.GetDel(ctx, s.uploadKey(uploadID)).Bytes()
		if err != nil {
			return
		}
		if u, ok := decodeUpload(uploadID, body); ok {
			s.client.LRem(ctx, s.sessionKey(u.SessionID), 0, uploadID)
		}
	})
}

func (s *RedisPendingStore) Clear(sessionID string) {
	s.run(func(ctx context.Context) {
		sk := s.sessionKey(sessionID)
		ids, err := s.client.LRange(ctx, sk, 0, -1).Result()
		if err != nil {
			return
		}
		keys := append(make([]string, 0, len(ids)+1), sk)
		for _, id := range ids {
			keys = append(keys, s.uploadKey(id))
		}
		s.client.Del(ctx, keys...)
	})
}

func decodeUpload(id string, body []byte) (*PendingUpload, bool) {
	var u PendingUpload
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, false
	}
	if u.ID == "" {
		u.ID = id
	}
	return &u, true
}

var _ PendingStore = (*RedisPendingStore)(nil)
