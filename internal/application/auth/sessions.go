package auth

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis layout: session:<sid> holds the session JSON, user_sessions:<user_id> the set of a user's sids.
const (
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
)

// TrackSession records sid under the user's session set so it can be revoked later.
func TrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SAdd(ctx, UserSessionsPrefix+userID, sid).Err()
}

// ForgetSession drops one session (logout).
func ForgetSession(ctx context.Context, rdb *redis.Client, userID, sid string) {
	if userID != "" {
		rdb.SRem(ctx, UserSessionsPrefix+userID, sid)
	}
	rdb.Del(ctx, SessionRedisPrefix+sid)
}

// DestroyUserSessions removes every session of a user and the user_sessions:<user_id> set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
