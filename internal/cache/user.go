package cache

import (
	"context"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

const (
	// authKeyPrefix is the Redis key prefix for cached auth contexts.
	authKeyPrefix = "auth:user:"
	// AuthContextTTL bounds how long a stale auth context (role, active
	// flag) can be served after a profile change.
	AuthContextTTL = 5 * time.Minute
)

// GetAuthContext retrieves a cached auth context for a user ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetAuthContext(ctx context.Context, userID string) (*model.AuthContext, error) {
	var authCtx model.AuthContext
	if err := c.GetJSON(ctx, authKeyPrefix+userID, &authCtx); err != nil {
		return nil, err
	}
	return &authCtx, nil
}

// SetAuthContext caches an auth context after a successful DB lookup.
func (c *Cache) SetAuthContext(ctx context.Context, authCtx *model.AuthContext) error {
	return c.SetJSON(ctx, authKeyPrefix+authCtx.UserID, authCtx, AuthContextTTL)
}

// DeleteAuthContext removes a cached auth context.
// Called on profile updates so role and active-flag changes take effect
// within one request rather than one TTL.
func (c *Cache) DeleteAuthContext(ctx context.Context, userID string) error {
	_, err := c.Delete(ctx, authKeyPrefix+userID)
	return err
}
