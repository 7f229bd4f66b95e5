// Package directory resolves user ids to display identities.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/store"
)

// Identity is what other users are shown about someone.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle,omitempty"`
	// Known is false when the user never registered a profile.
	Known bool `json:"known"`
}

// UserStore is the profile lookup the directory reads from.
type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

// Directory caches identities for ttl.
type Directory struct {
	store  UserStore
	cache  *cache.Cache
	logger zerolog.Logger
}

// New creates a directory. A non-positive ttl disables expiry.
func New(users UserStore, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Directory{
		store:  users,
		cache:  cache.New(ttl, 2*time.Minute),
		logger: log.WithComponent("directory"),
	}
}

// Resolve never fails: unknown users and lookup errors fall back to the raw id.
func (d *Directory) Resolve(ctx context.Context, userID string) Identity {
	if v, ok := d.cache.Get(userID); ok {
		return v.(Identity)
	}

	u, err := d.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		id := Identity{UserID: u.ID, DisplayName: u.DisplayName, Handle: u.Handle, Known: true}
		if id.DisplayName == "" {
			id.DisplayName = u.ID
		}
		d.cache.SetDefault(userID, id)
		return id
	case errors.Is(err, store.ErrNotFound):
		id := Identity{UserID: userID, DisplayName: userID}
		d.cache.SetDefault(userID, id)
		return id
	default:
		d.logger.Warn().Err(err).Str(log.FieldUserID, userID).Msg("identity lookup failed")
		return Identity{UserID: userID, DisplayName: userID}
	}
}

// Invalidate drops a cached identity after its profile changed.
func (d *Directory) Invalidate(userID string) {
	d.cache.Delete(userID)
}
