package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/patrickmn/go-cache"
)

var _ ProfileRepository = &ProfileMemory{}

// ProfileMemory implements ProfileRepository in process memory. Used when mocks are enabled.
type ProfileMemory struct {
	cache *cache.Cache
	mu    sync.Mutex
	now   func() time.Time
}

func NewProfileMemory() *ProfileMemory {
	return &ProfileMemory{
		cache: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (r *ProfileMemory) Get(_ context.Context, userID string) (*entity.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.load(userID)
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	return p, nil
}

func (r *ProfileMemory) Upsert(_ context.Context, profile entity.UserProfile) (*entity.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.loadOrNew(profile.UserID)
	p.CallbackURL = profile.CallbackURL
	p.TelegramChatID = profile.TelegramChatID
	r.store(p)

	return clone(p), nil
}

func (r *ProfileMemory) SetCurrentProject(_ context.Context, userID string, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.loadOrNew(userID)
	p.CurrentProject = nil
	if project != nil {
		pr := *project
		p.CurrentProject = &pr
	}
	r.store(p)

	return nil
}

func (r *ProfileMemory) SetFlag(_ context.Context, userID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.loadOrNew(userID)
	p.Flags[key] = value
	r.store(p)

	return nil
}

func (r *ProfileMemory) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Get(userID); !ok {
		return entity.ErrProfileNotFound
	}
	r.cache.Delete(userID)

	return nil
}

// load returns a copy so callers never share maps with the cache
func (r *ProfileMemory) load(userID string) (*entity.UserProfile, bool) {
	x, ok := r.cache.Get(userID)
	if !ok {
		return nil, false
	}
	return clone(x.(*entity.UserProfile)), true
}

func (r *ProfileMemory) loadOrNew(userID string) *entity.UserProfile {
	if p, ok := r.load(userID); ok {
		return p
	}
	now := r.now()
	return &entity.UserProfile{
		UserID:    userID,
		Flags:     map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *ProfileMemory) store(p *entity.UserProfile) {
	p.UpdatedAt = r.now()
	r.cache.Set(p.UserID, p, cache.NoExpiration)
}

func clone(p *entity.UserProfile) *entity.UserProfile {
	c := *p
	c.Flags = maps.Clone(p.Flags)
	if c.Flags == nil {
		c.Flags = map[string]string{}
	}
	if p.CurrentProject != nil {
		pr := *p.CurrentProject
		c.CurrentProject = &pr
	}
	return &c
}
