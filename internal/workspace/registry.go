package workspace

import (
	"sync"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Registry keeps one workspace per user. Workspaces idle for longer than the configured TTL
// are evicted and closed, either by the sweep loop or by the next Get for that user.
type Registry struct {
	cache  *cache.Cache
	deps   Deps
	logger *zap.Logger

	mu sync.Mutex

	// go-cache's own janitor can only be stopped by a finalizer, so the sweep loop lives here
	stop     chan struct{}
	swept    chan struct{}
	stopOnce sync.Once
}

func NewRegistry(cfg config.WorkspaceConfig, deps Deps, logger *zap.Logger) *Registry {
	c := cache.New(cfg.IdleTTL, 0)

	r := &Registry{
		cache:  c,
		deps:   deps,
		logger: logger,
		stop:   make(chan struct{}),
		swept:  make(chan struct{}),
	}
	c.OnEvicted(r.onEvicted)

	if cfg.CleanupInterval > 0 {
		go r.sweepLoop(cfg.CleanupInterval)
	} else {
		close(r.swept)
	}

	return r
}

func (r *Registry) sweepLoop(interval time.Duration) {
	defer close(r.swept)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) onEvicted(userID string, value any) {
	ws, ok := value.(*Workspace)
	if !ok {
		return
	}
	r.logger.Info("closing workspace", zap.String("user_id", userID))
	ws.Close()
}

// Get returns the user's workspace, creating it on first use. Every call extends the idle TTL.
func (r *Registry) Get(userID string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(userID); found {
		ws := x.(*Workspace)
		r.cache.Set(userID, ws, cache.DefaultExpiration)
		return ws, nil
	}

	// An expired workspace stays in the cache until swept; Set would drop it without closing it.
	r.cache.DeleteExpired()

	ws, err := New(userID, r.deps)
	if err != nil {
		return nil, err
	}
	r.cache.Set(userID, ws, cache.DefaultExpiration)
	r.logger.Info("workspace created", zap.String("user_id", userID))

	return ws, nil
}

// Lookup returns the user's workspace without creating one
func (r *Registry) Lookup(userID string) (*Workspace, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*Workspace), true
	}
	return nil, false
}

// Remove closes and forgets the user's workspace
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(userID)
}

// Sweep evicts expired workspaces now instead of waiting for the janitor
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.DeleteExpired()
}

// Close stops the sweep loop and evicts every workspace
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.swept

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.DeleteExpired()
	for userID := range r.cache.Items() {
		r.cache.Delete(userID)
	}
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
