package workspace

import (
	"context"
	"log"
	"time"

	"fmac-task/internal/apperr"
	"fmac-task/internal/cache"
	"fmac-task/internal/models"
)

// DefaultSessionTTL is how long an idle workspace is kept.
const DefaultSessionTTL = 30 * time.Minute

// Sessions keeps exactly one Workspace per actor id, so every hook list has
// a single owner.
type Sessions struct {
	backend *Backend
	cache   *cache.TTLCache[string, *Workspace]
}

func NewSessions(b *Backend, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{backend: b, cache: cache.New[string, *Workspace](ttl)}
}

// Get returns the actor's workspace, creating and loading it on first use.
// A load failure is not returned; it shows up as the hooks' error state.
func (s *Sessions) Get(ctx context.Context, actor models.Actor) (*Workspace, error) {
	if !actor.Authenticated() {
		return nil, apperr.AuthRequired("sessions.get")
	}
	w, err := s.cache.GetOrLoad(actor.ID, func() (*Workspace, error) {
		return New(s.backend), nil
	})
	if err != nil {
		return nil, err
	}
	// the TTL restarts on every use
	s.cache.Set(actor.ID, w)
	if err := w.ensure(ctx, actor); err != nil {
		log.Printf("workspace: load for %s: %v", actor.ID, err)
	}
	return w, nil
}

// Forget drops an actor's workspace.
func (s *Sessions) Forget(actorID string) {
	s.cache.Delete(actorID)
}

func (s *Sessions) Len() int { return s.cache.Len() }

// Sweep drops workspaces idle past the TTL and returns how many went.
func (s *Sessions) Sweep() int {
	return len(s.cache.PurgeExpired())
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("workspace: swept %d idle sessions", n)
			}
		}
	}
}
