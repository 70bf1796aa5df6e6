package services

import (
	"context"
	"strings"
	"time"

	"fmac-task/internal/apperr"
	"fmac-task/internal/cache"
	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

// DefaultProfileTTL bounds how long a cached profile is trusted.
const DefaultProfileTTL = time.Minute

// UserService reads and writes profiles. Get is served from a TTL cache that
// every write through this service invalidates.
type UserService struct {
	profiles collection
	cache    *cache.TTLCache[string, models.Profile]
}

func NewUserService(store docstore.Store, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &UserService{
		profiles: newCollection(store, schema.Profile),
		cache:    cache.New[string, models.Profile](ttl),
	}
}

func (s *UserService) Get(ctx context.Context, id string) (models.Profile, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	doc, err := s.profiles.get(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	p := decodeProfile(doc)
	s.cache.Set(id, p)
	return p, nil
}

func (s *UserService) List(ctx context.Context) ([]models.Profile, error) {
	docs, err := s.profiles.listOrdered(ctx, "name", docstore.Asc)
	if err != nil {
		return nil, err
	}
	return decodeProfiles(docs), nil
}

// FindByEmail matches case-insensitively. It returns ErrNotFound when no
// profile carries the address.
func (s *UserService) FindByEmail(ctx context.Context, email string) (models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	docs, err := s.profiles.list(ctx, s.profiles.where("email", docstore.OpEq, email))
	if err != nil {
		return models.Profile{}, err
	}
	if len(docs) == 0 {
		return models.Profile{}, apperr.NotFound("users.find_by_email", "profile", email)
	}
	return decodeProfile(docs[0]), nil
}

// Upsert creates or updates the profile under p.ID.
func (s *UserService) Upsert(ctx context.Context, p models.Profile) (models.Profile, error) {
	if p.ID == "" {
		return models.Profile{}, apperr.Invalid("users.upsert", "profile id is required")
	}
	f := map[string]any{
		"name":       p.Name,
		"email":      strings.ToLower(strings.TrimSpace(p.Email)),
		"role":       string(models.NormalizeRole(string(p.Role))),
		"department": nullable(p.Department),
		"avatar":     p.Avatar,
	}
	if p.PasswordHash != "" {
		f["passwordHash"] = p.PasswordHash
	}
	s.cache.Delete(p.ID)
	doc, err := s.profiles.upsert(ctx, p.ID, f)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(doc), nil
}

func (s *UserService) SetRole(ctx context.Context, id string, role models.Role) (models.Profile, error) {
	if !role.Valid() {
		return models.Profile{}, apperr.Invalid("users.set_role", "unknown role "+string(role))
	}
	s.cache.Delete(id)
	doc, err := s.profiles.update(ctx, id, map[string]any{"role": string(role)})
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(doc), nil
}

// Invalidate drops a cached profile after an out-of-band write.
func (s *UserService) Invalidate(id string) {
	s.cache.Delete(id)
}

func decodeProfiles(docs []map[string]any) []models.Profile {
	out := make([]models.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeProfile(d))
	}
	return out
}

func decodeProfile(doc map[string]any) models.Profile {
	return models.Profile{
		ID:           str(doc, "id"),
		Name:         str(doc, "name"),
		Email:        str(doc, "email"),
		Role:         models.NormalizeRole(str(doc, "role")),
		Department:   str(doc, "department"),
		Avatar:       str(doc, "avatar"),
		PasswordHash: str(doc, "passwordHash"),
		CreatedAt:    str(doc, "createdAt"),
		UpdatedAt:    str(doc, "updatedAt"),
	}
}
