package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for local development (debug
// mode without a Mongo URL) and in package tests. It mirrors the update
// semantics the Mongo adapter relies on: insert-on-new-only org creation
// and dotted-path field upserts.
type MemoryStore struct {
	mu      sync.RWMutex
	orgs    map[string]map[string]any
	windows map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:    make(map[string]map[string]any),
		windows: make(map[string]map[string]any),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error  { return nil }
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// --- OrgStore ---

func (s *MemoryStore) EnsureOrg(ctx context.Context, teamID, joinedDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[teamID]; exists {
		return nil
	}
	s.orgs[teamID] = map[string]any{
		"team_id":          teamID,
		"channel_projects": map[string]any{},
		"joined_date":      joinedDate,
	}
	return nil
}

func (s *MemoryStore) GetOrg(ctx context.Context, teamID string) (*Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.orgs[teamID]
	if !exists {
		return nil, ErrNotFound
	}
	return decodeOrg(doc), nil
}

func (s *MemoryStore) SetOrgFields(ctx context.Context, teamID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.orgs[teamID]
	if !exists {
		// matches zero documents, like an update without upsert
		return nil
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) SetOrgField(ctx context.Context, teamID, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.orgs[teamID]
	if !exists {
		doc = map[string]any{"team_id": teamID}
		s.orgs[teamID] = doc
	}
	setPath(doc, path, value)
	return nil
}

func (s *MemoryStore) IncOrgField(ctx context.Context, teamID, path string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.orgs[teamID]
	if !exists {
		doc = map[string]any{"team_id": teamID}
		s.orgs[teamID] = doc
	}
	current, _ := asInt64(getPath(doc, path))
	setPath(doc, path, current+delta)
	return nil
}

func (s *MemoryStore) ListOrgs(ctx context.Context) ([]*Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teamIDs := make([]string, 0, len(s.orgs))
	for id := range s.orgs {
		teamIDs = append(teamIDs, id)
	}
	sort.Strings(teamIDs)

	orgs := make([]*Org, 0, len(teamIDs))
	for _, id := range teamIDs {
		orgs = append(orgs, decodeOrg(s.orgs[id]))
	}
	return orgs, nil
}

// --- RateLimitStore ---

func (s *MemoryStore) GetWindow(ctx context.Context, key string) (*RateLimitWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.windows[key]
	if !exists {
		return nil, ErrNotFound
	}
	return decodeWindow(doc), nil
}

func (s *MemoryStore) CreateWindow(ctx context.Context, key, teamID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.windows[key] = map[string]any{
		"rate_limit_key": key,
		"team_id":        teamID,
		"requests":       []any{now},
		"created_at":     now,
		"updated_at":     now,
	}
	return nil
}

func (s *MemoryStore) SaveWindow(ctx context.Context, key string, requests []time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.windows[key]
	if !exists {
		return nil
	}
	raw := make([]any, len(requests))
	for i, t := range requests {
		raw[i] = t
	}
	doc["requests"] = raw
	doc["updated_at"] = now
	return nil
}

func (s *MemoryStore) DeleteStaleWindows(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, doc := range s.windows {
		if t, ok := asTime(doc["updated_at"]); ok && t.Before(cutoff) {
			delete(s.windows, key)
			deleted++
		}
	}
	return deleted, nil
}

// SeedOrg replaces an organization document wholesale. Tests use it to
// stage legacy document shapes that normal writes can no longer produce.
func (s *MemoryStore) SeedOrg(teamID string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[teamID] = doc
}

// SeedWindow replaces a rate limit document wholesale, for tests staging
// mixed native/string timestamp lists.
func (s *MemoryStore) SeedWindow(key string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[key] = doc
}

// setPath applies a dotted-path write, creating intermediate maps the way
// a $set upsert would. Project names are sanitized before they reach a
// path, so segments never contain dots themselves.
func setPath(doc map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current[seg] = next
		current = next
	}
	current[segments[len(segments)-1]] = value
}

func getPath(doc map[string]any, path string) any {
	segments := strings.Split(path, ".")
	current := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			return nil
		}
		current = next
	}
	return current[segments[len(segments)-1]]
}
