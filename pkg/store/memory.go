package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It backs tests and the
// dry-run CLI mode.
type MemoryStore struct {
	mu sync.RWMutex

	nextID      int64
	groups      map[int64]*RuleGroup
	collections map[int64]*Collection
	media       map[int64]*CollectionMedia
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:      make(map[int64]*RuleGroup),
		collections: make(map[int64]*Collection),
		media:       make(map[int64]*CollectionMedia),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateRuleGroup stores a copy of g and populates ids.
func (s *MemoryStore) CreateRuleGroup(ctx context.Context, g *RuleGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return NewStorageError("memory", "create_rule_group", errDuplicateName(g.Name))
		}
	}
	g.ID = s.id()
	g.CreatedAt = time.Now().UTC()
	s.assignRuleIDs(g)
	s.groups[g.ID] = copyGroup(g)
	return nil
}

// UpdateRuleGroup replaces a stored rule group.
func (s *MemoryStore) UpdateRuleGroup(ctx context.Context, g *RuleGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.groups[g.ID]
	if !ok {
		return ErrNotFound
	}
	g.CreatedAt = existing.CreatedAt
	s.assignRuleIDs(g)
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *MemoryStore) assignRuleIDs(g *RuleGroup) {
	for i := range g.Rules {
		g.Rules[i].ID = s.id()
		g.Rules[i].GroupID = g.ID
	}
}

// GetRuleGroup returns a copy of a rule group.
func (s *MemoryStore) GetRuleGroup(ctx context.Context, id int64) (*RuleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGroup(g), nil
}

// GetRuleGroupByName returns a copy of the named rule group.
func (s *MemoryStore) GetRuleGroupByName(ctx context.Context, name string) (*RuleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Name == name {
			return copyGroup(g), nil
		}
	}
	return nil, ErrNotFound
}

// ListRuleGroups returns copies of all rule groups ordered by id.
func (s *MemoryStore) ListRuleGroups(ctx context.Context, activeOnly bool) ([]RuleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RuleGroup
	for _, g := range s.groups {
		if activeOnly && !g.IsActive {
			continue
		}
		out = append(out, *copyGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteRuleGroup removes a rule group.
func (s *MemoryStore) DeleteRuleGroup(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

// CreateCollection stores a copy of c and populates its id.
func (s *MemoryStore) CreateCollection(ctx context.Context, c *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ManagerAction == "" {
		c.ManagerAction = ManagerDelete
	}
	c.ID = s.id()
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.collections[c.ID] = &cp
	return nil
}

// UpdateCollection replaces a stored collection.
func (s *MemoryStore) UpdateCollection(ctx context.Context, c *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[c.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *c
	cp.CreatedAt = existing.CreatedAt
	s.collections[c.ID] = &cp
	return nil
}

// GetCollection returns a copy of a collection.
func (s *MemoryStore) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCollections returns copies of all collections ordered by id.
func (s *MemoryStore) ListCollections(ctx context.Context, activeOnly bool) ([]Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Collection
	for _, c := range s.collections {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteCollection removes a collection and its media rows.
func (s *MemoryStore) DeleteCollection(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[id]; !ok {
		return ErrNotFound
	}
	delete(s.collections, id)
	for mid, m := range s.media {
		if m.CollectionID == id {
			delete(s.media, mid)
		}
	}
	return nil
}

// AddCollectionMedia inserts m unless the collection already tracks it.
func (s *MemoryStore) AddCollectionMedia(ctx context.Context, m *CollectionMedia) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[m.CollectionID]; !ok {
		return false, NewStorageError("memory", "add_collection_media", ErrNotFound)
	}
	for _, existing := range s.media {
		if existing.CollectionID == m.CollectionID && existing.MediaServerID == m.MediaServerID {
			*m = *existing
			return false, nil
		}
	}
	if m.AddDate.IsZero() {
		m.AddDate = time.Now().UTC()
	}
	m.ID = s.id()
	cp := *m
	s.media[m.ID] = &cp
	return true, nil
}

// GetCollectionMedia returns the row tracking mediaServerID in a collection.
func (s *MemoryStore) GetCollectionMedia(ctx context.Context, collectionID int64, mediaServerID string) (*CollectionMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.media {
		if m.CollectionID == collectionID && m.MediaServerID == mediaServerID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListCollectionMedia returns a collection's rows ordered by add date.
func (s *MemoryStore) ListCollectionMedia(ctx context.Context, collectionID int64) ([]CollectionMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CollectionMedia
	for _, m := range s.media {
		if m.CollectionID == collectionID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddDate.Equal(out[j].AddDate) {
			return out[i].AddDate.Before(out[j].AddDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteCollectionMedia removes one tracked item.
func (s *MemoryStore) DeleteCollectionMedia(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[id]; !ok {
		return ErrNotFound
	}
	delete(s.media, id)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func copyGroup(g *RuleGroup) *RuleGroup {
	cp := *g
	cp.Rules = append([]Rule(nil), g.Rules...)
	return &cp
}

type errDuplicateName string

func (e errDuplicateName) Error() string {
	return "rule group " + string(e) + " already exists"
}
