package store

import (
	"context"
	"strings"
	"sync"

	"binoqule/internal/ordering"
	"binoqule/internal/team/models"
	"binoqule/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded member store for tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	members map[string]models.Member
}

// NewInMemory creates an empty in-memory member store.
func NewInMemory() *InMemory {
	return &InMemory{members: make(map[string]models.Member)}
}

func (s *InMemory) FetchAll(_ context.Context) ([]ordering.Item[models.Member], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ordering.Item[models.Member], 0, len(s.members))
	for _, m := range s.members {
		items = append(items, toItem(m))
	}
	sortItems(items)
	return items, nil
}

func (s *InMemory) Insert(_ context.Context, item ordering.Item[models.Member]) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := item.Payload
	m.ID = newID(m)
	m.Position = item.Position
	if err := checkWrite(m); err != nil {
		return "", err
	}
	if _, exists := s.members[m.ID]; exists {
		return "", sentinel.ErrConflict
	}
	for _, other := range s.members {
		if strings.EqualFold(other.Email, m.Email) {
			return "", sentinel.ErrConflict
		}
	}
	s.members[m.ID] = m
	return m.ID, nil
}

func (s *InMemory) UpdatePosition(_ context.Context, id string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Position = position
	s.members[id] = m
	return nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

// UpdateProfile writes the editable fields and updated_at. Position is not touched.
func (s *InMemory) UpdateProfile(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members[member.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := checkWrite(*member); err != nil {
		return err
	}
	for id, other := range s.members {
		if id != member.ID && strings.EqualFold(other.Email, member.Email) {
			return sentinel.ErrConflict
		}
	}
	updated := *member
	updated.Position = current.Position
	updated.CreatedAt = current.CreatedAt
	s.members[member.ID] = updated
	return nil
}

func (s *InMemory) Ping(_ context.Context) error {
	return nil
}
