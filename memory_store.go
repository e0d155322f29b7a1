package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUserStore keeps users in process. It is meant for development
// and tests; records are lost on restart.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

var _ UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    map[uuid.UUID]*User{},
		byEmail: map[string]uuid.UUID{},
		now:     time.Now,
	}
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("create user: nil record")
	}

	record := *user
	prepareUserDefaults(&record, s.now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[record.Email]; exists {
		return nil, ErrDuplicateEmail
	}
	if _, exists := s.byID[record.ID]; exists {
		return nil, ErrDuplicateEmail
	}

	stored := record
	s.byID[record.ID] = &stored
	s.byEmail[record.Email] = record.ID

	return &record, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.copyOf(id)
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(uid)
}

// copyOf must be called with mu held
func (s *MemoryUserStore) copyOf(id uuid.UUID) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}
