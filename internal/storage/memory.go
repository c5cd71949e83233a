package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/domain/user"
)

// Memory is a thread-safe in-memory record store implementing the Store
// interface. It backs tests and zero-configuration runs and deliberately
// keeps the implementation simple.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]user.User
	prompts map[string]prompt.Prompt
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]user.User),
		prompts: make(map[string]prompt.Prompt),
	}
}

// UserStore implementation ----------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	} else if _, exists := m.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return user.User{}, fmt.Errorf("username %s already taken", u.Username)
		}
	}
	if u.Points < 0 {
		u.Points = 0
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	original, ok := m.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	// Balance changes only through the points operations.
	u.Points = original.Points

	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

func (m *Memory) GetUserByWeChatOpenID(_ context.Context, openID string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.WeChatOpenID != "" && u.WeChatOpenID == openID {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("wechat user %s: %w", openID, ErrNotFound)
}

func (m *Memory) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) UpdatePoints(_ context.Context, id string, points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("points must not be negative: %d", points)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.Points = points
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u.Points, nil
}

func (m *Memory) AddPoints(_ context.Context, id string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.Points += delta
	if u.Points < 0 {
		u.Points = 0
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u.Points, nil
}

func (m *Memory) SubtractPoints(_ context.Context, id string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.Points -= delta
	if u.Points < 0 {
		u.Points = 0
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u.Points, nil
}

// PromptStore implementation --------------------------------------------------

func (m *Memory) CreatePrompt(_ context.Context, p prompt.Prompt) (prompt.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if _, exists := m.prompts[p.ID]; exists {
		return prompt.Prompt{}, fmt.Errorf("prompt %s already exists", p.ID)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Tags = copyTags(p.Tags)

	m.prompts[p.ID] = p
	return p, nil
}

func (m *Memory) UpdatePrompt(_ context.Context, p prompt.Prompt) (prompt.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	original, ok := m.prompts[p.ID]
	if !ok {
		return prompt.Prompt{}, fmt.Errorf("prompt %s: %w", p.ID, ErrNotFound)
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Tags = copyTags(p.Tags)

	m.prompts[p.ID] = p
	return p, nil
}

func (m *Memory) GetPrompt(_ context.Context, id string) (prompt.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.prompts[id]
	if !ok {
		return prompt.Prompt{}, fmt.Errorf("prompt %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *Memory) ListPrompts(_ context.Context) ([]prompt.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]prompt.Prompt, 0, len(m.prompts))
	for _, p := range m.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeletePrompt(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.prompts[id]; !ok {
		return fmt.Errorf("prompt %s: %w", id, ErrNotFound)
	}
	delete(m.prompts, id)
	return nil
}

func copyTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
