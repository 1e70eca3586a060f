package user

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var _ UserRepo = (*MemoryUserRepo)(nil)

// LoginEvent is one successful sign-in kept by MemoryUserRepo.
type LoginEvent struct {
	UserID   int64
	Provider string
	At       time.Time
}

// MemoryUserRepo keeps users in process memory. It backs the server when
// repositories.driver is "memory" and serves as the store in tests.
type MemoryUserRepo struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID int64
	byID   map[int64]types.User
	logins []LoginEvent
}

func NewMemoryUserRepo(logger *slog.Logger) *MemoryUserRepo {
	return &MemoryUserRepo{
		logger: logger,
		nextID: 1,
		byID:   make(map[int64]types.User),
	}
}

func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *types.User
	for _, u := range r.byID {
		if u.Email == email && (found == nil || u.ID < found.ID) {
			u := u
			found = &u
		}
	}
	return found, nil
}

func (r *MemoryUserRepo) FindByProvider(_ context.Context, provider, providerID string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if !u.IsLocal() && u.Provider == provider && u.ProviderID == providerID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id int64) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepo) List(_ context.Context, limit, offset int) ([]types.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	users := make([]types.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	if offset >= len(users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], nil
}

func (r *MemoryUserRepo) Create(_ context.Context, user *types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, types.ErrConflict)
		}
		if !user.IsLocal() && u.Provider == user.Provider && u.ProviderID == user.ProviderID {
			return fmt.Errorf("%s identity %q: %w", user.Provider, user.ProviderID, types.ErrConflict)
		}
	}
	if user.Provider == "" {
		user.Provider = types.ProviderLocal
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.nextID++
	r.byID[user.ID] = *user

	r.logger.Debug("User created", slog.String("method", "Create"), slog.Int64("userID", user.ID))
	return nil
}

func (r *MemoryUserRepo) Update(_ context.Context, user *types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return fmt.Errorf("user %d: %w", user.ID, types.ErrNotFound)
	}
	for id, u := range r.byID {
		if id != user.ID && u.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, types.ErrConflict)
		}
	}
	user.UpdatedAt = time.Now().UTC()
	r.byID[user.ID] = *user
	return nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryUserRepo) RecordLogin(_ context.Context, userID int64, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, LoginEvent{UserID: userID, Provider: provider, At: time.Now().UTC()})
	return nil
}

// Logins returns a copy of the recorded sign-ins.
func (r *MemoryUserRepo) Logins() []LoginEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]LoginEvent(nil), r.logins...)
}
