package memory

import (
	"context"
	"sort"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	s *Store
}

// emailTaken reports whether another user already owns email. Caller holds the lock.
func (r *userRepository) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, uuid.Nil) {
		return repository.ErrUserAlreadyExists
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrUserAlreadyExists
	}

	updated := cloneUser(user)
	updated.PasswordHash = existing.PasswordHash
	updated.Roles = existing.Roles
	updated.CreatedAt = existing.CreatedAt
	r.s.users[user.ID] = updated
	return nil
}

func (r *userRepository) SetRoles(_ context.Context, id uuid.UUID, roles []string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Roles = append([]string(nil), roles...)
	u.UpdatedAt = now()
	return cloneUser(u), nil
}
