package memory

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

// Registry stores users by id and keeps emails unique regardless of case.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string // lower-cased email -> user id
	order   []string
}

var _ ports.UserRegistry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

// Add registers a copy of user.
func (r *Registry) Add(user domain.User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" || user.Policy == nil {
		return fmt.Errorf("%w: id, email and user kind are required", domain.ErrInvalidUser)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return fmt.Errorf("%w: user %s", domain.ErrDuplicateKey, user.ID)
	}
	email := strings.ToLower(user.Email)
	if _, taken := r.byEmail[email]; taken {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
	}

	u := user
	r.byID[u.ID] = &u
	r.byEmail[email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *Registry) FindByID(id string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

// FindByNameContains matches name fragments case-insensitively, sorted by name.
func (r *Registry) FindByNameContains(fragment string) []domain.User {
	f := strings.ToLower(fragment)

	r.mu.RLock()
	out := make([]domain.User, 0)
	for _, id := range r.order {
		u := r.byID[id]
		if strings.Contains(strings.ToLower(u.Name), f) {
			out = append(out, *u)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.User) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// All returns users in registration order.
func (r *Registry) All() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Update runs fn against a copy of the user and commits the copy only when
// fn succeeds. The registry lock is held for the duration of fn.
func (r *Registry) Update(id string, fn func(u *domain.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}

	working := *current
	if err := fn(&working); err != nil {
		return err
	}
	// id and email are indexed; only the loan count is expected to change.
	working.ID, working.Email = current.ID, current.Email

	*current = working
	return nil
}
