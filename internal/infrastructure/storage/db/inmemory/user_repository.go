package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type userRepositoryImpl struct {
	locker *sync.RWMutex
	users  map[string]domain.User
}

// NewUserRepositoryImpl returns a new inmemory UserRepository
// implementation.
func NewUserRepositoryImpl() domain.UserRepository {
	return &userRepositoryImpl{
		locker: &sync.RWMutex{},
		users:  make(map[string]domain.User),
	}
}

func (r *userRepositoryImpl) AddUser(_ context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("missing user")
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	r.users[user.ID] = copyUser(*user)
	return nil
}

func (r *userRepositoryImpl) GetUser(_ context.Context, id string) (*domain.User, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := copyUser(user)
	return &u, nil
}

func (r *userRepositoryImpl) GetUserByUsername(
	_ context.Context, username string,
) (*domain.User, error) {
	return r.findOne(func(u domain.User) bool {
		return u.Username == strings.ToLower(username)
	})
}

func (r *userRepositoryImpl) GetUserByEmail(
	_ context.Context, email string,
) (*domain.User, error) {
	return r.findOne(func(u domain.User) bool {
		return u.Email == strings.ToLower(email)
	})
}

func (r *userRepositoryImpl) SearchUsers(
	_ context.Context, query string, limit int,
) ([]domain.User, error) {
	query = strings.ToLower(query)
	users := r.filter(func(u domain.User) bool {
		return strings.Contains(u.Username, query)
	})
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return truncateUsers(users, limit), nil
}

func (r *userRepositoryImpl) GetTopUsers(
	_ context.Context, limit int,
) ([]domain.User, error) {
	users := r.filter(func(domain.User) bool { return true })
	sortByValueTradedDesc(users)
	return truncateUsers(users, limit), nil
}

func (r *userRepositoryImpl) CountUsers(_ context.Context) (int, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	return len(r.users), nil
}

func (r *userRepositoryImpl) UpdateUser(
	_ context.Context, id string,
	updateFn func(u *domain.User) (*domain.User, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	current, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}

	user := copyUser(current)
	updatedUser, err := updateFn(&user)
	if err != nil {
		return err
	}
	if updatedUser.ID != id {
		return fmt.Errorf("user id cannot be updated")
	}

	r.users[id] = copyUser(*updatedUser)
	return nil
}

func (r *userRepositoryImpl) findOne(
	match func(u domain.User) bool,
) (*domain.User, error) {
	users := r.filter(match)
	if len(users) <= 0 {
		return nil, domain.ErrUserNotFound
	}
	return &users[0], nil
}

func (r *userRepositoryImpl) filter(match func(u domain.User) bool) []domain.User {
	r.locker.RLock()
	defer r.locker.RUnlock()

	users := make([]domain.User, 0)
	for _, u := range r.users {
		if match(u) {
			users = append(users, copyUser(u))
		}
	}
	return users
}

func sortByValueTradedDesc(users []domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Stats.TotalValueTraded == users[j].Stats.TotalValueTraded {
			return users[i].Username < users[j].Username
		}
		return users[i].Stats.TotalValueTraded > users[j].Stats.TotalValueTraded
	})
}

func truncateUsers(users []domain.User, limit int) []domain.User {
	if limit > 0 && len(users) > limit {
		return users[:limit]
	}
	return users
}

func copyUser(u domain.User) domain.User {
	inventory := make([]domain.InventoryItem, len(u.Inventory))
	copy(inventory, u.Inventory)
	u.Inventory = inventory
	return u
}
