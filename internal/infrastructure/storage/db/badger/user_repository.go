package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type userRepositoryImpl struct {
	store *badgerhold.Store
	lock  *sync.Mutex
}

// NewUserRepositoryImpl returns a new badger UserRepository implementation.
func NewUserRepositoryImpl(store *badgerhold.Store) domain.UserRepository {
	return &userRepositoryImpl{store, &sync.Mutex{}}
}

func (r *userRepositoryImpl) AddUser(_ context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("missing user")
	}

	// Uniqueness of username and email is checked and enforced under the
	// same lock used by updates.
	r.lock.Lock()
	defer r.lock.Unlock()

	query := badgerhold.Where("Username").Eq(user.Username).
		Or(badgerhold.Where("Email").Eq(user.Email))
	users, err := r.findUsers(query)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return domain.ErrUserAlreadyExists
	}

	if err := r.store.Insert(user.ID, *user); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepositoryImpl) GetUser(_ context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.store.Get(id, &user); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	normalizeUser(&user)
	return &user, nil
}

func (r *userRepositoryImpl) GetUserByUsername(
	_ context.Context, username string,
) (*domain.User, error) {
	query := badgerhold.Where("Username").Eq(strings.ToLower(username))
	return r.findOne(query)
}

func (r *userRepositoryImpl) GetUserByEmail(
	_ context.Context, email string,
) (*domain.User, error) {
	query := badgerhold.Where("Email").Eq(strings.ToLower(email))
	return r.findOne(query)
}

func (r *userRepositoryImpl) SearchUsers(
	_ context.Context, query string, limit int,
) ([]domain.User, error) {
	query = strings.ToLower(query)
	q := badgerhold.Where("Username").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
		username, ok := ra.Field().(string)
		return ok && strings.Contains(username, query), nil
	})
	users, err := r.findUsers(q)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return truncateUsers(users, limit), nil
}

func (r *userRepositoryImpl) GetTopUsers(
	_ context.Context, limit int,
) ([]domain.User, error) {
	users, err := r.findUsers(nil)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Stats.TotalValueTraded == users[j].Stats.TotalValueTraded {
			return users[i].Username < users[j].Username
		}
		return users[i].Stats.TotalValueTraded > users[j].Stats.TotalValueTraded
	})
	return truncateUsers(users, limit), nil
}

func (r *userRepositoryImpl) CountUsers(_ context.Context) (int, error) {
	users, err := r.findUsers(nil)
	if err != nil {
		return -1, err
	}
	return len(users), nil
}

func (r *userRepositoryImpl) UpdateUser(
	_ context.Context, id string,
	updateFn func(u *domain.User) (*domain.User, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	var err error
	for i := 0; i < maxUpdateRetries; i++ {
		err = r.store.Badger().Update(func(tx *badger.Txn) error {
			return r.updateUser(tx, id, updateFn)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (r *userRepositoryImpl) updateUser(
	tx *badger.Txn, id string,
	updateFn func(u *domain.User) (*domain.User, error),
) error {
	var user domain.User
	if err := r.store.TxGet(tx, id, &user); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	normalizeUser(&user)

	updatedUser, err := updateFn(&user)
	if err != nil {
		return err
	}
	if updatedUser.ID != id {
		return fmt.Errorf("user id cannot be updated")
	}

	return r.store.TxUpdate(tx, id, *updatedUser)
}

func (r *userRepositoryImpl) findOne(query *badgerhold.Query) (*domain.User, error) {
	users, err := r.findUsers(query)
	if err != nil {
		return nil, err
	}
	if len(users) <= 0 {
		return nil, domain.ErrUserNotFound
	}
	return &users[0], nil
}

func (r *userRepositoryImpl) findUsers(query *badgerhold.Query) ([]domain.User, error) {
	var users []domain.User
	if err := r.store.Find(&users, query); err != nil {
		return nil, err
	}
	for i := range users {
		normalizeUser(&users[i])
	}
	if users == nil {
		users = make([]domain.User, 0)
	}
	return users, nil
}

func normalizeUser(u *domain.User) {
	if u.Inventory == nil {
		u.Inventory = make([]domain.InventoryItem, 0)
	}
}

func truncateUsers(users []domain.User, limit int) []domain.User {
	if limit > 0 && len(users) > limit {
		return users[:limit]
	}
	return users
}
