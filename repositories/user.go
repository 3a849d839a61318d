//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/errors"
)

const userPrefix = "user:"

type IUserRepository interface {
	Save(user domain.User) error
	Get(id string) (domain.User, error)
	List() ([]domain.User, error)
	BurnEmbers(id string, cost int) (int, error)
	CreditEmbers(id string, amount int) (int, error)
	AddFocusMinutes(id string, minutes int) error
	SetVibe(id string, vibe string, embedding []float64) error
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func (r UserRepository) Save(user domain.User) error {
	bytes, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), bytes)
	})
}

func (r UserRepository) Get(id string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, err
}

// List retrieves every user record with a prefix scan.
func (r UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// BurnEmbers decrements the balance inside a single transaction and
// returns the new balance. Overdrafts are rejected, not clamped: the
// caller decides how to refund a failed purchase.
func (r UserRepository) BurnEmbers(id string, cost int) (int, error) {
	var newBalance int
	err := r.db.Update(func(txn *badger.Txn) error {
		user, err := r.getInTxn(txn, id)
		if err != nil {
			return err
		}
		if user.EmberBalance < cost {
			return errors.ErrInsufficientFunds
		}
		user.EmberBalance -= cost
		newBalance = user.EmberBalance

		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), bytes)
	})
	return newBalance, err
}

// CreditEmbers adds embers back, used to refund a purchase whose
// downstream step failed after the burn.
func (r UserRepository) CreditEmbers(id string, amount int) (int, error) {
	var newBalance int
	err := r.db.Update(func(txn *badger.Txn) error {
		user, err := r.getInTxn(txn, id)
		if err != nil {
			return err
		}
		user.EmberBalance += amount
		newBalance = user.EmberBalance

		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), bytes)
	})
	return newBalance, err
}

func (r UserRepository) AddFocusMinutes(id string, minutes int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		user, err := r.getInTxn(txn, id)
		if err != nil {
			return err
		}
		user.TotalFocusMin += minutes

		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), bytes)
	})
}

func (r UserRepository) SetVibe(id string, vibe string, embedding []float64) error {
	return r.db.Update(func(txn *badger.Txn) error {
		user, err := r.getInTxn(txn, id)
		if err != nil {
			return err
		}
		user.CurrentVibe = vibe
		if embedding != nil {
			user.VibeEmbedding = embedding
		}

		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), bytes)
	})
}

func (r UserRepository) getInTxn(txn *badger.Txn, id string) (domain.User, error) {
	var user domain.User
	item, err := txn.Get(userKey(id))
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("user lookup: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &user)
	})
	return user, err
}
