//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IUserRepository interface {
	Connect(uid, username string) (string, func(), error)
	UpdateUsername(uid, username string) error
	IsNameTaken(username, excludeUID string) (bool, error)
	ListPresent() ([]string, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// Presence is the persisted shape of one identity: the chosen display name
// and a reference count of active connections. An identity is "online"
// while Counter > 0.
type Presence struct {
	Username string `json:"username"`
	Counter  int    `json:"counter"`
}

// Connect registers one live connection for uid. The first connection
// creates the presence record with the given username; later connections
// keep the stored nickname and increment the counter. It returns the
// effective display name plus a disconnect hook that decrements the
// counter. The hook is idempotent and must be invoked at teardown; the
// caller wires it to its own shutdown path so it also fires on ungraceful
// disconnects.
func (u *UserRepository) Connect(uid, username string) (string, func(), error) {
	effective := username
	err := u.db.Update(func(txn *badger.Txn) error {
		presence, err := readPresence(txn, uid)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			presence = Presence{Username: username, Counter: 1}
		case err != nil:
			return err
		default:
			presence.Counter++
			effective = presence.Username
		}
		return writePresence(txn, uid, presence)
	})
	if err != nil {
		return "", nil, err
	}

	var once sync.Once
	disconnect := func() {
		once.Do(func() {
			_ = u.db.Update(func(txn *badger.Txn) error {
				presence, err := readPresence(txn, uid)
				if err != nil {
					return err
				}
				if presence.Counter > 0 {
					presence.Counter--
				}
				return writePresence(txn, uid, presence)
			})
		})
	}
	return effective, disconnect, nil
}

// UpdateUsername persists a new nickname for uid, keeping the counter.
func (u *UserRepository) UpdateUsername(uid, username string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		presence, err := readPresence(txn, uid)
		if err != nil {
			return err
		}
		presence.Username = username
		return writePresence(txn, uid, presence)
	})
}

// IsNameTaken reports whether another identity (different uid) currently
// holds username. The check is best-effort: it is not atomic against a
// concurrent rename.
func (u *UserRepository) IsNameTaken(username, excludeUID string) (bool, error) {
	taken := false
	err := u.iterate(func(uid string, presence Presence) {
		if presence.Username == username && uid != excludeUID {
			taken = true
		}
	})
	return taken, err
}

// ListPresent returns the display names of every identity whose presence
// counter is positive. Order is unspecified.
func (u *UserRepository) ListPresent() ([]string, error) {
	var all []Presence
	err := u.iterate(func(_ string, presence Presence) {
		all = append(all, presence)
	})
	if err != nil {
		return nil, err
	}
	online := lo.Filter(all, func(p Presence, _ int) bool {
		return p.Counter > 0
	})
	return lo.Map(online, func(p Presence, _ int) string {
		return p.Username
	}), nil
}

func (u *UserRepository) iterate(visit func(uid string, presence Presence)) error {
	return u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			uid := string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				var presence Presence
				if err := json.Unmarshal(value, &presence); err != nil {
					return err
				}
				visit(uid, presence)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func readPresence(txn *badger.Txn, uid string) (Presence, error) {
	item, err := txn.Get([]byte("user:" + uid))
	if err != nil {
		return Presence{}, err
	}
	var presence Presence
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &presence)
	})
	return presence, err
}

func writePresence(txn *badger.Txn, uid string, presence Presence) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return txn.Set([]byte("user:"+uid), data)
}
