//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(record Record) error
	GetMessages(room string) ([]Record, error)
	ListRooms() ([]string, error)
	Subscribe(ctx context.Context, room string, deliver func(Record)) (Subscription, error)
}

// Subscription is a live registration against the store. Cancel releases
// it and is safe to call multiple times.
type Subscription interface {
	Cancel()
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// Record is the persisted shape of one chat message. The JSON field names
// are the store contract: {username, message, datetime, uuid, rnd}.
// ID and Room live in the key, not the value.
type Record struct {
	ID       uuid.UUID `json:"-"`
	Room     string    `json:"-"`
	Username string    `json:"username"`
	Body     string    `json:"message"`
	Datetime int64     `json:"datetime"`
	UID      string    `json:"uuid"`
	Rnd      string    `json:"rnd"`
}

// StoreMessage appends a message to a room's log in BadgerDB.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same second.
func (m MessageRepository) StoreMessage(record Record) error {
	if strings.Contains(record.Room, ":") {
		return fmt.Errorf("room name %q must not contain ':'", record.Room)
	}
	key := recordKey(record.Room, record.Datetime, record.ID)
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves the most recent messages of a room in chronological
// order. Thanks to the padded timestamp in the key, a reverse prefix scan
// yields the newest entries first; the result is flipped back before
// returning. Collection stops once the configured limitMessages is reached.
func (m MessageRepository) GetMessages(room string) ([]Record, error) {
	var records []Record
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix(room))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(records) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(value []byte) error {
				record, err := decodeRecord(key, value)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(records), nil
}

// ListRooms scans the message keyspace and returns the distinct room names.
// Order follows the store's key order; callers must treat it as unordered.
func (m MessageRepository) ListRooms() ([]string, error) {
	seen := make(map[string]struct{})
	var rooms []string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			parts := strings.SplitN(key, ":", 3)
			if len(parts) < 3 {
				continue
			}
			room := parts[1]
			if _, ok := seen[room]; !ok {
				seen[room] = struct{}{}
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// Subscribe replays the room's stored backlog (up to limitMessages, in
// store order) through deliver, then streams live records as they are
// written, until the subscription is canceled.
//
// The live feed is brought up before the backlog read; records written
// during the replay are buffered and de-duplicated by key on handoff, so
// each stored record is delivered exactly once and in key order.
func (m MessageRepository) Subscribe(ctx context.Context, room string, deliver func(Record)) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &storeSubscription{cancel: cancel}

	prefix := roomPrefix(room)
	sentinel := "sub:" + uuid.NewString()
	ready := make(chan struct{})
	var readyOnce sync.Once

	type liveRecord struct {
		key    string
		record Record
	}
	var mu sync.Mutex
	var lastKey string
	var pending []liveRecord
	replayDone := false

	go func() {
		err := m.db.Subscribe(subCtx, func(kvs *badger.KVList) error {
			for _, kv := range kvs.Kv {
				key := string(kv.Key)
				if strings.HasPrefix(key, "sub:") {
					readyOnce.Do(func() { close(ready) })
					continue
				}
				if len(kv.Value) == 0 {
					// Deletion event.
					continue
				}
				record, err := decodeRecord(key, kv.Value)
				if err != nil {
					m.log.Error("dropping undecodable message record", "key", key, "error", err)
					continue
				}
				mu.Lock()
				switch {
				case !replayDone:
					pending = append(pending, liveRecord{key: key, record: record})
				case key > lastKey:
					lastKey = key
					deliver(record)
				}
				mu.Unlock()
			}
			return nil
		}, []pb.Match{{Prefix: []byte(prefix)}, {Prefix: []byte(sentinel)}})
		if err != nil && !stderrors.Is(err, context.Canceled) {
			m.log.Error("room subscription ended", "room", room, "error", err)
		}
	}()

	if err := m.awaitSubscriber(subCtx, sentinel, ready); err != nil {
		cancel()
		return nil, err
	}

	backlog, err := m.GetMessages(room)
	if err != nil {
		cancel()
		return nil, err
	}

	mu.Lock()
	for _, record := range backlog {
		lastKey = recordKey(record.Room, record.Datetime, record.ID)
		deliver(record)
	}
	for _, live := range pending {
		if live.key > lastKey {
			lastKey = live.key
			deliver(live.record)
		}
	}
	pending = nil
	replayDone = true
	mu.Unlock()

	return sub, nil
}

// awaitSubscriber blocks until the live feed observes the sentinel key,
// re-writing it until the subscriber registration has caught up.
func (m MessageRepository) awaitSubscriber(ctx context.Context, sentinel string, ready <-chan struct{}) error {
	defer func() {
		_ = m.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(sentinel))
		})
	}()
	for {
		err := m.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(sentinel), []byte{1})
		})
		if err != nil {
			return err
		}
		select {
		case <-ready:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type storeSubscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *storeSubscription) Cancel() {
	s.once.Do(s.cancel)
}

func roomPrefix(room string) string {
	return fmt.Sprintf("msg:%s:", room)
}

func recordKey(room string, datetime int64, id uuid.UUID) string {
	return fmt.Sprintf("msg:%s:%019d:%s", room, datetime, id)
}

func decodeRecord(key string, value []byte) (Record, error) {
	var record Record
	if err := json.Unmarshal(value, &record); err != nil {
		return Record{}, err
	}
	parts := strings.Split(key, ":")
	if len(parts) != 4 {
		return Record{}, fmt.Errorf("malformed message key %q", key)
	}
	parsedID, err := uuid.Parse(parts[3])
	if err != nil {
		return Record{}, err
	}
	record.ID = parsedID
	record.Room = parts[1]
	return record, nil
}
