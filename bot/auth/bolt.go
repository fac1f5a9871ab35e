package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

var bucketUsers = []byte("users")

// BoltStore keeps users as JSON values in a bbolt bucket keyed by user id.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore prepares the users bucket in db. The caller owns db.
func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUsers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create users bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func userKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func (s *BoltStore) get(tx *bolt.Tx, id int64) (Account, bool, error) {
	v := tx.Bucket(bucketUsers).Get(userKey(id))
	if v == nil {
		return Account{}, false, nil
	}
	var u Account
	if err := json.Unmarshal(v, &u); err != nil {
		return Account{}, false, fmt.Errorf("auth: decode user %d: %w", id, err)
	}
	return u, true, nil
}

func (s *BoltStore) Level(_ context.Context, userID int64) (Level, error) {
	var lvl Level
	err := s.db.View(func(tx *bolt.Tx) error {
		u, _, err := s.get(tx, userID)
		lvl = u.Level
		return err
	})
	return lvl, err
}

func (s *BoltStore) SetLevel(_ context.Context, userID int64, name string, level Level) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		u, _, err := s.get(tx, userID)
		if err != nil {
			return err
		}
		u.ID = userID
		if name != "" {
			u.Name = name
		}
		u.Level = level
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsers).Put(userKey(userID), data)
	})
}

func (s *BoltStore) Users(_ context.Context, minLevel Level) ([]Account, error) {
	var out []Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var u Account
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			if u.Level >= minLevel {
				out = append(out, u)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *BoltStore) Remove(_ context.Context, userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).Delete(userKey(userID))
	})
}
