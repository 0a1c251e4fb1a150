package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "github.com/boltdb/bolt"
)

var bucketSessions = []byte("sessions")

type boltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBoltStore opens (or creates) a bolt file that keeps sessions across restarts.
func NewBoltStore(path string, ttl time.Duration) (Store, error) {
	return openBoltStore(path, ttl, time.Now)
}

func openBoltStore(path string, ttl time.Duration, now func() time.Time) (*boltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("state: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create bucket: %w", err)
	}
	return &boltStore{db: db, ttl: ttl, now: now}, nil
}

func sessionKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func (s *boltStore) Get(_ context.Context, userID int64) (*Session, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSessions).Get(sessionKey(userID)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("state: bolt get: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false, fmt.Errorf("state: decode session %d: %w", userID, err)
	}
	if sess.Data == nil {
		sess.Data = make(map[string]string)
	}
	if sess.Expired(s.ttl, s.now()) {
		if err := s.Delete(context.Background(), userID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return &sess, true, nil
}

func (s *boltStore) Put(_ context.Context, userID int64, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("state: encode session %d: %w", userID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put(sessionKey(userID), data)
	})
	if err != nil {
		return fmt.Errorf("state: bolt put: %w", err)
	}
	return nil
}

func (s *boltStore) Delete(_ context.Context, userID int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete(sessionKey(userID))
	})
	if err != nil {
		return fmt.Errorf("state: bolt delete: %w", err)
	}
	return nil
}

// Sweep deletes expired sessions in one write transaction. Undecodable entries are dropped too.
func (s *boltStore) Sweep(context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var sess Session
			if json.Unmarshal(v, &sess) != nil || sess.Expired(s.ttl, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("state: bolt sweep: %w", err)
	}
	return removed, nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
