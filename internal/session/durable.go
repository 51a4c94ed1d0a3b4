// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	metaBucket    = "session_meta"     // session id -> created_at (unix nanos)
	mappingBucket = "session_mappings" // nested: session id -> {placeholder: original}
)

// DurableStore is a Store backed by an embedded bbolt database so that
// sessions survive process restarts. Intended for deployments where a
// redacted file is handed off and un-redacted by a later process.
type DurableStore struct {
	db  *bolt.DB
	ttl time.Duration
}

// NewDurableStore opens (or creates) the bbolt database at path.
func NewDurableStore(path string, ttl time.Duration) (*DurableStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(mappingBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session buckets: %w", err)
	}
	return &DurableStore{db: db, ttl: ttl}, nil
}

// Create implements Store.
func (s *DurableStore) Create() string {
	id := uuid.NewString()
	var created [8]byte
	binary.BigEndian.PutUint64(created[:], uint64(time.Now().UnixNano()))
	s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(metaBucket)).Put([]byte(id), created[:]); err != nil {
			return err
		}
		_, err := tx.Bucket([]byte(mappingBucket)).CreateBucketIfNotExists([]byte(id))
		return err
	})
	return id
}

// Add implements Store.
func (s *DurableStore) Add(sessionID, placeholder, original string) {
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(mappingBucket)).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		return b.Put([]byte(placeholder), []byte(original))
	})
}

// Get implements Store.
func (s *DurableStore) Get(sessionID string) (map[string]string, bool) {
	var out map[string]string
	s.db.View(func(tx *bolt.Tx) error {
		created := tx.Bucket([]byte(metaBucket)).Get([]byte(sessionID))
		if created == nil {
			return nil
		}
		createdAt := time.Unix(0, int64(binary.BigEndian.Uint64(created)))
		if time.Since(createdAt) > s.ttl {
			return nil
		}
		b := tx.Bucket([]byte(mappingBucket)).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		out = make(map[string]string)
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, out != nil
}

// PruneExpired implements Store.
func (s *DurableStore) PruneExpired(now time.Time) {
	s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		mappings := tx.Bucket([]byte(mappingBucket))
		var expired [][]byte
		meta.ForEach(func(k, v []byte) error {
			createdAt := time.Unix(0, int64(binary.BigEndian.Uint64(v)))
			if now.Sub(createdAt) > s.ttl {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		for _, id := range expired {
			meta.Delete(id)
			mappings.DeleteBucket(id)
		}
		return nil
	})
}

// Close implements Store.
func (s *DurableStore) Close() error { return s.db.Close() }
