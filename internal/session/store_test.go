// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	id := store.Create()
	if id == "" {
		t.Fatal("expected non-empty session id")
	}

	mappings, ok := store.Get(id)
	if !ok {
		t.Fatal("expected fresh session to exist")
	}
	if len(mappings) != 0 {
		t.Errorf("expected empty mappings, got %d", len(mappings))
	}
}

func TestMemoryStoreAddLastWriteWins(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	id := store.Create()
	store.Add(id, "[PERSON_1]", "John Smith")
	store.Add(id, "[PERSON_1]", "Jane Doe")

	mappings, _ := store.Get(id)
	if mappings["[PERSON_1]"] != "Jane Doe" {
		t.Errorf("expected last write to win, got %q", mappings["[PERSON_1]"])
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	id := store.Create()
	store.Add(id, "[PERSON_1]", "John Smith")

	mappings, _ := store.Get(id)
	mappings["[PERSON_1]"] = "mutated"

	again, _ := store.Get(id)
	if again["[PERSON_1]"] != "John Smith" {
		t.Error("Get must return a copy, not the live map")
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	if _, ok := store.Get("no-such-session"); ok {
		t.Error("expected absent for unknown id")
	}
	// Unknown ids are ignored, not an error.
	store.Add("no-such-session", "[PERSON_1]", "x")
}

func TestMemoryStorePruneExpired(t *testing.T) {
	store := NewMemoryStore(time.Second)
	defer store.Close()

	id := store.Create()
	store.PruneExpired(time.Now().Add(2 * time.Second))

	if _, ok := store.Get(id); ok {
		t.Error("expected session to be pruned after TTL")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, have %d sessions", store.Len())
	}
}

func TestMerge(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	dst := store.Create()
	src := store.Create()
	store.Add(src, "[EMAIL_ADDRESS_1]", "john@example.com")
	store.Add(src, "[PERSON_1]", "John Smith")

	Merge(store, dst, src)

	mappings, _ := store.Get(dst)
	if len(mappings) != 2 {
		t.Fatalf("expected 2 merged mappings, got %d", len(mappings))
	}
	if mappings["[EMAIL_ADDRESS_1]"] != "john@example.com" {
		t.Error("merged mapping lost its original")
	}
}

func TestDurableStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewDurableStore(path, time.Hour)
	if err != nil {
		t.Fatalf("open durable store: %v", err)
	}

	id := store.Create()
	store.Add(id, "[US_SSN_1]", "123-45-6789")
	store.Close()

	// Reopen: sessions survive restarts.
	store, err = NewDurableStore(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen durable store: %v", err)
	}
	defer store.Close()

	mappings, ok := store.Get(id)
	if !ok {
		t.Fatal("expected session to survive reopen")
	}
	if mappings["[US_SSN_1]"] != "123-45-6789" {
		t.Errorf("unexpected mapping %q", mappings["[US_SSN_1]"])
	}
}

func TestDurableStorePruneExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewDurableStore(path, time.Second)
	if err != nil {
		t.Fatalf("open durable store: %v", err)
	}
	defer store.Close()

	id := store.Create()
	store.PruneExpired(time.Now().Add(2 * time.Second))

	if _, ok := store.Get(id); ok {
		t.Error("expected expired session to be pruned")
	}
}
