// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"sync"

	"github.com/AleutianAI/MindMesh/services/collab/room"
)

// Store abstracts the registry's room directory. The in-memory
// implementation below is the production default for a single instance;
// multi-instance deployments swap in a shared backend (or pin rooms to one
// instance with sticky routing) without touching the Registry.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the room with the given id, if present.
	Get(id string) (*room.Room, bool)

	// PutIfAbsent inserts r under id and reports whether it was inserted.
	// Returns false without modifying the store when id already exists.
	PutIfAbsent(id string, r *room.Room) bool

	// Delete removes the room with the given id, if present.
	Delete(id string)

	// All returns every room currently in the store.
	All() []*room.Room

	// Len returns the number of rooms in the store.
	Len() int
}

// memoryStore is the single-process Store backed by a mutex-guarded map.
type memoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{rooms: make(map[string]*room.Room)}
}

func (s *memoryStore) Get(id string) (*room.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

func (s *memoryStore) PutIfAbsent(id string, r *room.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; exists {
		return false
	}
	s.rooms[id] = r
	return true
}

func (s *memoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

func (s *memoryStore) All() []*room.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
