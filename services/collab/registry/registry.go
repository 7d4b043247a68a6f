// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry provides the process-wide directory of collaborative
// rooms: creation, lookup, and TTL-based expiry of idle rooms.
//
// The room map lives behind an injected Store rather than package-level
// state, with the in-memory implementation as the single-instance default.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/room"
	"github.com/AleutianAI/MindMesh/services/collab/ttl"
)

// Sentinel errors for room lookup and creation.
var (
	// ErrRoomNotFound is returned when a room id does not resolve.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned by Create when the id is already taken.
	// Idempotent callers should Get first.
	ErrRoomExists = errors.New("room already exists")
)

// Archiver receives the final snapshot of a room destroyed by the expiry
// sweep. The Badger-backed implementation in storage/badger persists it so
// a finished document outlives the in-memory registry; a nil Archiver
// simply discards expired state.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, snap room.Snapshot) error
}

// Registry is the process-wide room directory.
//
// # Thread Safety
//
// Safe for concurrent use; synchronization is delegated to the Store and to
// each Room. The sweeps are designed to run from a single background
// scheduler.
type Registry struct {
	store   Store
	archive Archiver
	clock   ttl.Clock
}

// Option configures a Registry.
type Option func(*Registry)

// WithArchiver sets the destination for expired-room snapshots.
func WithArchiver(a Archiver) Option {
	return func(r *Registry) { r.archive = a }
}

// WithClock overrides the clock, for tests.
func WithClock(c ttl.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// New creates a Registry over the given Store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		clock: ttl.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the room with the given id, or ErrRoomNotFound.
func (g *Registry) Get(id string) (*room.Room, error) {
	r, ok := g.store.Get(id)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Create validates seed and registers a new room at version 0.
//
// Fails with ErrRoomExists if the id is taken, or with the seed's
// validation error if the tree violates a structural invariant. A re-create
// with an expired room's id starts a completely fresh room; no id reuse
// protection is provided.
func (g *Registry) Create(id string, seed mindmap.Tree) (*room.Room, error) {
	if id == "" {
		return nil, fmt.Errorf("room id must not be empty")
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("seed tree rejected: %w", err)
	}
	r := room.New(id, seed, g.clock)
	if !g.store.PutIfAbsent(id, r) {
		return nil, ErrRoomExists
	}
	slog.Info("Room created", "room_id", id, "seed_nodes", len(seed))
	return r, nil
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	return g.store.Len()
}

// RoomIDs returns the ids of every live room, in no particular order.
func (g *Registry) RoomIDs() []string {
	rooms := g.store.All()
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID())
	}
	return ids
}

// SweepExpiredRooms destroys rooms with zero participants and no activity
// for longer than maxIdle, archiving each final snapshot first when an
// Archiver is configured. Returns the ids of destroyed rooms.
//
// Destruction is final: all in-memory state is discarded and the id becomes
// available for a fresh Create.
func (g *Registry) SweepExpiredRooms(ctx context.Context, maxIdle time.Duration) []string {
	cutoff := g.clock.Now().Add(-maxIdle)
	var destroyed []string
	for _, r := range g.store.All() {
		if r.ParticipantCount() > 0 || r.LastActivity().After(cutoff) {
			continue
		}
		// Snapshot before removal; the archive write happens outside any
		// room or store lock.
		snap := r.State()
		g.store.Delete(r.ID())
		destroyed = append(destroyed, r.ID())

		if g.archive != nil {
			if err := g.archive.ArchiveSnapshot(ctx, snap); err != nil {
				slog.Warn("Failed to archive expired room",
					"room_id", r.ID(), "error", err)
			}
		}
		slog.Info("Room expired",
			"room_id", r.ID(),
			"version", snap.Version,
			"idle_for", g.clock.Now().Sub(r.LastActivity()).String(),
		)
	}
	return destroyed
}

// SweepIdleParticipants evicts participants idle for longer than idleAfter
// across every room. Returns the evicted users keyed by room id so the
// transport layer can push presence updates.
func (g *Registry) SweepIdleParticipants(_ context.Context, idleAfter time.Duration) map[string][]room.User {
	evictions := make(map[string][]room.User)
	for _, r := range g.store.All() {
		if evicted := r.EvictIdle(idleAfter); len(evicted) > 0 {
			evictions[r.ID()] = evicted
			slog.Info("Evicted idle participants",
				"room_id", r.ID(), "count", len(evicted))
		}
	}
	return evictions
}
