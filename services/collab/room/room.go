// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package room owns the authoritative state of one collaborative room: its
// mind-map tree, a monotonic document version, and the participant map.
//
// # Serialization Model
//
// Every mutation entry point takes the room's mutex, so mutations against
// the same room apply in dispatch order and never interleave. The tree is
// swapped wholesale after an accepted mutation; a rejected mutation leaves
// tree and version byte-for-byte unchanged. Presence changes (join, leave,
// eviction) never touch the document version.
//
// # Ownership Model
//
// A Room exclusively owns its Tree and participant map. External code must
// go through Room methods; snapshots returned by State are independent
// copies and safe to hand to any goroutine.
package room

import (
	"sync"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/ttl"
)

// participantPalette is cycled through when a joining user has no color of
// their own. Matches the UI's presence indicator set.
var participantPalette = []string{
	"#e5484d", "#f76b15", "#ffc53d", "#46a758",
	"#00a2c7", "#3e63dd", "#8e4ec6", "#e93d82",
}

// User is a participant currently present in a room.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// Snapshot is a read-only copy of a room's state, safe to serialize and
// hand to a freshly joined client for synchronization.
type Snapshot struct {
	RoomID       string       `json:"roomId"`
	Tree         mindmap.Tree `json:"mindmap"`
	Version      int64        `json:"version"`
	Participants []User       `json:"participants"`
}

// Room is the authoritative state for one collaborative document.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. The single mutex is the
// room's serialization boundary; no method performs blocking I/O while
// holding it.
type Room struct {
	mu           sync.Mutex
	id           string
	tree         mindmap.Tree
	version      int64
	participants map[string]User
	joined       int // total joins, drives palette assignment
	createdAt    time.Time
	lastActivity time.Time
	clock        ttl.Clock
}

// New creates an Active room around the given seed tree at version 0.
//
// The seed is cloned, so the caller's copy stays independent. clock may be
// nil, in which case the system clock is used.
func New(id string, seed mindmap.Tree, clock ttl.Clock) *Room {
	if clock == nil {
		clock = ttl.RealClock{}
	}
	now := clock.Now()
	return &Room{
		id:           id,
		tree:         seed.Clone(),
		participants: make(map[string]User),
		createdAt:    now,
		lastActivity: now,
		clock:        clock,
	}
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

// State returns an independent snapshot of the room. Side-effect free: it
// does not refresh presence or activity.
func (r *Room) State() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Version returns the current document version.
func (r *Room) Version() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// CreatedAt returns the room creation time.
func (r *Room) CreatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createdAt
}

// LastActivity returns the time of the most recent join or accepted
// mutation. The registry's expiry sweep keys off this.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// ParticipantCount returns the number of present participants.
func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Join inserts or refreshes the participant and returns their resolved
// entry plus a full snapshot for the client to synchronize against.
// Joining never bumps the document version.
func (r *Room) Join(u User) (User, Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if existing, ok := r.participants[u.ID]; ok {
		// Rejoin: keep the assigned color unless the client brought one.
		if u.Color == "" {
			u.Color = existing.Color
		}
	} else {
		if u.Color == "" {
			u.Color = participantPalette[r.joined%len(participantPalette)]
		}
		r.joined++
	}
	u.LastSeenAt = now
	r.participants[u.ID] = u
	r.lastActivity = now

	return u, r.snapshotLocked()
}

// Leave removes the participant. The tree and version are unaffected.
// Returns false if the user was not present.
func (r *Room) Leave(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[userID]; !ok {
		return false
	}
	delete(r.participants, userID)
	return true
}

// ApplyAdd runs the add mutation attributed to userID.
//
// Returns the room version after the call and, on structural rejection, the
// sentinel error from the mindmap package. The version only moves when the
// error is nil.
func (r *Room) ApplyAdd(userID string, node mindmap.Node, parentID string) (int64, error) {
	return r.apply(userID, func(t mindmap.Tree) (mindmap.Tree, error) {
		return mindmap.Add(t, node, parentID)
	})
}

// ApplyUpdate runs the field-merge mutation attributed to userID.
func (r *Room) ApplyUpdate(userID, nodeID string, changes mindmap.NodeChanges) (int64, error) {
	return r.apply(userID, func(t mindmap.Tree) (mindmap.Tree, error) {
		return mindmap.Update(t, nodeID, changes)
	})
}

// ApplyDelete runs the cascading delete attributed to userID.
func (r *Room) ApplyDelete(userID, nodeID string) (int64, error) {
	return r.apply(userID, func(t mindmap.Tree) (mindmap.Tree, error) {
		return mindmap.Delete(t, nodeID)
	})
}

// ApplyMove runs the re-parent mutation attributed to userID.
func (r *Room) ApplyMove(userID, nodeID, newParentID string) (int64, error) {
	return r.apply(userID, func(t mindmap.Tree) (mindmap.Tree, error) {
		return mindmap.Move(t, nodeID, newParentID)
	})
}

// apply serializes one mutation: refresh the actor's presence, run the pure
// mutator against the current tree, and on success swap the tree in and
// bump the version by exactly one.
//
// userID is attribution only; authorization is an upstream concern.
func (r *Room) apply(userID string, mutate func(mindmap.Tree) (mindmap.Tree, error)) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked(userID)
	next, err := mutate(r.tree)
	if err != nil {
		return r.version, err
	}
	r.tree = next
	r.version++
	r.lastActivity = r.clock.Now()
	return r.version, nil
}

// touchLocked refreshes the acting participant's LastSeenAt, if present.
// Unknown actors are tolerated: a mutation from a non-joined user is still
// applied (identity gating is external), it just leaves no presence trace.
func (r *Room) touchLocked(userID string) {
	if u, ok := r.participants[userID]; ok {
		u.LastSeenAt = r.clock.Now()
		r.participants[userID] = u
	}
}

func (r *Room) snapshotLocked() Snapshot {
	users := make([]User, 0, len(r.participants))
	for _, u := range r.participants {
		users = append(users, u)
	}
	return Snapshot{
		RoomID:       r.id,
		Tree:         r.tree.Clone(),
		Version:      r.version,
		Participants: users,
	}
}
