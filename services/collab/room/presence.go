// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package room

import "time"

// Participants returns a copy of the current participant list.
func (r *Room) Participants() []User {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]User, 0, len(r.participants))
	for _, u := range r.participants {
		users = append(users, u)
	}
	return users
}

// EvictIdle removes every participant whose LastSeenAt is older than
// idleAfter, as if they had explicitly left, and returns the evicted
// entries so the transport layer can announce them.
//
// Presence is orthogonal to document content: eviction never moves the
// version. The room TTL sweep is also unaffected: lastActivity keeps its
// value so a room full of silently departed users still expires on
// schedule.
func (r *Room) EvictIdle(idleAfter time.Duration) []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-idleAfter)
	var evicted []User
	for id, u := range r.participants {
		if u.LastSeenAt.Before(cutoff) {
			evicted = append(evicted, u)
			delete(r.participants, id)
		}
	}
	return evicted
}
