// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"sync"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/observability"
	"github.com/AleutianAI/MindMesh/services/collab/room"
)

// =============================================================================
// Event Types
// =============================================================================

const (
	EventNodeAdded          = "node_added"
	EventNodeUpdated        = "node_updated"
	EventNodeDeleted        = "node_deleted"
	EventNodeMoved          = "node_moved"
	EventParticipantJoined  = "participant_joined"
	EventParticipantLeft    = "participant_left"
	EventParticipantEvicted = "participant_evicted"
	EventRoomExpired        = "room_expired"
)

// Event is one change notification pushed to room subscribers.
//
// Version carries the room's document version after the change; presence
// events repeat the current version without implying a document change.
type Event struct {
	Type        string        `json:"event"`
	RoomID      string        `json:"roomId"`
	Version     int64         `json:"version"`
	UserID      string        `json:"userId,omitempty"`
	Node        *mindmap.Node `json:"node,omitempty"`
	NodeID      string        `json:"nodeId,omitempty"`
	NewParentID string        `json:"newParentId,omitempty"`
	Participant *room.User    `json:"participant,omitempty"`
}

// =============================================================================
// Hub
// =============================================================================

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events and must rejoin to resync.
const subscriberBuffer = 64

// Hub fans room events out to websocket subscribers.
//
// # Description
//
// Each subscriber gets a buffered channel; Publish never blocks on a slow
// consumer, it drops the event for that subscriber instead. Room state is
// the source of truth, so a client that detects a version gap re-syncs by
// issuing a fresh join.
//
// # Thread Safety
//
// Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Subscriber]struct{}
	metrics *observability.CollabMetrics
}

// Subscriber is one websocket listener attached to a room.
type Subscriber struct {
	roomID string
	events chan Event
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(metrics *observability.CollabMetrics) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Subscriber]struct{}),
		metrics: metrics,
	}
}

// Subscribe registers a listener for one room's events.
func (h *Hub) Subscribe(roomID string) *Subscriber {
	sub := &Subscriber{
		roomID: roomID,
		events: make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[roomID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[sub.roomID]
	if !ok {
		return
	}
	if _, present := subs[sub]; !present {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, sub.roomID)
	}
	close(sub.events)
}

// Events returns the subscriber's receive channel. Closed by Unsubscribe
// and by DropRoom.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Publish delivers an event to every subscriber of the room. Slow
// subscribers lose the event rather than stalling the caller.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.rooms[event.RoomID]
	if !ok {
		return
	}
	for sub := range subs {
		select {
		case sub.events <- event:
			if h.metrics != nil {
				h.metrics.EventsFanoutTotal.WithLabelValues(event.Type).Inc()
			}
		default:
			if h.metrics != nil {
				h.metrics.EventsDroppedTotal.Inc()
			}
		}
	}
}

// DropRoom closes every subscriber of a destroyed room after sending the
// final room_expired event.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if ok {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	final := Event{Type: EventRoomExpired, RoomID: roomID}
	for sub := range subs {
		select {
		case sub.events <- final:
		default:
		}
		close(sub.events)
	}
}

// SubscriberCount reports the number of listeners for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
