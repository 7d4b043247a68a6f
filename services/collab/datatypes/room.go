// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/room"
)

// =============================================================================
// Room Creation
// =============================================================================

// CreateRoomRequest is the JSON body of POST /v1/rooms. The room is seeded
// from the provided nodes, typically an exported tree from the generation
// pipeline.
type CreateRoomRequest struct {
	RoomID string     `json:"roomId" validate:"required"`
	Nodes  []NodeSpec `json:"nodes" validate:"required,min=1,dive"`
}

// Validate checks the request shape.
func (r *CreateRoomRequest) Validate() error {
	if err := actionValidate.Struct(r); err != nil {
		return badRequest("roomId and a non-empty nodes list are required")
	}
	return nil
}

// SeedTree builds the initial tree from the wire nodes. Structural problems
// (no root, duplicate ids, cycles) surface as mindmap validation errors.
func (r *CreateRoomRequest) SeedTree() (mindmap.Tree, error) {
	nodes := make([]mindmap.Node, 0, len(r.Nodes))
	for _, spec := range r.Nodes {
		nodes = append(nodes, spec.ToNode())
	}
	t := mindmap.NewTree(nodes)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// =============================================================================
// Response Types
// =============================================================================

// MutationResponse is returned for every mutation action. Version reflects
// the room's document version after the action, unchanged when Success is
// false.
type MutationResponse struct {
	Success bool   `json:"success"`
	Version int64  `json:"version"`
	Reason  string `json:"reason,omitempty"`
}

// JoinResponse gives a joining client everything needed to synchronize.
type JoinResponse struct {
	Success      bool         `json:"success"`
	Participant  room.User    `json:"participant"`
	Mindmap      mindmap.Tree `json:"mindmap"`
	Participants []room.User  `json:"participants"`
	Version      int64        `json:"version"`
}

// LeaveResponse acknowledges an explicit leave.
type LeaveResponse struct {
	Success bool `json:"success"`
}

// CreateRoomResponse is returned after a successful room creation.
type CreateRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId"`
	Version int64  `json:"version"`
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
