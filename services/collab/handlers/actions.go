// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides HTTP and websocket handlers for the collab
// service.
//
// Error mapping for the action endpoint follows a strict taxonomy:
// request shape problems are 400, an unknown room is 404, a structural
// rejection of an otherwise well-formed mutation is an ordinary 200 with
// success:false and an unchanged version, and only unexpected failures
// become 500.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab/datatypes"
	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/observability"
	"github.com/AleutianAI/MindMesh/services/collab/registry"
	"github.com/AleutianAI/MindMesh/services/collab/room"
	"github.com/gin-gonic/gin"
)

// HandleRoomAction serves POST /v1/rooms/:roomId/actions.
//
// One endpoint covers all six actions; the request envelope is parsed
// into a typed action before any room state is touched.
func HandleRoomAction(reg *registry.Registry, hub *Hub, metrics *observability.CollabMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		roomID := c.Param("roomId")

		var req datatypes.ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.ObserveAction("unknown", observability.StatusBadRequest, time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid JSON body"})
			return
		}

		action, err := req.Parse()
		if err != nil {
			slog.Info("Rejected malformed action request",
				"roomId", roomID, "action", req.Action, "reason", err.Error())
			metrics.ObserveAction(req.Action, observability.StatusBadRequest, time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		rm, err := reg.Get(roomID)
		if err != nil {
			if errors.Is(err, registry.ErrRoomNotFound) {
				metrics.ObserveAction(action.Name(), observability.StatusNotFound, time.Since(start).Seconds())
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "Room not found"})
				return
			}
			slog.Error("Room lookup failed", "roomId", roomID, "error", err)
			metrics.ObserveAction(action.Name(), observability.StatusError, time.Since(start).Seconds())
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}

		status := dispatchAction(c, rm, hub, action)
		metrics.ObserveAction(action.Name(), status, time.Since(start).Seconds())
	}
}

// dispatchAction runs one parsed action against the room and writes the
// response. Returns the metrics outcome label.
func dispatchAction(c *gin.Context, rm *room.Room, hub *Hub, action datatypes.Action) string {
	switch a := action.(type) {
	case datatypes.JoinAction:
		participant, snap := rm.Join(room.User{ID: a.User.ID, Name: a.User.Name})
		hub.Publish(Event{
			Type:        EventParticipantJoined,
			RoomID:      rm.ID(),
			Version:     snap.Version,
			UserID:      participant.ID,
			Participant: &participant,
		})
		c.JSON(http.StatusOK, datatypes.JoinResponse{
			Success:      true,
			Participant:  participant,
			Mindmap:      snap.Tree,
			Participants: snap.Participants,
			Version:      snap.Version,
		})
		return observability.StatusAccepted

	case datatypes.LeaveAction:
		rm.Leave(a.UserID)
		hub.Publish(Event{
			Type:    EventParticipantLeft,
			RoomID:  rm.ID(),
			Version: rm.Version(),
			UserID:  a.UserID,
		})
		c.JSON(http.StatusOK, datatypes.LeaveResponse{Success: true})
		return observability.StatusAccepted

	case datatypes.AddNodeAction:
		version, err := rm.ApplyAdd(a.UserID, a.Node, a.ParentID)
		if err != nil {
			return writeRejection(c, rm, err)
		}
		node := a.Node
		node.ParentID = a.ParentID
		hub.Publish(Event{
			Type:    EventNodeAdded,
			RoomID:  rm.ID(),
			Version: version,
			UserID:  a.UserID,
			Node:    &node,
		})
		c.JSON(http.StatusOK, datatypes.MutationResponse{Success: true, Version: version})
		return observability.StatusAccepted

	case datatypes.UpdateNodeAction:
		version, err := rm.ApplyUpdate(a.UserID, a.NodeID, a.Changes)
		if err != nil {
			return writeRejection(c, rm, err)
		}
		updated, _ := rm.State().Tree.Find(a.NodeID)
		hub.Publish(Event{
			Type:    EventNodeUpdated,
			RoomID:  rm.ID(),
			Version: version,
			UserID:  a.UserID,
			NodeID:  a.NodeID,
			Node:    &updated,
		})
		c.JSON(http.StatusOK, datatypes.MutationResponse{Success: true, Version: version})
		return observability.StatusAccepted

	case datatypes.DeleteNodeAction:
		version, err := rm.ApplyDelete(a.UserID, a.NodeID)
		if err != nil {
			return writeRejection(c, rm, err)
		}
		hub.Publish(Event{
			Type:    EventNodeDeleted,
			RoomID:  rm.ID(),
			Version: version,
			UserID:  a.UserID,
			NodeID:  a.NodeID,
		})
		c.JSON(http.StatusOK, datatypes.MutationResponse{Success: true, Version: version})
		return observability.StatusAccepted

	case datatypes.MoveNodeAction:
		version, err := rm.ApplyMove(a.UserID, a.NodeID, a.NewParentID)
		if err != nil {
			return writeRejection(c, rm, err)
		}
		hub.Publish(Event{
			Type:        EventNodeMoved,
			RoomID:      rm.ID(),
			Version:     version,
			UserID:      a.UserID,
			NodeID:      a.NodeID,
			NewParentID: a.NewParentID,
		})
		c.JSON(http.StatusOK, datatypes.MutationResponse{Success: true, Version: version})
		return observability.StatusAccepted

	default:
		slog.Error("Unhandled action type", "action", action.Name())
		c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
		return observability.StatusError
	}
}

// writeRejection maps a structural mutator rejection to success:false with
// the unchanged version. Anything outside the mutator's error taxonomy is
// an internal failure.
func writeRejection(c *gin.Context, rm *room.Room, err error) string {
	if isStructuralRejection(err) {
		c.JSON(http.StatusOK, datatypes.MutationResponse{
			Success: false,
			Version: rm.Version(),
			Reason:  err.Error(),
		})
		return observability.StatusRejected
	}
	slog.Error("Mutation failed unexpectedly", "roomId", rm.ID(), "error", err)
	c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
	return observability.StatusError
}

func isStructuralRejection(err error) bool {
	return errors.Is(err, mindmap.ErrNodeNotFound) ||
		errors.Is(err, mindmap.ErrParentNotFound) ||
		errors.Is(err, mindmap.ErrDuplicateNode) ||
		errors.Is(err, mindmap.ErrCycle) ||
		errors.Is(err, mindmap.ErrRootImmovable) ||
		errors.Is(err, mindmap.ErrInvalidTree)
}
