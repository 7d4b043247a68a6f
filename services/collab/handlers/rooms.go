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
	"errors"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/MindMesh/services/collab/datatypes"
	"github.com/AleutianAI/MindMesh/services/collab/registry"
	"github.com/gin-gonic/gin"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "1.0.0"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rooms   int    `json:"rooms"`
}

// HandleHealth serves GET /health. Always returns 200 if running.
func HandleHealth(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Version: ServiceVersion,
			Rooms:   reg.Len(),
		})
	}
}

// HandleCreateRoom serves POST /v1/rooms.
//
// The room is seeded from the supplied node list, typically a tree
// exported by the generation pipeline. An existing room id is a conflict;
// rooms are never re-seeded in place.
func HandleCreateRoom(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid JSON body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		seed, err := req.SeedTree()
		if err != nil {
			slog.Info("Rejected structurally invalid seed", "roomId", req.RoomID, "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		rm, err := reg.Create(req.RoomID, seed)
		if err != nil {
			if errors.Is(err, registry.ErrRoomExists) {
				c.JSON(http.StatusConflict, datatypes.ErrorResponse{Error: "room already exists"})
				return
			}
			slog.Error("Room creation failed", "roomId", req.RoomID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}

		slog.Info("Room created", "roomId", rm.ID(), "nodes", len(seed))
		c.JSON(http.StatusCreated, datatypes.CreateRoomResponse{
			Success: true,
			RoomID:  rm.ID(),
			Version: rm.Version(),
		})
	}
}

// HandleGetRoom serves GET /v1/rooms/:roomId. Returns the current
// snapshot without joining.
func HandleGetRoom(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")

		rm, err := reg.Get(roomID)
		if err != nil {
			if errors.Is(err, registry.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "Room not found"})
				return
			}
			slog.Error("Room lookup failed", "roomId", roomID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}

		c.JSON(http.StatusOK, rm.State())
	}
}
