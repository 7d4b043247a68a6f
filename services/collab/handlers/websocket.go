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

	"github.com/AleutianAI/MindMesh/services/collab/registry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleRoomWebSocket serves GET /v1/rooms/:roomId/ws.
//
// # Description
//
// Upgrades the connection, sends the room's current snapshot so the client
// has a consistent base, then streams change events published by the action
// handlers. The socket is read only to detect disconnect; all mutations go
// through the HTTP action endpoint. A client that observes a version gap
// (events were dropped while it lagged) re-syncs with a fresh join.
func HandleRoomWebSocket(reg *registry.Registry, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")

		rm, err := reg.Get(roomID)
		if err != nil {
			if errors.Is(err, registry.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		connID := uuid.New().String()
		slog.Info("Websocket client connected", "roomId", roomID, "connId", connID)

		// Snapshot first so the client has a base to apply events onto.
		if err := sendJSON(ws, map[string]interface{}{
			"event":    "snapshot",
			"connId":   connID,
			"roomId":   roomID,
			"snapshot": rm.State(),
		}); err != nil {
			return
		}

		sub := hub.Subscribe(roomID)
		defer hub.Unsubscribe(sub)

		// Reader goroutine: we ignore inbound payloads, but a failed read
		// is the only reliable disconnect signal.
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case event, ok := <-sub.Events():
				if !ok {
					// Room destroyed by the TTL sweep.
					slog.Info("Websocket closing, room gone", "roomId", roomID, "connId", connID)
					return
				}
				if err := sendJSON(ws, event); err != nil {
					return
				}
			case <-readerDone:
				slog.Info("Websocket client disconnected", "roomId", roomID, "connId", connID)
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
