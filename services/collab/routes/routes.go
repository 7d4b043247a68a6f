// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/AleutianAI/MindMesh/pkg/extensions"
	"github.com/AleutianAI/MindMesh/services/collab/handlers"
	"github.com/AleutianAI/MindMesh/services/collab/middleware"
	"github.com/AleutianAI/MindMesh/services/collab/observability"
	"github.com/AleutianAI/MindMesh/services/collab/registry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every collab endpoint on the router.
//
// Room state endpoints live under /v1 behind the auth middleware; health
// and metrics stay unauthenticated for probes and scrapers.
func SetupRoutes(router *gin.Engine, reg *registry.Registry, hub *handlers.Hub,
	metrics *observability.CollabMetrics, opts extensions.ServiceOptions) {

	router.GET("/health", handlers.HandleHealth(reg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(opts.AuthProvider))
	{
		v1.POST("/rooms", handlers.HandleCreateRoom(reg))

		rooms := v1.Group("/rooms/:roomId")
		{
			rooms.GET("", handlers.HandleGetRoom(reg))
			rooms.POST("/actions", handlers.HandleRoomAction(reg, hub, metrics))
			rooms.GET("/ws", handlers.HandleRoomWebSocket(reg, hub))
		}
	}
}
