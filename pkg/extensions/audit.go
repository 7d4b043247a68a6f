// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"time"
)

// AuditEvent represents a security-relevant event for compliance logging.
//
// Event types follow a "category.action" convention, for example
// "room.created", "room.expired", "presence.evicted", "action.rejected".
type AuditEvent struct {
	// EventType categorizes the event for filtering and alerting.
	EventType string

	// Timestamp is when the event occurred (always UTC).
	// If zero, implementations should set it to time.Now().UTC().
	Timestamp time.Time

	// UserID identifies who performed the action.
	// Use "system" for automated actions such as TTL sweeps.
	UserID string

	// Action describes what operation was attempted.
	Action string

	// ResourceType is the category of resource involved, e.g. "room".
	ResourceType string

	// ResourceID is the specific resource instance, e.g. the room id.
	ResourceID string

	// Outcome indicates the result: "success", "failure", "blocked".
	Outcome string

	// Metadata holds additional event-specific data.
	Metadata map[string]any
}

// AuditLogger records security-relevant events.
//
// Log must not block the caller on slow sinks; buffer or drop instead.
type AuditLogger interface {
	Log(ctx context.Context, event AuditEvent) error
}

// NopAuditLogger discards all events.
type NopAuditLogger struct{}

// Log implements AuditLogger.
func (l *NopAuditLogger) Log(_ context.Context, _ AuditEvent) error {
	return nil
}
