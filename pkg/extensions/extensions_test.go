// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"testing"
)

func TestDefaultOptionsAreNops(t *testing.T) {
	opts := DefaultOptions()

	info, err := opts.AuthProvider.Validate(context.Background(), "anything")
	if err != nil {
		t.Fatalf("nop auth should accept any token: %v", err)
	}
	if info.UserID != "local-user" {
		t.Errorf("expected local-user, got %q", info.UserID)
	}

	if err := opts.AuditLogger.Log(context.Background(), AuditEvent{EventType: "room.created"}); err != nil {
		t.Errorf("nop audit should never fail: %v", err)
	}
}

func TestWithBuilders(t *testing.T) {
	base := DefaultOptions()
	custom := &NopAuditLogger{}

	opts := base.WithAudit(custom)
	if opts.AuditLogger != custom {
		t.Error("WithAudit did not replace the logger")
	}
	if base.AuditLogger == custom {
		t.Error("WithAudit should copy, not mutate")
	}
}

func TestHasRole(t *testing.T) {
	info := &AuthInfo{UserID: "u1", Roles: []string{"admin", "viewer"}}
	if !info.HasRole("admin") {
		t.Error("expected admin role")
	}
	if info.HasRole("auditor") {
		t.Error("did not expect auditor role")
	}
}
