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
	"encoding/json"
	"errors"
	"testing"
)

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Join(t *testing.T) {
	req := &ActionRequest{
		Action: ActionJoin,
		User:   UserRef{ID: "u1", Name: "Ada"},
	}

	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid join, got error: %v", err)
	}
	join, ok := action.(JoinAction)
	if !ok {
		t.Fatalf("expected JoinAction, got %T", action)
	}
	if join.User.ID != "u1" || join.User.Name != "Ada" {
		t.Errorf("unexpected user: %+v", join.User)
	}
}

func TestParse_JoinRequiresName(t *testing.T) {
	req := &ActionRequest{
		Action: ActionJoin,
		User:   UserRef{ID: "u1"},
	}

	_, err := req.Parse()
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
}

func TestParse_LeaveNeedsOnlyID(t *testing.T) {
	req := &ActionRequest{
		Action: ActionLeave,
		User:   UserRef{ID: "u1"},
	}

	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid leave, got error: %v", err)
	}
	if _, ok := action.(LeaveAction); !ok {
		t.Fatalf("expected LeaveAction, got %T", action)
	}
}

func TestParse_AddNode(t *testing.T) {
	req := &ActionRequest{
		Action:   ActionAddNode,
		User:     UserRef{ID: "u1"},
		Node:     &NodeSpec{ID: "n1", Label: "Idea A", Color: "#ff0000"},
		ParentID: "root",
	}

	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid add_node, got error: %v", err)
	}
	add, ok := action.(AddNodeAction)
	if !ok {
		t.Fatalf("expected AddNodeAction, got %T", action)
	}
	if add.Node.ID != "n1" || add.Node.Color != "#ff0000" {
		t.Errorf("node not converted: %+v", add.Node)
	}
	if add.ParentID != "root" {
		t.Errorf("expected parent root, got %q", add.ParentID)
	}
}

func TestParse_AddNodeMissingFields(t *testing.T) {
	cases := []struct {
		name string
		req  ActionRequest
	}{
		{"no user", ActionRequest{Action: ActionAddNode, Node: &NodeSpec{ID: "n1", Label: "x"}, ParentID: "root"}},
		{"no node", ActionRequest{Action: ActionAddNode, User: UserRef{ID: "u1"}, ParentID: "root"}},
		{"node without label", ActionRequest{Action: ActionAddNode, User: UserRef{ID: "u1"}, Node: &NodeSpec{ID: "n1"}, ParentID: "root"}},
		{"no parent", ActionRequest{Action: ActionAddNode, User: UserRef{ID: "u1"}, Node: &NodeSpec{ID: "n1", Label: "x"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.Parse()
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Errorf("expected RequestError, got %v", err)
			}
		})
	}
}

func TestParse_UpdateNodeRejectsEmptyChanges(t *testing.T) {
	req := &ActionRequest{
		Action:  ActionUpdateNode,
		User:    UserRef{ID: "u1"},
		NodeID:  "n1",
		Changes: &ChangesSpec{},
	}

	if _, err := req.Parse(); err == nil {
		t.Error("expected error for empty changes, got nil")
	}
}

func TestParse_UpdateNodeChangesConvert(t *testing.T) {
	label := "revised"
	req := &ActionRequest{
		Action:  ActionUpdateNode,
		User:    UserRef{ID: "u1"},
		NodeID:  "n1",
		Changes: &ChangesSpec{Label: &label},
	}

	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid update_node, got error: %v", err)
	}
	upd := action.(UpdateNodeAction)
	if upd.Changes.Label == nil || *upd.Changes.Label != "revised" {
		t.Errorf("label change not carried: %+v", upd.Changes)
	}
	if upd.Changes.Color != nil {
		t.Error("absent color should stay nil")
	}
}

func TestParse_MoveNode(t *testing.T) {
	req := &ActionRequest{
		Action:      ActionMoveNode,
		User:        UserRef{ID: "u1"},
		NodeID:      "n1",
		NewParentID: "n2",
	}

	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid move_node, got error: %v", err)
	}
	mv := action.(MoveNodeAction)
	if mv.NodeID != "n1" || mv.NewParentID != "n2" {
		t.Errorf("unexpected move: %+v", mv)
	}
}

func TestParse_UnknownAction(t *testing.T) {
	req := &ActionRequest{Action: "explode", User: UserRef{ID: "u1"}}

	_, err := req.Parse()
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestParse_WireFormat(t *testing.T) {
	body := `{
		"action": "move_node",
		"user": {"id": "u1", "name": "Ada"},
		"nodeId": "n1",
		"newParentId": "root"
	}`

	var req ActionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	action, err := req.Parse()
	if err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}
	if action.Name() != ActionMoveNode {
		t.Errorf("expected move_node, got %s", action.Name())
	}
}

// =============================================================================
// CreateRoomRequest Tests
// =============================================================================

func TestCreateRoomRequest_SeedTree(t *testing.T) {
	req := &CreateRoomRequest{
		RoomID: "r1",
		Nodes: []NodeSpec{
			{ID: "root", Label: "Central Idea"},
			{ID: "n1", Label: "Branch", ParentID: "root"},
		},
	}

	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}
	tree, err := req.SeedTree()
	if err != nil {
		t.Fatalf("expected valid seed, got error: %v", err)
	}
	if len(tree) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(tree))
	}
}

func TestCreateRoomRequest_RejectsEmptySeed(t *testing.T) {
	req := &CreateRoomRequest{RoomID: "r1"}

	if err := req.Validate(); err == nil {
		t.Error("expected error for empty nodes, got nil")
	}
}

func TestCreateRoomRequest_SeedMustHaveSingleRoot(t *testing.T) {
	req := &CreateRoomRequest{
		RoomID: "r1",
		Nodes: []NodeSpec{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
		},
	}

	if err := req.Validate(); err != nil {
		t.Fatalf("shape is valid, got error: %v", err)
	}
	if _, err := req.SeedTree(); err == nil {
		t.Error("expected structural error for two roots, got nil")
	}
}
