// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the collab
// service.
//
// The action endpoint accepts a single loosely shaped JSON envelope; Parse
// converts it into exactly one strongly typed action value, validated once
// at the boundary, so nothing past the handler layer ever inspects an
// untyped payload.
package datatypes

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Action Names
// =============================================================================

const (
	ActionJoin       = "join"
	ActionLeave      = "leave"
	ActionAddNode    = "add_node"
	ActionUpdateNode = "update_node"
	ActionDeleteNode = "delete_node"
	ActionMoveNode   = "move_node"
)

// ErrUnknownAction is returned by Parse for an unrecognized action name.
var ErrUnknownAction = errors.New("unknown action")

// =============================================================================
// Shared Validator Instance
// =============================================================================

// actionValidate is the validator instance for action datatypes.
var actionValidate *validator.Validate

func init() {
	actionValidate = validator.New()
}

// =============================================================================
// Wire Types
// =============================================================================

// UserRef identifies the acting user on the wire.
//
// Name is required only for join; leave and the mutation actions need just
// the id. Parse enforces the per-action requirement.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NodeSpec is the wire shape of a mind-map node: {id, label, parentId?,
// color?, icon?}.
type NodeSpec struct {
	ID       string `json:"id" validate:"required"`
	Label    string `json:"label" validate:"required"`
	ParentID string `json:"parentId,omitempty"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

// ToNode converts the wire shape to the internal node representation.
func (s NodeSpec) ToNode() mindmap.Node {
	return mindmap.Node{
		ID:       s.ID,
		Label:    s.Label,
		ParentID: s.ParentID,
		Color:    s.Color,
		Icon:     s.Icon,
	}
}

// ChangesSpec is the wire shape of an update_node patch. Absent fields stay
// untouched; at least one field must be present.
type ChangesSpec struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// IsEmpty reports whether no field is present.
func (c ChangesSpec) IsEmpty() bool {
	return c.Label == nil && c.Color == nil && c.Icon == nil
}

// ToChanges converts the wire patch to the mutator's change set.
func (c ChangesSpec) ToChanges() mindmap.NodeChanges {
	return mindmap.NodeChanges{Label: c.Label, Color: c.Color, Icon: c.Icon}
}

// =============================================================================
// Request Envelope
// =============================================================================

// ActionRequest is the JSON body of POST /v1/rooms/:roomId/actions.
//
// # Description
//
// One envelope covers all six actions; which optional fields are required
// depends on Action. Call Parse to turn the envelope into a typed action
// value or a RequestError describing the first missing field.
//
// # Examples
//
//	req := ActionRequest{
//	    Action: ActionAddNode,
//	    User:   UserRef{ID: "u1"},
//	    Node:   &NodeSpec{ID: "n1", Label: "Idea A"},
//	    ParentID: "root",
//	}
//	action, err := req.Parse()
type ActionRequest struct {
	Action      string       `json:"action" validate:"required"`
	User        UserRef      `json:"user"`
	Node        *NodeSpec    `json:"node,omitempty"`
	ParentID    string       `json:"parentId,omitempty"`
	NodeID      string       `json:"nodeId,omitempty"`
	Changes     *ChangesSpec `json:"changes,omitempty"`
	NewParentID string       `json:"newParentId,omitempty"`
}

// RequestError marks a client-fixable request shape problem (HTTP 400).
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return e.Reason
}

func badRequest(format string, args ...any) error {
	return &RequestError{Reason: fmt.Sprintf(format, args...)}
}

// =============================================================================
// Typed Actions
// =============================================================================

// Action is one fully validated client action. Exactly one of the concrete
// types below is produced per request.
type Action interface {
	// Name returns the wire action name.
	Name() string
}

type JoinAction struct {
	User UserRef
}

type LeaveAction struct {
	UserID string
}

type AddNodeAction struct {
	UserID   string
	Node     mindmap.Node
	ParentID string
}

type UpdateNodeAction struct {
	UserID  string
	NodeID  string
	Changes mindmap.NodeChanges
}

type DeleteNodeAction struct {
	UserID string
	NodeID string
}

type MoveNodeAction struct {
	UserID      string
	NodeID      string
	NewParentID string
}

func (JoinAction) Name() string       { return ActionJoin }
func (LeaveAction) Name() string      { return ActionLeave }
func (AddNodeAction) Name() string    { return ActionAddNode }
func (UpdateNodeAction) Name() string { return ActionUpdateNode }
func (DeleteNodeAction) Name() string { return ActionDeleteNode }
func (MoveNodeAction) Name() string   { return ActionMoveNode }

// Parse validates the envelope and returns the typed action.
//
// # Outputs
//
//   - Action: the concrete action value, nil on error
//   - error: *RequestError for a missing or malformed field, or
//     ErrUnknownAction for an unrecognized action name
func (r *ActionRequest) Parse() (Action, error) {
	if err := actionValidate.Struct(r); err != nil {
		return nil, badRequest("action is required")
	}

	switch r.Action {
	case ActionJoin:
		if r.User.ID == "" || r.User.Name == "" {
			return nil, badRequest("join requires user.id and user.name")
		}
		return JoinAction{User: r.User}, nil

	case ActionLeave:
		if r.User.ID == "" {
			return nil, badRequest("leave requires user.id")
		}
		return LeaveAction{UserID: r.User.ID}, nil

	case ActionAddNode:
		if r.User.ID == "" {
			return nil, badRequest("add_node requires user.id")
		}
		if r.Node == nil {
			return nil, badRequest("add_node requires node")
		}
		if err := actionValidate.Struct(r.Node); err != nil {
			return nil, badRequest("node requires id and label")
		}
		if r.ParentID == "" {
			return nil, badRequest("add_node requires parentId")
		}
		return AddNodeAction{
			UserID:   r.User.ID,
			Node:     r.Node.ToNode(),
			ParentID: r.ParentID,
		}, nil

	case ActionUpdateNode:
		if r.User.ID == "" {
			return nil, badRequest("update_node requires user.id")
		}
		if r.NodeID == "" {
			return nil, badRequest("update_node requires nodeId")
		}
		if r.Changes == nil || r.Changes.IsEmpty() {
			return nil, badRequest("update_node requires at least one change")
		}
		return UpdateNodeAction{
			UserID:  r.User.ID,
			NodeID:  r.NodeID,
			Changes: r.Changes.ToChanges(),
		}, nil

	case ActionDeleteNode:
		if r.User.ID == "" {
			return nil, badRequest("delete_node requires user.id")
		}
		if r.NodeID == "" {
			return nil, badRequest("delete_node requires nodeId")
		}
		return DeleteNodeAction{UserID: r.User.ID, NodeID: r.NodeID}, nil

	case ActionMoveNode:
		if r.User.ID == "" {
			return nil, badRequest("move_node requires user.id")
		}
		if r.NodeID == "" {
			return nil, badRequest("move_node requires nodeId")
		}
		if r.NewParentID == "" {
			return nil, badRequest("move_node requires newParentId")
		}
		return MoveNodeAction{
			UserID:      r.User.ID,
			NodeID:      r.NodeID,
			NewParentID: r.NewParentID,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
}
