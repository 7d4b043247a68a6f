// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mindmap

// NodeChanges carries the fields an update may merge into an existing node.
// Nil pointers mean "leave unchanged". ParentID is deliberately absent:
// re-parenting goes through Move, which enforces the cycle check.
type NodeChanges struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// Add inserts node under parentID and returns the new tree.
//
// # Rejections
//
//   - ErrParentNotFound: parentID does not resolve in the tree.
//   - ErrDuplicateNode: node.ID already exists.
//
// On rejection the input tree is returned unchanged. Any ParentID already
// set on node is overwritten with parentID.
func Add(t Tree, node Node, parentID string) (Tree, error) {
	if _, ok := t[parentID]; !ok {
		return t, ErrParentNotFound
	}
	if _, ok := t[node.ID]; ok {
		return t, ErrDuplicateNode
	}
	out := t.Clone()
	node.ParentID = parentID
	out[node.ID] = node
	return out, nil
}

// Update merges the provided fields of changes into the node with nodeID
// and returns the new tree.
//
// # Rejections
//
//   - ErrNodeNotFound: nodeID does not resolve in the tree.
//
// Only Label, Color, and Icon can change here; reparenting goes
// through Move.
func Update(t Tree, nodeID string, changes NodeChanges) (Tree, error) {
	n, ok := t[nodeID]
	if !ok {
		return t, ErrNodeNotFound
	}
	out := t.Clone()
	if changes.Label != nil {
		n.Label = *changes.Label
	}
	if changes.Color != nil {
		n.Color = *changes.Color
	}
	if changes.Icon != nil {
		n.Icon = *changes.Icon
	}
	out[nodeID] = n
	return out, nil
}

// Delete removes nodeID and its entire subtree and returns the new tree.
// Orphans are never re-parented; the cascade is total. Deleting the root
// clears the whole tree, which is the documented way to reset a room.
//
// # Rejections
//
//   - ErrNodeNotFound: nodeID does not resolve in the tree.
func Delete(t Tree, nodeID string) (Tree, error) {
	if _, ok := t[nodeID]; !ok {
		return t, ErrNodeNotFound
	}
	doomed := t.Descendants(nodeID)
	doomed[nodeID] = struct{}{}
	out := make(Tree, len(t)-len(doomed))
	for id, n := range t {
		if _, dead := doomed[id]; !dead {
			out[id] = n
		}
	}
	return out, nil
}

// Move re-parents nodeID under newParentID and returns the new tree.
//
// # Rejections
//
//   - ErrNodeNotFound: nodeID does not resolve in the tree.
//   - ErrRootImmovable: nodeID is the root.
//   - ErrParentNotFound: newParentID does not resolve in the tree.
//   - ErrCycle: newParentID is nodeID itself or one of its descendants.
//     Accepting such a move would detach the subtree into a parent cycle.
func Move(t Tree, nodeID, newParentID string) (Tree, error) {
	n, ok := t[nodeID]
	if !ok {
		return t, ErrNodeNotFound
	}
	if n.ParentID == "" {
		return t, ErrRootImmovable
	}
	if _, ok := t[newParentID]; !ok {
		return t, ErrParentNotFound
	}
	if t.IsAncestor(nodeID, newParentID) {
		return t, ErrCycle
	}
	out := t.Clone()
	n.ParentID = newParentID
	out[nodeID] = n
	return out, nil
}
