// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mindmap provides the mind-map tree model and its mutation
// operations.
//
// A Tree is a flat, id-addressable set of nodes linked upward through
// ParentID. Exactly one node (the root) has an empty ParentID; every other
// ParentID must resolve to a node in the same tree, and the parent relation
// must be acyclic.
//
// # Ownership Model
//
// Trees are snapshots. Mutation functions (Add, Update, Delete, Move) never
// modify their input; they return a fresh Tree on success and the original,
// untouched Tree alongside a sentinel error on rejection. A room owns its
// current Tree exclusively and swaps it wholesale after an accepted
// mutation.
//
// # Thread Safety
//
// Tree itself carries no locking. Queries and mutations are pure functions
// over a snapshot; serialization of concurrent writers is the room layer's
// job.
package mindmap

// Node is a single entry in the mind-map tree.
//
// ParentID is empty only for the root node. Color and Icon are optional
// presentation metadata and round-trip through the wire format unchanged.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ParentID string `json:"parentId,omitempty"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

// Tree is the id-addressable node set for one room. It marshals as a JSON
// object keyed by node ID, which is the wire shape clients synchronize
// against.
type Tree map[string]Node

// NewTree builds a Tree from a slice of nodes, keyed by node ID.
//
// NewTree does not validate structure; call Validate on seed data that
// crosses a trust boundary.
func NewTree(nodes []Node) Tree {
	t := make(Tree, len(nodes))
	for _, n := range nodes {
		t[n.ID] = n
	}
	return t
}

// Find returns the node with the given ID, if present.
func (t Tree) Find(id string) (Node, bool) {
	n, ok := t[id]
	return n, ok
}

// Root returns the tree's root node (the single node with no parent).
// ok is false for an empty tree.
func (t Tree) Root() (Node, bool) {
	for _, n := range t {
		if n.ParentID == "" {
			return n, true
		}
	}
	return Node{}, false
}

// IsAncestor reports whether ancestorID is on the parent chain of nodeID.
// A self-reference (ancestorID == nodeID) counts as true.
//
// The walk is bounded by a visited set rather than recursion, so it
// terminates even if the tree has been corrupted into a parent cycle.
func (t Tree) IsAncestor(ancestorID, nodeID string) bool {
	if ancestorID == nodeID {
		return true
	}
	visited := make(map[string]bool, len(t))
	cur := nodeID
	for {
		n, ok := t[cur]
		if !ok || n.ParentID == "" {
			return false
		}
		if n.ParentID == ancestorID {
			return true
		}
		if visited[n.ParentID] {
			// Corrupted parent cycle; stop rather than loop.
			return false
		}
		visited[n.ParentID] = true
		cur = n.ParentID
	}
}

// Descendants returns the IDs of every node reachable below id, not
// including id itself. Used by cascading delete.
func (t Tree) Descendants(id string) map[string]struct{} {
	children := t.childIndex()
	out := make(map[string]struct{})
	queue := append([]string(nil), children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := out[cur]; seen {
			continue
		}
		out[cur] = struct{}{}
		queue = append(queue, children[cur]...)
	}
	return out
}

// Clone returns a shallow-independent copy of the tree. Node values are
// copied; the result can be mutated without affecting the original.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for id, n := range t {
		out[id] = n
	}
	return out
}

// Nodes returns all nodes in the tree in no particular order.
func (t Tree) Nodes() []Node {
	out := make([]Node, 0, len(t))
	for _, n := range t {
		out = append(out, n)
	}
	return out
}

// Validate checks the structural invariants required of a seed tree:
// exactly one root, every ParentID resolving within the tree, and an
// acyclic parent relation. An empty tree is valid (a cleared room).
//
// Returns an error wrapping ErrInvalidTree on the first violation found.
func (t Tree) Validate() error {
	if len(t) == 0 {
		return nil
	}
	roots := 0
	for id, n := range t {
		if n.ID != id {
			return wrapInvalid("node keyed as %q carries ID %q", id, n.ID)
		}
		if n.ParentID == "" {
			roots++
			continue
		}
		if _, ok := t[n.ParentID]; !ok {
			return wrapInvalid("node %q references missing parent %q", id, n.ParentID)
		}
	}
	if roots != 1 {
		return wrapInvalid("tree has %d roots, want exactly 1", roots)
	}
	for id := range t {
		if id != rootID(t) && t.IsAncestor(id, t[id].ParentID) {
			return wrapInvalid("node %q is its own ancestor", id)
		}
	}
	return nil
}

// childIndex builds a parent -> children adjacency map for one traversal.
func (t Tree) childIndex() map[string][]string {
	idx := make(map[string][]string, len(t))
	for id, n := range t {
		if n.ParentID != "" {
			idx[n.ParentID] = append(idx[n.ParentID], id)
		}
	}
	return idx
}

func rootID(t Tree) string {
	for id, n := range t {
		if n.ParentID == "" {
			return id
		}
	}
	return ""
}
