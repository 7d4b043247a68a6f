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

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree mutations. All of these are structural rejections:
// the tree remains valid and unchanged, and callers report them as ordinary
// results rather than failures. Check with errors.Is.
var (
	// ErrNodeNotFound is returned when an operation references a node ID
	// that does not exist in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrParentNotFound is returned when an add or move references a parent
	// ID that does not exist in the tree.
	ErrParentNotFound = errors.New("parent node not found")

	// ErrDuplicateNode is returned when adding a node with an ID that
	// already exists in the tree.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrCycle is returned when a move would make a node a descendant of
	// itself. Moving a node under its own subtree (or under itself) is
	// rejected to preserve acyclicity.
	ErrCycle = errors.New("move would create a cycle")

	// ErrRootImmovable is returned when a move targets the root node.
	// The root has no parent by definition.
	ErrRootImmovable = errors.New("root node cannot be moved")

	// ErrInvalidTree is returned by Validate when a seed tree violates a
	// structural invariant (missing root, multiple roots, dangling parent
	// reference, or a parent cycle).
	ErrInvalidTree = errors.New("invalid tree structure")
)

// wrapInvalid annotates ErrInvalidTree with the specific violation.
func wrapInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTree, fmt.Sprintf(format, args...))
}
