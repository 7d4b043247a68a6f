// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mindmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestAdd(t *testing.T) {
	t.Run("inserts under existing parent", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Add(tree, Node{ID: "c", Label: "C"}, "b")
		require.NoError(t, err)

		n, ok := out.Find("c")
		require.True(t, ok)
		assert.Equal(t, "b", n.ParentID)
		_, ok = tree.Find("c")
		assert.False(t, ok, "input tree untouched")
	})

	t.Run("overwrites stray parent on the incoming node", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Add(tree, Node{ID: "c", ParentID: "a1"}, "b")
		require.NoError(t, err)
		n, _ := out.Find("c")
		assert.Equal(t, "b", n.ParentID)
	})

	t.Run("unknown parent rejected", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Add(tree, Node{ID: "c"}, "ghost")
		assert.ErrorIs(t, err, ErrParentNotFound)
		assert.Equal(t, tree, out, "rejection returns the tree unchanged")
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Add(tree, Node{ID: "a1"}, "root")
		assert.ErrorIs(t, err, ErrDuplicateNode)
		assert.Equal(t, tree, out)
	})

	t.Run("empty tree rejects every add", func(t *testing.T) {
		out, err := Add(Tree{}, Node{ID: "n"}, "root")
		assert.ErrorIs(t, err, ErrParentNotFound)
		assert.Empty(t, out)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("merges only provided fields", func(t *testing.T) {
		tree := NewTree([]Node{
			{ID: "root"},
			{ID: "a", Label: "A", Color: "#f00", Icon: "star", ParentID: "root"},
		})
		out, err := Update(tree, "a", NodeChanges{Label: strptr("A2")})
		require.NoError(t, err)

		n, _ := out.Find("a")
		assert.Equal(t, "A2", n.Label)
		assert.Equal(t, "#f00", n.Color, "absent field left alone")
		assert.Equal(t, "star", n.Icon)
		assert.Equal(t, "root", n.ParentID, "update never re-parents")
	})

	t.Run("explicit empty string clears a field", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Update(tree, "a", NodeChanges{Color: strptr("")})
		require.NoError(t, err)
		n, _ := out.Find("a")
		assert.Empty(t, n.Color)
	})

	t.Run("unknown node rejected", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Update(tree, "ghost", NodeChanges{Label: strptr("x")})
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.Equal(t, tree, out)
	})
}

func TestDelete(t *testing.T) {
	t.Run("cascades through the subtree", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Delete(tree, "a")
		require.NoError(t, err)

		assert.Len(t, out, 2)
		for _, gone := range []string{"a", "a1", "a2"} {
			_, ok := out.Find(gone)
			assert.False(t, ok, "%s should be gone", gone)
		}
		_, ok := out.Find("b")
		assert.True(t, ok)
	})

	t.Run("root delete clears the tree", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Delete(tree, "root")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("unknown node rejected", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Delete(tree, "ghost")
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.Equal(t, tree, out)
	})
}

func TestMove(t *testing.T) {
	t.Run("re-parents a subtree", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Move(tree, "a1", "b")
		require.NoError(t, err)

		n, _ := out.Find("a1")
		assert.Equal(t, "b", n.ParentID)
		orig, _ := tree.Find("a1")
		assert.Equal(t, "a", orig.ParentID, "input tree untouched")
	})

	t.Run("root cannot move", func(t *testing.T) {
		tree := buildTestTree()
		_, err := Move(tree, "root", "a")
		assert.ErrorIs(t, err, ErrRootImmovable)
	})

	t.Run("move under own descendant rejected", func(t *testing.T) {
		tree := buildTestTree()
		out, err := Move(tree, "a", "a1")
		assert.ErrorIs(t, err, ErrCycle)
		assert.Equal(t, tree, out)
	})

	t.Run("move under self rejected", func(t *testing.T) {
		tree := buildTestTree()
		_, err := Move(tree, "a", "a")
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("unknown node and parent rejected", func(t *testing.T) {
		tree := buildTestTree()
		_, err := Move(tree, "ghost", "b")
		assert.ErrorIs(t, err, ErrNodeNotFound)

		_, err = Move(tree, "a1", "ghost")
		assert.ErrorIs(t, err, ErrParentNotFound)
	})
}

// TestNoSequenceCreatesCycle drives a randomized-ish batch of mutations and
// asserts the acyclicity invariant after every accepted step.
func TestNoSequenceCreatesCycle(t *testing.T) {
	tree := buildTestTree()
	ops := []func(Tree) (Tree, error){
		func(tr Tree) (Tree, error) { return Add(tr, Node{ID: "c", Label: "C"}, "a2") },
		func(tr Tree) (Tree, error) { return Move(tr, "b", "a1") },
		func(tr Tree) (Tree, error) { return Move(tr, "a", "b") }, // b now under a1 under a: cycle, rejected
		func(tr Tree) (Tree, error) { return Delete(tr, "a2") },
		func(tr Tree) (Tree, error) { return Move(tr, "b", "root") },
	}
	for i, op := range ops {
		next, err := op(tree)
		if err == nil {
			tree = next
		}
		require.NoError(t, tree.Validate(), "invariants broken after op %d", i)
	}
}
