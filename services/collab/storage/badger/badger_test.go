// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"testing"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(roomID string, version int64) room.Snapshot {
	tree := mindmap.NewTree([]mindmap.Node{
		{ID: "root", Label: "Central Idea"},
		{ID: "n1", Label: "Branch", ParentID: "root"},
	})
	return room.Snapshot{RoomID: roomID, Version: version, Tree: tree}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestArchiveAndLoad(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.ArchiveSnapshot(ctx, testSnapshot("demo", 7)))

	got, err := store.LoadSnapshot(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.RoomID)
	assert.Equal(t, int64(7), got.Version)
	assert.Len(t, got.Tree, 2)
	assert.Equal(t, "Branch", got.Tree["n1"].Label)
}

func TestLoadMissingSnapshot(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.LoadSnapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestArchiveOverwritesSameRoom(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.ArchiveSnapshot(ctx, testSnapshot("demo", 1)))
	require.NoError(t, store.ArchiveSnapshot(ctx, testSnapshot("demo", 9)))

	got, err := store.LoadSnapshot(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Version)
}

func TestListRoomIDs(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.ArchiveSnapshot(ctx, testSnapshot("alpha", 1)))
	require.NoError(t, store.ArchiveSnapshot(ctx, testSnapshot("beta", 2)))

	ids, err := store.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
}
