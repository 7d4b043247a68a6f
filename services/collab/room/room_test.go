// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab/mindmap"
	"github.com/AleutianAI/MindMesh/services/collab/ttl"
)

func seedTree() mindmap.Tree {
	return mindmap.NewTree([]mindmap.Node{
		{ID: "root", Label: "Root"},
		{ID: "n1", Label: "Idea A", ParentID: "root"},
	})
}

func TestVersionCountsAcceptedMutations(t *testing.T) {
	r := New("r1", seedTree(), nil)

	if got := r.Version(); got != 0 {
		t.Fatalf("new room version = %d, want 0", got)
	}

	v, err := r.ApplyAdd("u1", mindmap.Node{ID: "n2", Label: "Idea B"}, "root")
	if err != nil {
		t.Fatalf("ApplyAdd: %v", err)
	}
	if v != 1 {
		t.Errorf("version after add = %d, want 1", v)
	}

	// Rejected mutation must not move the version.
	v, err = r.ApplyAdd("u1", mindmap.Node{ID: "n3"}, "ghost")
	if !errors.Is(err, mindmap.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if v != 1 {
		t.Errorf("version after rejection = %d, want 1", v)
	}

	label := "Idea B revised"
	if v, err = r.ApplyUpdate("u1", "n2", mindmap.NodeChanges{Label: &label}); err != nil || v != 2 {
		t.Errorf("ApplyUpdate = (%d, %v), want (2, nil)", v, err)
	}
	if v, err = r.ApplyDelete("u1", "n2"); err != nil || v != 3 {
		t.Errorf("ApplyDelete = (%d, %v), want (3, nil)", v, err)
	}
}

// TestSpecScenario walks the documented end-to-end example: seed, add,
// rejected cycle move, update, root delete.
func TestSpecScenario(t *testing.T) {
	r := New("r1", mindmap.NewTree([]mindmap.Node{{ID: "root", Label: "Root"}}), nil)

	v, err := r.ApplyAdd("u1", mindmap.Node{ID: "n1", Label: "Idea A"}, "root")
	if err != nil || v != 1 {
		t.Fatalf("add = (%d, %v), want (1, nil)", v, err)
	}

	v, err = r.ApplyMove("u1", "root", "n1")
	if !errors.Is(err, mindmap.ErrRootImmovable) {
		t.Fatalf("moving root under its descendant should be rejected, got %v", err)
	}
	if v != 1 {
		t.Errorf("version after rejected move = %d, want 1", v)
	}

	label := "Idea A revised"
	if v, err = r.ApplyUpdate("u1", "n1", mindmap.NodeChanges{Label: &label}); err != nil || v != 2 {
		t.Fatalf("update = (%d, %v), want (2, nil)", v, err)
	}

	if v, err = r.ApplyDelete("u1", "root"); err != nil || v != 3 {
		t.Fatalf("root delete = (%d, %v), want (3, nil)", v, err)
	}
	if got := r.State().Tree; len(got) != 0 {
		t.Errorf("tree after root delete has %d nodes, want 0", len(got))
	}
}

func TestJoinLeave(t *testing.T) {
	r := New("r1", seedTree(), nil)

	u, snap := r.Join(User{ID: "u1", Name: "Ada"})
	if u.Color == "" {
		t.Error("join should assign a palette color")
	}
	if snap.Version != 0 {
		t.Errorf("join snapshot version = %d, want 0", snap.Version)
	}
	if len(snap.Participants) != 1 {
		t.Errorf("snapshot has %d participants, want 1", len(snap.Participants))
	}
	if len(snap.Tree) != 2 {
		t.Errorf("snapshot tree has %d nodes, want 2", len(snap.Tree))
	}

	// Rejoin keeps the assigned color.
	u2, _ := r.Join(User{ID: "u1", Name: "Ada"})
	if u2.Color != u.Color {
		t.Errorf("rejoin color = %q, want %q", u2.Color, u.Color)
	}

	if !r.Leave("u1") {
		t.Error("leave of present user should report true")
	}
	if r.Leave("u1") {
		t.Error("second leave should report false")
	}
	if n := r.ParticipantCount(); n != 0 {
		t.Errorf("participants after leave = %d, want 0", n)
	}
	if v := r.Version(); v != 0 {
		t.Errorf("presence churn moved version to %d", v)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := New("r1", seedTree(), nil)
	snap := r.State()

	// Mutating the snapshot must not leak into the room.
	delete(snap.Tree, "n1")

	if _, ok := r.State().Tree.Find("n1"); !ok {
		t.Error("room tree was mutated through a snapshot")
	}
}

func TestMutationRefreshesActorPresence(t *testing.T) {
	clock := ttl.NewFakeClock(time.Unix(1_700_000_000, 0))
	r := New("r1", seedTree(), clock)
	r.Join(User{ID: "u1", Name: "Ada"})

	clock.Advance(10 * time.Minute)
	if _, err := r.ApplyAdd("u1", mindmap.Node{ID: "n2"}, "root"); err != nil {
		t.Fatalf("ApplyAdd: %v", err)
	}

	users := r.Participants()
	if len(users) != 1 {
		t.Fatalf("got %d participants, want 1", len(users))
	}
	if !users[0].LastSeenAt.Equal(clock.Now()) {
		t.Errorf("lastSeenAt = %v, want refreshed to %v", users[0].LastSeenAt, clock.Now())
	}
}

// TestConcurrentMutations hammers one room from many goroutines and checks
// that the version equals the number of accepted mutations and the tree
// stays structurally valid.
func TestConcurrentMutations(t *testing.T) {
	r := New("r1", seedTree(), nil)

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	accepted := make([]int64, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := string(rune('a'+w)) + "-" + string(rune('0'+i%10)) + string(rune('0'+i/10))
				if _, err := r.ApplyAdd("u", mindmap.Node{ID: id}, "root"); err == nil {
					accepted[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	var total int64
	for _, n := range accepted {
		total += n
	}
	if got := r.Version(); got != total {
		t.Errorf("version = %d, accepted = %d; must match", got, total)
	}
	if err := r.State().Tree.Validate(); err != nil {
		t.Errorf("tree invalid after concurrent load: %v", err)
	}
}
