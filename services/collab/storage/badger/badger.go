// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger provides the embedded archive for expired rooms.
//
// The collaboration engine is strictly in-memory while a room is live; the
// registry's expiry sweep hands the final snapshot of each destroyed room
// to this store so a finished document is not simply lost. Archived
// snapshots are read back by operators (or a future restore flow), never
// by the live mutation path.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab/room"
	"github.com/dgraph-io/badger/v4"
)

// ErrSnapshotNotFound is returned when no archive exists for a room id.
var ErrSnapshotNotFound = errors.New("archived snapshot not found")

// keyPrefix namespaces archive entries so the database can be shared with
// other local state later.
const keyPrefix = "room_snapshot/"

// Config holds configuration for the archive store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: durable synchronous writes.
func DefaultConfig() Config {
	return Config{SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests: in-memory, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// archivedSnapshot is the stored form of a room's final state.
type archivedSnapshot struct {
	RoomID     string          `json:"room_id"`
	Version    int64           `json:"version"`
	Tree       json.RawMessage `json:"tree"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// SnapshotStore archives final room snapshots in an embedded BadgerDB.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type SnapshotStore struct {
	db *badger.DB
}

// Open creates the archive store with the given configuration.
func Open(cfg Config) (*SnapshotStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent archive")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create archive directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// OpenInMemory opens a throwaway archive for tests.
func OpenInMemory() (*SnapshotStore, error) {
	return Open(InMemoryConfig())
}

// Close releases the database. Must be called on shutdown.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// ArchiveSnapshot persists the final snapshot of an expired room. A later
// archive for the same room id overwrites the earlier one; the newest
// state wins.
func (s *SnapshotStore) ArchiveSnapshot(_ context.Context, snap room.Snapshot) error {
	tree, err := json.Marshal(snap.Tree)
	if err != nil {
		return fmt.Errorf("encode tree for %s: %w", snap.RoomID, err)
	}
	entry := archivedSnapshot{
		RoomID:     snap.RoomID,
		Version:    snap.Version,
		Tree:       tree,
		ArchivedAt: time.Now(),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", snap.RoomID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+snap.RoomID), value)
	})
}

// LoadSnapshot returns the archived snapshot for a room id, or
// ErrSnapshotNotFound.
func (s *SnapshotStore) LoadSnapshot(_ context.Context, roomID string) (room.Snapshot, error) {
	var entry archivedSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + roomID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return room.Snapshot{}, err
	}

	snap := room.Snapshot{
		RoomID:  entry.RoomID,
		Version: entry.Version,
	}
	if err := json.Unmarshal(entry.Tree, &snap.Tree); err != nil {
		return room.Snapshot{}, fmt.Errorf("decode archived tree for %s: %w", roomID, err)
	}
	return snap, nil
}

// ListRoomIDs returns the ids of every archived room.
func (s *SnapshotStore) ListRoomIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}
