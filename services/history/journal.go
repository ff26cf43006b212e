// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history keeps a local journal of lint invocation outcomes.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/lintdispatch/services/dispatch"
)

// Sentinel errors for the history package.
var (
	// ErrPathRequired is returned when an on-disk journal has no path.
	ErrPathRequired = errors.New("history path is required")

	// ErrClosed is returned when the journal is used after Close.
	ErrClosed = errors.New("history journal is closed")
)

// keyPrefix namespaces outcome records. Keys sort by start time.
const keyPrefix = "outcome/"

// Journal stores InvocationOutcomes in BadgerDB, newest last.
//
// # Thread Safety
//
// Safe for concurrent use.
type Journal struct {
	db     *badger.DB
	retain int
}

// Open opens (or creates) a journal.
func Open(cfg Config) (*Journal, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &Journal{db: db, retain: cfg.Retain}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	if j.db == nil || j.db.IsClosed() {
		return nil
	}
	return j.db.Close()
}

// RecordOutcome appends an outcome and prunes beyond the retention limit.
func (j *Journal) RecordOutcome(ctx context.Context, o dispatch.InvocationOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.db.IsClosed() {
		return ErrClosed
	}

	value, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	if err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(outcomeKey(o), value)
	}); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	if j.retain > 0 {
		if _, err := j.Prune(ctx, j.retain); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit outcomes, newest first. limit <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, limit int) ([]dispatch.InvocationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j.db.IsClosed() {
		return nil, ErrClosed
	}

	var outcomes []dispatch.InvocationOutcome
	err := j.db.View(func(txn *badger.Txn) error {
		return iterateNewest(txn, true, func(item *badger.Item) (bool, error) {
			var o dispatch.InvocationOutcome
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &o)
			}); err != nil {
				return false, fmt.Errorf("decode outcome %s: %w", item.Key(), err)
			}
			outcomes = append(outcomes, o)
			return limit <= 0 || len(outcomes) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Prune deletes all but the newest keep outcomes and returns how many were
// removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var stale [][]byte
	err := j.db.View(func(txn *badger.Txn) error {
		seen := 0
		return iterateNewest(txn, false, func(item *badger.Item) (bool, error) {
			seen++
			if seen > keep {
				stale = append(stale, item.KeyCopy(nil))
			}
			return true, nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("scan outcomes: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := j.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete outcome: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return len(stale), nil
}

// iterateNewest walks outcome records from newest to oldest until fn
// returns false.
func iterateNewest(txn *badger.Txn, values bool, fn func(*badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = values
	opts.Prefix = []byte(keyPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(keyPrefix + "\xff")); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
		more, err := fn(it.Item())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// outcomeKey orders records by start time, then run and target.
func outcomeKey(o dispatch.InvocationOutcome) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s/%s", keyPrefix, o.StartedAt.UnixNano(), o.RunID, o.TargetLabel))
}

// Compile-time interface compliance check.
var _ dispatch.OutcomeRecorder = (*Journal)(nil)
