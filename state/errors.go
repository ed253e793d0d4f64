// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "errors"

var (
	// ErrInvalidKey is returned when a key violates the segment rules.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrReplayDetected is returned when a transaction's digest is already in
	// the protection window. The transaction body was not executed.
	ErrReplayDetected = errors.New("transaction replay detected")

	// ErrTxInProgress is returned when an operation requires no transaction
	// to be active.
	ErrTxInProgress = errors.New("transaction in progress")

	// ErrTxDone is returned when a transaction handle is used after it was
	// committed or aborted.
	ErrTxDone = errors.New("transaction already finished")

	// ErrNoActiveTx is returned when a transaction handle no longer matches
	// the engine's active transaction.
	ErrNoActiveTx = errors.New("no active transaction")

	// ErrCommitIntegrity is fatal: the backend was updated but the
	// commitment or its bookkeeping could not be, leaving the two
	// inconsistent. The engine halts; recovery is the host's
	// responsibility.
	ErrCommitIntegrity = errors.New("block commit integrity violation")

	// ErrHalted is returned by every operation after a commit integrity
	// violation.
	ErrHalted = errors.New("engine halted")

	// ErrSnapshotInvalidated is returned by reads on a snapshot whose height
	// is no longer the committed height.
	ErrSnapshotInvalidated = errors.New("snapshot invalidated by a newer commit")

	// ErrStagedChanges is returned when an operation requires the block
	// overlay to be empty.
	ErrStagedChanges = errors.New("block overlay holds staged changes")
)
