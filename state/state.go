// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/ledgerdb/cache"
	"github.com/ava-labs/ledgerdb/cache/lru"
	"github.com/ava-labs/ledgerdb/cache/metercacher"
	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/database/corruptabledb"
	"github.com/ava-labs/ledgerdb/database/prefixdb"
	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/merkle"
	"github.com/ava-labs/ledgerdb/utils"
	"github.com/ava-labs/ledgerdb/utils/logging"
	"github.com/ava-labs/ledgerdb/utils/maybe"
	"github.com/ava-labs/ledgerdb/utils/set"
)

// Backend namespaces. User state, replay digests and engine bookkeeping
// share one backend; the commit batch composes these prefixes itself so one
// atomic write can span all three.
var (
	statePrefix  = []byte("state/")
	replayPrefix = []byte("replay/")
	metaPrefix   = []byte("meta/")

	heightKey = []byte("height")
	rootKey   = []byte("root")
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseTxExecuting
	phaseBlockCommitting
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseTxExecuting:
		return "tx executing"
	case phaseBlockCommitting:
		return "block committing"
	default:
		return "unknown"
	}
}

// State is the node's transactional storage engine. It stages writes in
// transaction- and block-scoped overlays, guards against transaction
// replays, and commits blocks atomically together with the commitment
// oracle.
//
// There is a single logical writer: BeginTx, transaction operations and
// CommitBlock must not be called concurrently with each other. Snapshot
// reads are safe concurrently with everything but the commit flip itself.
type State struct {
	log     logging.Logger
	metrics *metrics
	config  Config

	// lock guards the backend-visible flip at block commit against
	// concurrent snapshot reads.
	lock sync.RWMutex

	baseDB   database.Database
	stateDB  database.Database
	replayDB database.Database
	metaDB   database.Database

	tree   merkle.Tree
	cache  cache.Cacher[string, maybe.Maybe[[]byte]]
	replay *replayGuard

	phase        phase
	activeTx     *Tx
	blockOverlay *overlay
	// Digests of the current block's committed txs, in acceptance order,
	// with a set alongside for same-block duplicate detection.
	pendingDigests []ids.ID
	pendingSet     set.Set[ids.ID]

	height uint64
	root   ids.ID

	// Latched on a commit integrity violation. Once set, every operation
	// fails with ErrHalted.
	halted utils.Atomic[bool]

	// snapLock guards the snapshot registry; snapshots release themselves
	// from reader goroutines.
	snapLock  sync.Mutex
	snapshots map[*Snapshot]struct{}
}

// New opens the engine over [db]. [tree] must already hold the commitment
// state matching [db]'s committed height.
func New(
	db database.Database,
	tree merkle.Tree,
	config Config,
	log logging.Logger,
	namespace string,
	reg prometheus.Registerer,
) (*State, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base := corruptabledb.New(db, log)
	metaDB := prefixdb.New(metaPrefix, base)

	height, err := database.WithDefault(database.GetUInt64, metaDB, heightKey, 0)
	if err != nil {
		return nil, fmt.Errorf("couldn't read committed height: %w", err)
	}
	root, err := database.WithDefault(database.GetID, metaDB, rootKey, ids.Empty)
	if err != nil {
		return nil, fmt.Errorf("couldn't read committed root: %w", err)
	}

	replayDB := prefixdb.New(replayPrefix, base)
	replay, err := newReplayGuard(replayDB, config.ReplayBloomSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't rebuild replay guard: %w", err)
	}

	readCache, err := metercacher.New[string, maybe.Maybe[[]byte]](
		namespace+"_read_cache",
		reg,
		lru.NewSizedCacheWithMaxLen(config.CacheSize, config.CacheBytes, cachedEntrySize),
	)
	if err != nil {
		return nil, err
	}

	m, err := newMetrics(namespace, reg)
	if err != nil {
		return nil, err
	}
	m.committedHeight.Set(float64(height))
	m.replayDigestsLive.Set(float64(replay.numDigests))

	return &State{
		log:          log,
		metrics:      m,
		config:       config,
		baseDB:       base,
		stateDB:      prefixdb.New(statePrefix, base),
		replayDB:     replayDB,
		metaDB:       metaDB,
		tree:         tree,
		cache:        readCache,
		replay:       replay,
		blockOverlay: newOverlay(),
		height:       height,
		root:         root,
		snapshots:    make(map[*Snapshot]struct{}),
	}, nil
}

func cachedEntrySize(key string, entry maybe.Maybe[[]byte]) int {
	return len(key) + len(entry.Value())
}

// Height returns the last committed block height.
func (s *State) Height() uint64 {
	return s.height
}

// Root returns the commitment root of the last committed block.
func (s *State) Root() ids.ID {
	return s.root
}

// BeginTx opens a transaction identified by [digest], metered by [meter].
// A digest already inside the replay protection window, or already accepted
// in the current block, fails with ErrReplayDetected before any execution.
func (s *State) BeginTx(digest ids.ID, meter gas.Meter) (*Tx, error) {
	if s.halted.Get() {
		return nil, ErrHalted
	}
	if s.phase != phaseIdle {
		return nil, fmt.Errorf("%w: engine is %s", ErrTxInProgress, s.phase)
	}

	replayed := s.pendingSet.Contains(digest)
	if !replayed {
		var err error
		replayed, err = s.replay.contains(digest)
		if err != nil {
			return nil, err
		}
	}
	if replayed {
		s.metrics.txsReplayRejected.Inc()
		s.log.Debug("rejected replayed transaction",
			zap.Stringer("digest", digest),
		)
		return nil, fmt.Errorf("%w: %s", ErrReplayDetected, digest)
	}

	tx := &Tx{
		state:   s,
		digest:  digest,
		meter:   meter,
		overlay: newOverlay(),
	}
	s.activeTx = tx
	s.phase = phaseTxExecuting
	return tx, nil
}

// commitTx folds [tx]'s overlay into the block overlay and records its
// digest for the block's replay batch.
func (s *State) commitTx(tx *Tx) error {
	if s.activeTx != tx {
		return ErrNoActiveTx
	}
	tx.overlay.mergeInto(s.blockOverlay)
	s.pendingDigests = append(s.pendingDigests, tx.digest)
	s.pendingSet.Add(tx.digest)
	s.activeTx = nil
	s.phase = phaseIdle

	s.metrics.txsCommitted.Inc()
	s.log.Verbo("committed transaction",
		zap.Stringer("digest", tx.digest),
		zap.Int("numChanges", tx.overlay.len()),
		zap.Uint64("gasConsumed", tx.meter.Consumed()),
	)
	return nil
}

// abortTx discards [tx]'s overlay. Gas already consumed stays consumed.
func (s *State) abortTx(tx *Tx) error {
	if s.activeTx != tx {
		return ErrNoActiveTx
	}
	s.activeTx = nil
	s.phase = phaseIdle

	s.metrics.txsAborted.Inc()
	s.log.Verbo("aborted transaction",
		zap.Stringer("digest", tx.digest),
	)
	return nil
}

// CommitBlock atomically persists the block overlay, the accepted digests
// and the new height, then advances the commitment oracle. Returns the new
// commitment root.
//
// Any failure after the backend batch is written and before the new root is
// recorded leaves the backend and the oracle inconsistent; the engine
// latches a halted state and returns ErrCommitIntegrity. [ctx] cancellation
// is honored before the batch write only.
func (s *State) CommitBlock(ctx context.Context) (ids.ID, error) {
	if s.halted.Get() {
		return ids.Empty, ErrHalted
	}
	if s.phase != phaseIdle {
		return ids.Empty, fmt.Errorf("%w: engine is %s", ErrTxInProgress, s.phase)
	}
	if err := ctx.Err(); err != nil {
		return ids.Empty, err
	}

	s.phase = phaseBlockCommitting
	defer func() {
		s.phase = phaseIdle
	}()

	newHeight := s.height + 1
	epoch := s.config.epochOf(newHeight)

	// The canonical block diff: each changed key once, canonical order,
	// tombstones carried as Nothing.
	diff := make([]merkle.ValueChange, 0, s.blockOverlay.len())
	batch := s.baseDB.NewBatch()
	var iterErr error
	s.blockOverlay.ascendPrefix(Key{}, func(key Key, entry maybe.Maybe[[]byte]) bool {
		encoded := key.Bytes()
		diff = append(diff, merkle.ValueChange{
			Key:   encoded,
			Value: entry,
		})
		if entry.IsNothing() {
			iterErr = batch.Delete(composeKey(statePrefix, encoded))
		} else {
			iterErr = batch.Put(composeKey(statePrefix, encoded), entry.Value())
		}
		return iterErr == nil
	})
	if iterErr != nil {
		return ids.Empty, iterErr
	}

	// Digests land in the same batch as the diff, so effects and replay
	// protection become visible together.
	for _, digest := range s.pendingDigests {
		if err := batch.Put(composeKey(replayPrefix, replayKey(epoch, digest)), nil); err != nil {
			return ids.Empty, err
		}
	}
	if err := batch.Put(composeKey(metaPrefix, heightKey), database.PackUInt64(newHeight)); err != nil {
		return ids.Empty, err
	}

	s.lock.Lock()
	err := batch.Write()
	s.lock.Unlock()
	if err != nil {
		// Nothing was persisted; the engine is still consistent at the old
		// height. The corruptable wrapper has latched the backend error.
		return ids.Empty, fmt.Errorf("couldn't write block %d: %w", newHeight, err)
	}

	// Point of no return: the backend is at [newHeight].
	root, err := s.tree.Apply(ctx, diff)
	if err != nil {
		return ids.Empty, s.halt(err, newHeight, "commitment oracle rejected block diff")
	}
	if err := database.PutID(s.metaDB, rootKey, root); err != nil {
		return ids.Empty, s.halt(err, newHeight, "couldn't record commitment root")
	}

	for _, digest := range s.pendingDigests {
		if err := s.replay.add(epoch, digest); err != nil {
			return ids.Empty, s.halt(err, newHeight, "couldn't track accepted digests")
		}
	}

	for _, change := range diff {
		s.cache.Evict(string(change.Key))
		s.metrics.cacheInvalidations.Inc()
	}

	s.snapLock.Lock()
	for snap := range s.snapshots {
		snap.invalidate()
	}
	clear(s.snapshots)
	s.snapLock.Unlock()

	numChanges := s.blockOverlay.len()
	numDigests := len(s.pendingDigests)
	s.blockOverlay = newOverlay()
	s.pendingDigests = s.pendingDigests[:0]
	s.pendingSet.Clear()
	s.height = newHeight
	s.root = root

	if s.config.epochOf(newHeight) != s.config.epochOf(newHeight-1) {
		s.pruneExpiredEpochs(epoch)
	}

	s.metrics.blocksCommitted.Inc()
	s.metrics.committedHeight.Set(float64(newHeight))
	s.metrics.replayDigestsLive.Set(float64(s.replay.numDigests))
	s.metrics.lastBlockDiffSize.Set(float64(numChanges))
	s.log.Debug("committed block",
		zap.Uint64("height", newHeight),
		zap.Stringer("root", root),
		zap.Int("numChanges", numChanges),
		zap.Int("numTxs", numDigests),
	)
	return root, nil
}

// halt latches the engine after a commit integrity violation.
func (s *State) halt(err error, height uint64, msg string) error {
	s.halted.Set(true)
	s.log.Fatal(msg,
		zap.Uint64("height", height),
		zap.Error(err),
	)
	return fmt.Errorf("%w at height %d: %w", ErrCommitIntegrity, height, err)
}

// pruneExpiredEpochs drops replay digests of epochs outside the protection
// window. The committed state is already consistent, so a pruning failure
// only delays reclamation.
func (s *State) pruneExpiredEpochs(currentEpoch uint64) {
	if currentEpoch <= s.config.ReplayWindowEpochs {
		return
	}
	cutoff := currentEpoch - s.config.ReplayWindowEpochs
	for {
		oldest, ok := s.replay.oldestEpoch()
		if !ok || oldest >= cutoff {
			return
		}
		numPruned, err := s.replay.prune(oldest)
		if err != nil {
			s.log.Warn("couldn't prune expired replay epoch",
				zap.Uint64("epoch", oldest),
				zap.Error(err),
			)
			return
		}
		s.log.Debug("pruned expired replay epoch",
			zap.Uint64("epoch", oldest),
			zap.Int("numDigests", numPruned),
		)
	}
}

// resolveCommitted reads [key]'s committed state through the read cache.
// Nothing means the key is known absent.
func (s *State) resolveCommitted(key Key) (maybe.Maybe[[]byte], error) {
	encoded := key.Bytes()
	if entry, ok := s.cache.Get(string(encoded)); ok {
		return entry, nil
	}

	value, err := s.stateDB.Get(encoded)
	var entry maybe.Maybe[[]byte]
	switch {
	case err == nil:
		entry = maybe.Some(value)
	case errors.Is(err, database.ErrNotFound):
		entry = maybe.Nothing[[]byte]()
	default:
		return maybe.Nothing[[]byte](), err
	}
	s.cache.Put(string(encoded), entry)
	return entry, nil
}

// resolveStaged reads [key] through the block overlay and the committed
// state. The transaction overlay, if any, is the caller's concern.
func (s *State) resolveStaged(key Key) (maybe.Maybe[[]byte], error) {
	if entry, ok := s.blockOverlay.get(key); ok {
		return entry, nil
	}
	return s.resolveCommitted(key)
}

// evict drops [key] from the read cache after a staged write, so stale
// committed state can't shadow the overlays.
func (s *State) evict(key Key) {
	s.cache.Evict(string(key.Bytes()))
}

// Proof returns a membership proof for [key] at [height] from the
// commitment oracle.
func (s *State) Proof(key Key, height uint64) (*merkle.Proof, error) {
	if s.halted.Get() {
		return nil, ErrHalted
	}
	return s.tree.Proof(key.Bytes(), height)
}

// Close releases the engine and its backend.
func (s *State) Close() error {
	s.snapLock.Lock()
	for snap := range s.snapshots {
		snap.invalidate()
	}
	clear(s.snapshots)
	s.snapLock.Unlock()
	s.cache.Flush()
	return s.baseDB.Close()
}

func composeKey(prefix, key []byte) []byte {
	composed := make([]byte, len(prefix)+len(key))
	copy(composed, prefix)
	copy(composed[len(prefix):], key)
	return composed
}
