// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// ledgerdb inspects a store offline: it prints the committed height and
// root, recomputes the commitment from the persisted state to check the two
// agree, and optionally scans a prefix or proves a key.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/ledgerdb/database/leveldb"
	"github.com/ava-labs/ledgerdb/database/meterdb"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/merkle"
	"github.com/ava-labs/ledgerdb/state"
	"github.com/ava-labs/ledgerdb/utils/logging"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerdb: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	v, err := getViper(args)
	if err != nil {
		return err
	}
	config, err := configFromViper(v)
	if err != nil {
		return err
	}

	logLevel, err := logging.ToLevel(v.GetString(logLevelKey))
	if err != nil {
		return err
	}
	log := logging.NewDefaultLogger("ledgerdb", logLevel)

	dataDir := v.GetString(dataDirKey)
	if dataDir == "" {
		return errors.New("--data-dir is required")
	}

	reg := prometheus.NewRegistry()
	ldb, err := leveldb.New(dataDir, log)
	if err != nil {
		return fmt.Errorf("couldn't open store at %q: %w", dataDir, err)
	}
	db, err := meterdb.New("leveldb", reg, ldb)
	if err != nil {
		_ = ldb.Close()
		return err
	}

	tree := merkle.NewInMemory()
	s, err := state.New(db, tree, config, log, "ledgerdb", reg)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Error("couldn't close store", zap.Error(err))
		}
	}()

	fmt.Printf("height: %d\n", s.Height())
	fmt.Printf("root:   %s\n", s.Root())

	rebuiltRoot, numKeys, err := rebuildCommitment(s, tree)
	if err != nil {
		return err
	}
	fmt.Printf("keys:   %d\n", numKeys)
	if s.Height() == 0 {
		fmt.Println("store is empty")
	} else if rebuiltRoot == s.Root() {
		fmt.Println("commitment: consistent with persisted state")
	} else {
		fmt.Printf("commitment: MISMATCH, state recomputes to %s\n", rebuiltRoot)
	}

	if prefix := v.GetString(scanPrefixKey); prefix != "" {
		if err := scan(s, prefix); err != nil {
			return err
		}
	}
	if key := v.GetString(proofKey); key != "" {
		if err := prove(s, tree, rebuiltRoot, key); err != nil {
			return err
		}
	}
	return nil
}

// rebuildCommitment replays the whole committed keyspace into [tree] and
// returns the resulting root. A consistent store recomputes to its persisted
// root: the commitment is a pure function of the leaf set.
func rebuildCommitment(s *state.State, tree merkle.Tree) (root ids.ID, numKeys int, err error) {
	m, err := s.NewMigrator()
	if err != nil {
		return root, 0, err
	}
	defer m.Abort()

	var diff []merkle.ValueChange
	it := m.Iterate()
	defer it.Release()
	for it.Next() {
		diff = append(diff, merkle.ValueChange{
			Key:   it.Key().Bytes(),
			Value: maybe.Some(it.Value()),
		})
		numKeys++
	}
	if err := it.Error(); err != nil {
		return root, numKeys, err
	}

	root, err = tree.Apply(context.Background(), diff)
	return root, numKeys, err
}

func scan(s *state.State, prefix string) error {
	key, err := state.ParseKey(prefix)
	if err != nil {
		return err
	}

	snap, err := s.NewSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	it := snap.NewIteratorWithPrefix(key)
	defer it.Release()
	for it.Next() {
		fmt.Printf("%s = 0x%x\n", it.Key(), it.Value())
	}
	return it.Error()
}

func prove(s *state.State, tree merkle.Tree, root ids.ID, keyStr string) error {
	key, err := state.ParseKey(keyStr)
	if err != nil {
		return err
	}

	snap, err := s.NewSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	value, err := snap.Get(key)
	if err != nil {
		return err
	}

	_, height := tree.Root()
	proof, err := tree.Proof(key.Bytes(), height)
	if err != nil {
		return err
	}
	fmt.Printf("proof for %s: leaf %d of %d, %d siblings, valid=%t\n",
		key, proof.Index, proof.NumLeaves, len(proof.Siblings), proof.Verify(value, root))
	return nil
}
