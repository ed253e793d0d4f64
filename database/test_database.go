// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tests is a list of all database tests
var Tests = map[string]func(t *testing.T, db Database){
	"SimpleKeyValue":           TestSimpleKeyValue,
	"KeyEmptyValue":            TestKeyEmptyValue,
	"SimpleKeyValueClosed":     TestSimpleKeyValueClosed,
	"BatchPut":                 TestBatchPut,
	"BatchDelete":              TestBatchDelete,
	"BatchReset":               TestBatchReset,
	"BatchReplay":              TestBatchReplay,
	"Iterator":                 TestIterator,
	"IteratorStart":            TestIteratorStart,
	"IteratorPrefix":           TestIteratorPrefix,
	"IteratorStartPrefix":      TestIteratorStartPrefix,
	"IteratorClosed":           TestIteratorClosed,
	"IteratorMemorySafety":     TestIteratorMemorySafety,
	"MemorySafetyDatabase":     TestMemorySafetyDatabase,
	"AtomicClearPrefix":        TestAtomicClearPrefix,
	"ModifyValueAfterPut":      TestModifyValueAfterPut,
	"ModifyValueAfterBatchPut": TestModifyValueAfterBatchPut,
}

// TestSimpleKeyValue tests to make sure that simple Put + Get + Delete + Has
// calls return the expected values.
func TestSimpleKeyValue(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(ErrNotFound, err)

	require.NoError(db.Delete(key))
	require.NoError(db.Put(key, value))

	has, err = db.Has(key)
	require.NoError(err)
	require.True(has)

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)

	require.NoError(db.Delete(key))

	has, err = db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(ErrNotFound, err)

	require.NoError(db.Delete(key))
}

func TestKeyEmptyValue(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")

	_, err := db.Get(key)
	require.Equal(ErrNotFound, err)

	require.NoError(db.Put(key, nil))

	value, err := db.Get(key)
	require.NoError(err)
	require.Empty(value)
}

// TestSimpleKeyValueClosed tests to make sure that Put + Get + Delete + Has
// calls return the correct error when the database has been closed.
func TestSimpleKeyValueClosed(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))
	require.NoError(db.Close())

	_, err := db.Has(key)
	require.Equal(ErrClosed, err)

	_, err = db.Get(key)
	require.Equal(ErrClosed, err)

	require.Equal(ErrClosed, db.Put(key, value))
	require.Equal(ErrClosed, db.Delete(key))
	require.Equal(ErrClosed, db.Close())
}

// TestMemorySafetyDatabase ensures it is safe to modify a key after passing it
// to Database.Put and Database.Get.
func TestMemorySafetyDatabase(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("key")
	value := []byte("value")
	keyCopy := slices.Clone(key)

	require.NoError(db.Put(key, value))

	// Modify the key
	key[0] = 'j'

	gotVal, err := db.Get(keyCopy)
	require.NoError(err)
	require.Equal(value, gotVal)
}

func TestBatchPut(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	batch := db.NewBatch()
	require.NotNil(batch)

	require.NoError(batch.Put(key, value))
	require.LessOrEqual(len(key)+len(value), batch.Size())
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.True(has)

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)
}

func TestBatchDelete(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))

	batch := db.NewBatch()
	require.NoError(batch.Delete(key))
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(ErrNotFound, err)
}

func TestBatchReset(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))

	batch := db.NewBatch()
	require.NoError(batch.Delete(key))
	batch.Reset()
	require.Zero(batch.Size())
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.True(has)
}

func TestBatchReplay(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")
	key2 := []byte("hello2")
	value2 := []byte("world2")

	batch := db.NewBatch()
	require.NoError(batch.Put(key1, value1))
	require.NoError(batch.Put(key2, value2))
	require.NoError(batch.Delete(key1))

	secondBatch := db.NewBatch()
	require.NoError(batch.Replay(secondBatch))
	require.NoError(secondBatch.Write())

	_, err := db.Get(key1)
	require.Equal(ErrNotFound, err)

	v, err := db.Get(key2)
	require.NoError(err)
	require.Equal(value2, v)
}

// TestModifyValueAfterPut tests to make sure that a value can be modified
// after calling Put without changing the stored value.
func TestModifyValueAfterPut(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte{1}
	value := []byte{1, 2}
	originalValue := slices.Clone(value)

	require.NoError(db.Put(key, value))

	// Modify the value that was Put into the database
	value[0] = 2

	retrievedValue, err := db.Get(key)
	require.NoError(err)
	require.Equal(originalValue, retrievedValue)
}

// TestModifyValueAfterBatchPut tests to make sure that a value can be modified
// after calling Batch.Put without changing the written value.
func TestModifyValueAfterBatchPut(t *testing.T, db Database) {
	require := require.New(t)

	key := []byte{1}
	value := []byte{1, 2}
	originalValue := slices.Clone(value)

	batch := db.NewBatch()
	require.NoError(batch.Put(key, value))

	value[0] = 2

	require.NoError(batch.Write())

	retrievedValue, err := db.Get(key)
	require.NoError(err)
	require.Equal(originalValue, retrievedValue)
}

func TestIterator(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")
	key2 := []byte("hello2")
	value2 := []byte("world2")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Put(key2, value2))

	iterator := db.NewIterator()
	require.NotNil(iterator)
	defer iterator.Release()

	require.True(iterator.Next())
	require.Equal(key1, iterator.Key())
	require.Equal(value1, iterator.Value())

	require.True(iterator.Next())
	require.Equal(key2, iterator.Key())
	require.Equal(value2, iterator.Value())

	require.False(iterator.Next())
	require.Nil(iterator.Key())
	require.Nil(iterator.Value())
	require.NoError(iterator.Error())
}

func TestIteratorStart(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")
	key2 := []byte("hello2")
	value2 := []byte("world2")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Put(key2, value2))

	iterator := db.NewIteratorWithStart(key2)
	require.NotNil(iterator)
	defer iterator.Release()

	require.True(iterator.Next())
	require.Equal(key2, iterator.Key())
	require.Equal(value2, iterator.Value())

	require.False(iterator.Next())
	require.NoError(iterator.Error())
}

func TestIteratorPrefix(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello")
	value1 := []byte("world1")
	key2 := []byte("goodbye")
	value2 := []byte("world2")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Put(key2, value2))

	iterator := db.NewIteratorWithPrefix([]byte("h"))
	require.NotNil(iterator)
	defer iterator.Release()

	require.True(iterator.Next())
	require.Equal(key1, iterator.Key())
	require.Equal(value1, iterator.Value())

	require.False(iterator.Next())
	require.NoError(iterator.Error())
}

func TestIteratorStartPrefix(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")
	key2 := []byte("z")
	value2 := []byte("world2")
	key3 := []byte("hello3")
	value3 := []byte("world3")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Put(key2, value2))
	require.NoError(db.Put(key3, value3))

	iterator := db.NewIteratorWithStartAndPrefix(key1, []byte("h"))
	require.NotNil(iterator)
	defer iterator.Release()

	require.True(iterator.Next())
	require.Equal(key1, iterator.Key())
	require.Equal(value1, iterator.Value())

	require.True(iterator.Next())
	require.Equal(key3, iterator.Key())
	require.Equal(value3, iterator.Value())

	require.False(iterator.Next())
	require.NoError(iterator.Error())
}

// TestIteratorMemorySafety tests to make sure that keys and values can be
// modified from a released iterator.
func TestIteratorMemorySafety(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")
	key2 := []byte("hello2")
	value2 := []byte("world2")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Put(key2, value2))

	iterator := db.NewIterator()
	require.NotNil(iterator)
	defer iterator.Release()

	keys := [][]byte{}
	values := [][]byte{}
	for iterator.Next() {
		keys = append(keys, iterator.Key())
		values = append(values, iterator.Value())
	}
	require.NoError(iterator.Error())

	expectedKeys := [][]byte{key1, key2}
	expectedValues := [][]byte{value1, value2}

	for i, key := range keys {
		require.Equal(expectedKeys[i], key)
		require.Equal(expectedValues[i], values[i])
	}
}

func TestIteratorClosed(t *testing.T, db Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")

	require.NoError(db.Put(key1, value1))
	require.NoError(db.Close())

	iterator := db.NewIterator()
	require.NotNil(iterator)
	defer iterator.Release()

	require.False(iterator.Next())
	require.Nil(iterator.Key())
	require.Nil(iterator.Value())
	require.Equal(ErrClosed, iterator.Error())
}

func TestAtomicClearPrefix(t *testing.T, db Database) {
	require := require.New(t)

	fooKey := []byte("hello")
	fooValue := []byte("world")
	barKey := []byte("silent")
	barValue := []byte("night")

	require.NoError(db.Put(fooKey, fooValue))
	require.NoError(db.Put(barKey, barValue))

	numDeleted, err := AtomicClearPrefix(db, db, fooKey)
	require.NoError(err)
	require.Equal(1, numDeleted)

	has, err := db.Has(fooKey)
	require.NoError(err)
	require.False(has)

	has, err = db.Has(barKey)
	require.NoError(err)
	require.True(has)
}
