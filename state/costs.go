// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

// Gas costs charged by the write log. Costs are proportional to the number
// of key and value bytes an operation touches.
const (
	readBaseCost  uint64 = 100
	writeBaseCost uint64 = 200
	hasBaseCost   uint64 = 50
	scanBaseCost  uint64 = 100

	readByteCost  uint64 = 1
	writeByteCost uint64 = 5
)

func readCost(keyLen, valueLen int) uint64 {
	return readBaseCost + readByteCost*uint64(keyLen+valueLen)
}

func writeCost(keyLen, valueLen int) uint64 {
	return writeBaseCost + writeByteCost*uint64(keyLen+valueLen)
}

func hasCost(keyLen int) uint64 {
	return hasBaseCost + readByteCost*uint64(keyLen)
}

func scanCost(keyLen, valueLen int) uint64 {
	return scanBaseCost + readByteCost*uint64(keyLen+valueLen)
}
