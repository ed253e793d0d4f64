// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import "crypto/rand"

// GenerateTestID returns a new ID that should only be used for testing
func GenerateTestID() ID {
	var id ID
	_, _ = rand.Read(id[:])
	return id
}
