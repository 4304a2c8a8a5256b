// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool provides a pool of unconfirmed
// transactions that doubles as the mining transaction source.  Every entry
// carries cached ancestor aggregates (size, modified fees, signature
// operations, count) maintained across insertions, removals, and fee
// prioritisation, so the block producer can rank packages by ancestor fee
// rate without walking the graph per query.
package mempool
