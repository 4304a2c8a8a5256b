// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain provides the chain-level primitives the block
// producer relies on: merkle and witness commitment computation, weight
// and signature operation accounting, transaction finality, difficulty
// encoding, and the adjusted median time source.
package blockchain
