// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mining houses block template generation for the hybrid proof of
work / proof of stake chain.

Templates are assembled by selecting transaction packages from a source in
ancestor fee rate order, with contract transactions speculatively executed
against the global contract state and rolled back when they do not fit the
block's weight, signature operation, or gas budgets.  The reward
transaction is continuously rebuilt so the subsidy output and the contract
gas refunds stay consistent with the selected set.
*/
package mining
