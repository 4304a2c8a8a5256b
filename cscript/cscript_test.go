// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cscript

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// createScript builds an OP_CREATE output script with the given gas
// parameters and bytecode.
func createScript(t *testing.T, gasLimit, gasPrice int64,
	data []byte) []byte {

	script, err := txscript.NewScriptBuilder().
		AddInt64(4).
		AddInt64(gasLimit).
		AddInt64(gasPrice).
		AddData(data).
		AddOp(OpCreate).
		Script()
	require.NoError(t, err)
	return script
}

// callScript builds an OP_CALL output script against the given receiver.
func callScript(t *testing.T, gasLimit, gasPrice int64, data,
	receiver []byte) []byte {

	script, err := txscript.NewScriptBuilder().
		AddInt64(4).
		AddInt64(gasLimit).
		AddInt64(gasPrice).
		AddData(data).
		AddData(receiver).
		AddOp(OpCall).
		Script()
	require.NoError(t, err)
	return script
}

func TestParseContractOutputCreate(t *testing.T) {
	data := []byte{0x60, 0x60, 0x60, 0x40}
	script := createScript(t, 250000, 40, data)

	out, err := ParseContractOutput(script)
	require.NoError(t, err)
	require.True(t, out.IsCreate)
	require.Equal(t, uint32(4), out.VMVersion)
	require.Equal(t, uint64(250000), out.GasLimit)
	require.Equal(t, uint64(40), out.GasPrice)
	require.Equal(t, data, out.Data)
	require.Nil(t, out.Receiver)
}

func TestParseContractOutputCall(t *testing.T) {
	receiver := bytes.Repeat([]byte{0xab}, ContractAddrSize)
	script := callScript(t, 100000, 45, []byte{0x01, 0x02}, receiver)

	out, err := ParseContractOutput(script)
	require.NoError(t, err)
	require.False(t, out.IsCreate)
	require.Equal(t, receiver, out.Receiver)
	require.Equal(t, uint64(45), out.GasPrice)
}

func TestParseContractOutputRejectsPlainScript(t *testing.T) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(bytes.Repeat([]byte{0x01}, 20)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)

	_, err = ParseContractOutput(script)
	require.ErrorIs(t, err, ErrNotContractScript)
}

func TestParseContractOutputRejectsShortReceiver(t *testing.T) {
	script := callScript(t, 100000, 45, []byte{0x01}, []byte{0xab, 0xcd})

	_, err := ParseContractOutput(script)
	require.ErrorIs(t, err, ErrMalformedContractScript)
}

func TestTxHasOpCreateOrCall(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: []byte{txscript.OP_TRUE}})
	require.False(t, TxHasOpCreateOrCall(tx))

	tx.AddTxOut(&wire.TxOut{
		Value:    0,
		PkScript: createScript(t, 100000, 40, []byte{0x00}),
	})
	require.True(t, TxHasOpCreateOrCall(tx))
}

func TestTxMinGasPrice(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(&wire.TxOut{
		PkScript: createScript(t, 100000, 55, []byte{0x00}),
	})
	tx.AddTxOut(&wire.TxOut{
		PkScript: callScript(t, 100000, 41, []byte{0x00},
			bytes.Repeat([]byte{0x02}, ContractAddrSize)),
	})

	minPrice, err := TxMinGasPrice(tx)
	require.NoError(t, err)
	require.Equal(t, uint64(41), minPrice)
}

func TestTxMinGasPriceZeroPrice(t *testing.T) {
	// A free output must win over a priced one; zero is a real price,
	// not an unset marker.
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(&wire.TxOut{
		PkScript: createScript(t, 100000, 0, []byte{0x00}),
	})
	tx.AddTxOut(&wire.TxOut{
		PkScript: callScript(t, 100000, 5, []byte{0x00},
			bytes.Repeat([]byte{0x03}, ContractAddrSize)),
	})

	minPrice, err := TxMinGasPrice(tx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), minPrice)
}
