// Package chain listens for connected/disconnected blocks, extracts
// governance records, validates them, and keeps the state store in sync
// with the chain tip (spec §4.4).
package chain

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/model"
)

// Tx is the subset of a transaction's shape the listener needs: its
// inputs' previous outpoints and scriptSigs, and its outputs' scripts and
// values.
type Tx struct {
	Txid     chainhash.Hash
	Coinbase bool
	Vin      []TxIn
	Vout     []TxOut
}

// TxIn is a transaction input.
type TxIn struct {
	PrevOut   model.Outpoint
	ScriptSig []byte
}

// TxOut is a transaction output.
type TxOut struct {
	Index  uint32
	Value  int64
	Script []byte
}

// Block is the subset of a block's shape the listener needs.
type Block struct {
	Hash   chainhash.Hash
	Height int32
	Time   int64
	Txs    []Tx
}

// Coin is a utxo's value and owning key-id as seen by the chain view.
type Coin struct {
	Amount int64
	KeyID  [20]byte
}

// Reader is the chain interface this engine consumes (spec §6). It is
// implemented by chain/rpc.Client against a live node, and by a
// hand-written fake in tests.
type Reader interface {
	Height(ctx context.Context) (int32, error)
	BlockHashAt(ctx context.Context, height int32) (chainhash.Hash, error)
	ReadBlock(ctx context.Context, hash chainhash.Hash) (*Block, error)
	// GetCoin returns the coin at outpoint, or ok=false if it does not
	// exist (never existed or already spent).
	GetCoin(ctx context.Context, outpoint model.Outpoint) (coin Coin, ok bool, err error)
}
