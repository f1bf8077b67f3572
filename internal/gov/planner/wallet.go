// Package planner implements the vote-submission transaction planner (spec
// §4.6): given proposal/choice pairs and a wallet, it selects utxos, signs
// vote records, and hands finished transactions to the wallet to broadcast.
package planner

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/model"
)

// Coin is a spendable output the wallet reports as available, together
// with the destination address that owns it.
type Coin struct {
	Outpoint model.Outpoint
	Amount   int64
	Address  string
	KeyID    [20]byte
}

// TxOutput is one output of a transaction the planner asks the wallet to
// build: either a governance record (Script set, Value 0) or a change
// payment back to Address.
type TxOutput struct {
	Script  []byte
	Value   int64
	Address string
}

// UnsignedTx is everything the wallet needs to build, sign, and broadcast
// a planner-constructed transaction.
type UnsignedTx struct {
	Inputs  []model.Outpoint
	Outputs []TxOutput
}

// Wallet is the external collaborator spec §6 names: "list wallets, lock
// wallet/chain, is_locked(), balance(), available_coins(), key_for_
// destination(), get_key(), create_transaction(), commit_transaction()".
// One Wallet value corresponds to one of the source's plural "wallets";
// the planner is handed a slice of them.
type Wallet interface {
	// Name identifies the wallet for error messages and logging.
	Name() string
	// IsLocked reports whether the wallet requires unlocking before its
	// keys are usable.
	IsLocked(ctx context.Context) (bool, error)
	// Balance returns the wallet's total spendable balance.
	Balance(ctx context.Context) (int64, error)
	// AvailableCoins lists the wallet's spendable, confirmed coins.
	AvailableCoins(ctx context.Context) ([]Coin, error)
	// KeyFor returns the private key controlling address, for signing a
	// vote originating from one of its utxos.
	KeyFor(ctx context.Context, address string) (*btcec.PrivateKey, error)
	// EstimateFee returns the fee this wallet would pay for a transaction
	// with the given number of inputs and outputs.
	EstimateFee(ctx context.Context, numInputs, numOutputs int) (int64, error)
	// CreateTransaction builds (but does not sign or broadcast) a
	// transaction spending inputs to outputs.
	CreateTransaction(ctx context.Context, tx UnsignedTx) ([]byte, error)
	// CommitTransaction signs and broadcasts a transaction previously
	// returned by CreateTransaction, returning its txid.
	CommitTransaction(ctx context.Context, rawTx []byte) (chainhash.Hash, error)
}
