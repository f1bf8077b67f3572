// Package walletrpc adapts a btcd-style JSON-RPC wallet connection to the
// planner.Wallet interface, the same observed-call pattern chain/rpc.Client
// uses for the chain.Reader side.
package walletrpc

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/planner"
)

// Metrics observes a single wallet RPC call's outcome and duration.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Adapter implements planner.Wallet against a live wallet over JSON-RPC.
type Adapter struct {
	name        string
	rpc         *rpcclient.Client
	chainParams *chaincfg.Params
	metrics     Metrics
}

// New wraps an already-connected rpcclient.Client pointed at a wallet.
func New(name string, rpc *rpcclient.Client, chainParams *chaincfg.Params, metrics Metrics) *Adapter {
	return &Adapter{name: name, rpc: rpc, chainParams: chainParams, metrics: metrics}
}

func (a *Adapter) observe(operation string, started time.Time, err error) {
	if a.metrics != nil {
		a.metrics.Observe(operation, err, started)
	}
}

// Name returns the wallet's configured name.
func (a *Adapter) Name() string { return a.name }

// IsLocked reports whether the wallet requires unlocking before signing.
func (a *Adapter) IsLocked(ctx context.Context) (locked bool, err error) {
	started := time.Now()
	defer func() { a.observe("get_wallet_info", started, err) }()

	info, err := a.rpc.GetWalletInfo()
	if err != nil {
		return false, fmt.Errorf("get wallet info: %w", err)
	}
	return info.UnlockedUntil != nil && *info.UnlockedUntil == 0, nil
}

// Balance returns the wallet's total spendable balance.
func (a *Adapter) Balance(ctx context.Context) (amount int64, err error) {
	started := time.Now()
	defer func() { a.observe("get_balance", started, err) }()

	bal, err := a.rpc.GetBalance("*")
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return int64(bal), nil
}

// AvailableCoins lists the wallet's spendable, confirmed coins.
func (a *Adapter) AvailableCoins(ctx context.Context) (coins []planner.Coin, err error) {
	started := time.Now()
	defer func() { a.observe("list_unspent", started, err) }()

	unspent, err := a.rpc.ListUnspent()
	if err != nil {
		return nil, fmt.Errorf("list unspent: %w", err)
	}

	coins = make([]planner.Coin, 0, len(unspent))
	for _, u := range unspent {
		if !u.Spendable {
			continue
		}
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("parse unspent txid %s: %w", u.TxID, err)
		}
		amount, err := btcutil.NewAmount(u.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse unspent amount: %w", err)
		}
		keyID, err := addressKeyID(u.Address, a.chainParams)
		if err != nil {
			continue
		}
		coins = append(coins, planner.Coin{
			Outpoint: model.Outpoint{Hash: *hash, Index: u.Vout},
			Amount:   int64(amount),
			Address:  u.Address,
			KeyID:    keyID,
		})
	}
	return coins, nil
}

// KeyFor returns the private key controlling address.
func (a *Adapter) KeyFor(ctx context.Context, address string) (priv *btcec.PrivateKey, err error) {
	started := time.Now()
	defer func() { a.observe("dump_priv_key", started, err) }()

	addr, err := btcutil.DecodeAddress(address, a.chainParams)
	if err != nil {
		return nil, fmt.Errorf("decode address %s: %w", address, err)
	}
	wif, err := a.rpc.DumpPrivKey(addr)
	if err != nil {
		return nil, fmt.Errorf("dump priv key for %s: %w", address, err)
	}
	return wif.PrivKey, nil
}

// EstimateFee returns the fee the wallet's configured fee rate would
// charge a transaction with the given input/output count.
func (a *Adapter) EstimateFee(ctx context.Context, numInputs, numOutputs int) (fee int64, err error) {
	started := time.Now()
	defer func() { a.observe("estimate_smart_fee", started, err) }()

	est, err := a.rpc.EstimateSmartFee(6, nil)
	if err != nil || est.FeeRate == nil {
		// a conservative flat fallback keeps the planner usable against a
		// node with no recent fee history, matching the reference's
		// "use the wallet's configured minimum relay fee" fallback.
		return int64(250 * (numInputs + numOutputs)), nil
	}
	perKB, convErr := btcutil.NewAmount(*est.FeeRate)
	if convErr != nil {
		return int64(250 * (numInputs + numOutputs)), nil
	}
	estimatedSize := int64(150*numInputs + 40*numOutputs)
	return int64(perKB) * estimatedSize / 1000, nil
}

// CreateTransaction builds an unsigned transaction spending tx.Inputs to
// tx.Outputs.
func (a *Adapter) CreateTransaction(ctx context.Context, tx planner.UnsignedTx) (raw []byte, err error) {
	started := time.Now()
	defer func() { a.observe("create_raw_transaction", started, err) }()

	msgTx := wire.NewMsgTx(wire.TxVersion)
	for _, in := range tx.Inputs {
		msgTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: in.Hash, Index: in.Index}, nil, nil))
	}
	for _, out := range tx.Outputs {
		script := out.Script
		if script == nil {
			addr, err := btcutil.DecodeAddress(out.Address, a.chainParams)
			if err != nil {
				return nil, fmt.Errorf("decode output address %s: %w", out.Address, err)
			}
			script, err = txscript.PayToAddrScript(addr)
			if err != nil {
				return nil, fmt.Errorf("build output script for %s: %w", out.Address, err)
			}
		}
		msgTx.AddTxOut(wire.NewTxOut(out.Value, script))
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	return buf.Bytes(), nil
}

// CommitTransaction signs and broadcasts raw via the wallet's own signing
// context (so it is the wallet, not this adapter, that must be unlocked).
func (a *Adapter) CommitTransaction(ctx context.Context, raw []byte) (txid chainhash.Hash, err error) {
	started := time.Now()
	defer func() { a.observe("sign_and_send_raw_transaction", started, err) }()

	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		return chainhash.Hash{}, fmt.Errorf("deserialize transaction: %w", err)
	}

	signed, isSigned, err := a.rpc.SignRawTransactionWithWallet(msgTx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("sign raw transaction: %w", err)
	}
	if !isSigned {
		return chainhash.Hash{}, fmt.Errorf("wallet could not fully sign transaction")
	}

	hash, err := a.rpc.SendRawTransaction(signed, false)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("send raw transaction: %w", err)
	}
	return *hash, nil
}

// addressKeyID decodes address and returns the pubkey-hash identifying its
// owning key, failing for anything other than a standard p2pkh address.
func addressKeyID(address string, chainParams *chaincfg.Params) ([20]byte, error) {
	var keyID [20]byte
	addr, err := btcutil.DecodeAddress(address, chainParams)
	if err != nil {
		return keyID, err
	}
	pkh, ok := addr.(*btcutil.AddressPubKeyHash)
	if !ok {
		return keyID, fmt.Errorf("address %s is not pay-to-pubkey-hash", address)
	}
	copy(keyID[:], pkh.Hash160()[:])
	return keyID, nil
}
