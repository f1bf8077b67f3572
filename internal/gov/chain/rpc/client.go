// Package rpc adapts a btcd-style JSON-RPC node connection to the
// chain.Reader interface the listener consumes, observing every call the
// same way the teacher's ObservedClient wraps rpcclient.Client calls.
package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/blockvote/governance/internal/gov/chain"
	"github.com/blockvote/governance/internal/gov/model"
)

// Metrics observes a single RPC call's outcome and duration.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Client implements chain.Reader against a live node over JSON-RPC.
type Client struct {
	rpc     *rpcclient.Client
	metrics Metrics
	timeout time.Duration
}

// NewClient wraps an already-connected rpcclient.Client. timeout bounds
// every call issued through the returned Client; zero means no bound.
// rpcclient.Client's HTTP POST mode calls block on the underlying
// http.Client with no per-call deadline of its own (its ConnConfig has no
// timeout or custom-transport knob to set one at dial time), so the bound
// is enforced here by racing the blocking call against ctx/timeout instead.
func NewClient(rpc *rpcclient.Client, metrics Metrics, timeout time.Duration) *Client {
	return &Client{rpc: rpc, metrics: metrics, timeout: timeout}
}

func (c *Client) observe(operation string, started time.Time, err error) {
	if c.metrics != nil {
		c.metrics.Observe(operation, err, started)
	}
}

// call runs fn, bounded by ctx and c.timeout. A timeout abandons the
// underlying rpcclient call running in its goroutine (it has no way to be
// cancelled) and returns ctx's error to the caller immediately.
func (c *Client) call(ctx context.Context, fn func() error) error {
	if c.timeout <= 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Height returns the current chain tip height.
func (c *Client) Height(ctx context.Context) (height int32, err error) {
	started := time.Now()
	defer func() { c.observe("get_block_count", started, err) }()

	var count int64
	err = c.call(ctx, func() error {
		var callErr error
		count, callErr = c.rpc.GetBlockCount()
		return callErr
	})
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", err)
	}
	return int32(count), nil
}

// BlockHashAt returns the hash of the block at height.
func (c *Client) BlockHashAt(ctx context.Context, height int32) (hash chainhash.Hash, err error) {
	started := time.Now()
	defer func() { c.observe("get_block_hash", started, err) }()

	var h *chainhash.Hash
	err = c.call(ctx, func() error {
		var callErr error
		h, callErr = c.rpc.GetBlockHash(int64(height))
		return callErr
	})
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("get block hash at %d: %w", height, err)
	}
	return *h, nil
}

// ReadBlock reads a full block, with verbose transaction data, and
// translates it into the listener's minimal chain.Block shape.
func (c *Client) ReadBlock(ctx context.Context, hash chainhash.Hash) (block *chain.Block, err error) {
	started := time.Now()
	defer func() { c.observe("get_block_verbose_tx", started, err) }()

	h := hash
	var res *btcjson.GetBlockVerboseTxResult
	err = c.call(ctx, func() error {
		var callErr error
		res, callErr = c.rpc.GetBlockVerboseTx(&h)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("get block verbose tx %s: %w", hash, err)
	}
	return convertBlock(res)
}

// GetCoin looks up a utxo's current value and owning key-id via gettxout.
// ok=false (with a nil error) means the outpoint does not exist, i.e. it
// is spent — gettxout only ever reports unspent outputs.
func (c *Client) GetCoin(ctx context.Context, outpoint model.Outpoint) (coin chain.Coin, ok bool, err error) {
	started := time.Now()
	defer func() { c.observe("get_tx_out", started, err) }()

	var res *btcjson.GetTxOutResult
	err = c.call(ctx, func() error {
		var callErr error
		res, callErr = c.rpc.GetTxOut(&outpoint.Hash, outpoint.Index, true)
		return callErr
	})
	if err != nil {
		return chain.Coin{}, false, fmt.Errorf("get tx out %s: %w", outpoint, err)
	}
	if res == nil {
		return chain.Coin{}, false, nil
	}

	amount, err := amountToSatoshis(res.Value)
	if err != nil {
		return chain.Coin{}, false, fmt.Errorf("parse tx out value: %w", err)
	}

	scriptBytes, err := hex.DecodeString(res.ScriptPubKey.Hex)
	if err != nil {
		return chain.Coin{}, false, fmt.Errorf("decode scriptPubKey hex: %w", err)
	}
	keyID, ok := keyIDFromScript(scriptBytes)
	if !ok {
		return chain.Coin{}, false, fmt.Errorf("scriptPubKey at %s is not a key-hash script", outpoint)
	}

	return chain.Coin{Amount: amount, KeyID: keyID}, true, nil
}

func convertBlock(res *btcjson.GetBlockVerboseTxResult) (*chain.Block, error) {
	hash, err := chainhash.NewHashFromStr(res.Hash)
	if err != nil {
		return nil, fmt.Errorf("parse block hash: %w", err)
	}

	block := &chain.Block{
		Hash:   *hash,
		Height: int32(res.Height),
		Time:   res.Time,
		Txs:    make([]chain.Tx, 0, len(res.Tx)),
	}

	for _, rawTx := range res.Tx {
		txid, err := chainhash.NewHashFromStr(rawTx.Txid)
		if err != nil {
			return nil, fmt.Errorf("parse txid %s: %w", rawTx.Txid, err)
		}

		tx := chain.Tx{Txid: *txid}
		for _, vin := range rawTx.Vin {
			if vin.Coinbase != "" {
				tx.Coinbase = true
				continue
			}
			prevHash, err := chainhash.NewHashFromStr(vin.Txid)
			if err != nil {
				return nil, fmt.Errorf("parse vin txid %s: %w", vin.Txid, err)
			}
			sigBytes, err := hex.DecodeString(vin.ScriptSig.Hex)
			if err != nil {
				return nil, fmt.Errorf("decode scriptSig hex: %w", err)
			}
			tx.Vin = append(tx.Vin, chain.TxIn{
				PrevOut:   model.Outpoint{Hash: *prevHash, Index: vin.Vout},
				ScriptSig: sigBytes,
			})
		}
		for _, vout := range rawTx.Vout {
			scriptBytes, err := hex.DecodeString(vout.ScriptPubKey.Hex)
			if err != nil {
				return nil, fmt.Errorf("decode scriptPubKey hex: %w", err)
			}
			value, err := amountToSatoshis(vout.Value)
			if err != nil {
				return nil, fmt.Errorf("parse vout value: %w", err)
			}
			tx.Vout = append(tx.Vout, chain.TxOut{
				Index:  vout.N,
				Value:  value,
				Script: scriptBytes,
			})
		}
		block.Txs = append(block.Txs, tx)
	}

	return block, nil
}

func amountToSatoshis(btc float64) (int64, error) {
	amt, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0, fmt.Errorf("convert amount: %w", err)
	}
	return int64(amt), nil
}

// keyIDFromScript extracts a pay-to-pubkey-hash key-id from script, the
// same shape a voting utxo's scriptPubKey must have.
func keyIDFromScript(script []byte) ([20]byte, bool) {
	var keyID [20]byte
	// A standard P2PKH script is OP_DUP OP_HASH160 <20-byte push>
	// OP_EQUALVERIFY OP_CHECKSIG (25 bytes).
	const p2pkhLen = 25
	if len(script) != p2pkhLen {
		return keyID, false
	}
	if script[0] != 0x76 || script[1] != 0xa9 || script[2] != 0x14 {
		return keyID, false
	}
	copy(keyID[:], script[3:23])
	return keyID, true
}
