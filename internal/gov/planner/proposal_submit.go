package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/validator"
)

// SubmitProposal builds, signs, and broadcasts a single transaction that
// carries proposal's serialized OP_RETURN payload and pays the configured
// proposalFee to proposalAddress, the supplemented "submitProposal"
// feature of governance.h not covered by vote casting. proposal.Hash must
// already be filled in (codec.ProposalHash).
func (p *Planner) SubmitProposal(ctx context.Context, w Wallet, proposal model.Proposal, proposalAddress string) (chainhash.Hash, error) {
	started := time.Now()
	txid, err := p.submitProposal(ctx, w, proposal, proposalAddress)
	p.metrics.ObserveSubmitProposal(err, started)
	return txid, err
}

func (p *Planner) submitProposal(ctx context.Context, w Wallet, proposal model.Proposal, proposalAddress string) (chainhash.Hash, error) {
	if _, err := btcutil.DecodeAddress(proposalAddress, p.chainParams); err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: proposal address %q: %v", ErrInvalidProposal, proposalAddress, err)
	}

	encoded, err := codec.EncodeProposal(proposal)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("encode proposal: %w", err)
	}
	if err := validator.ProposalIsValid(proposal, p.params, p.chainParams, len(encoded)); err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	script, err := codec.BuildOpReturnScript(encoded)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("build op_return script: %w", err)
	}

	locked, err := w.IsLocked(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("check wallet %s locked: %w", w.Name(), err)
	}
	if locked {
		return chainhash.Hash{}, fmt.Errorf("%w: %s", ErrWalletLocked, w.Name())
	}

	coins, err := w.AvailableCoins(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("available coins of wallet %s: %w", w.Name(), err)
	}
	fee, err := w.EstimateFee(ctx, 1, 2)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("estimate fee: %w", err)
	}

	funding, ok := pickFundingCoin(coins, p.params.ProposalFee+fee)
	if !ok {
		return chainhash.Hash{}, ErrInsufficientFunds
	}

	unsigned := UnsignedTx{
		Inputs: []model.Outpoint{funding.Outpoint},
		Outputs: []TxOutput{
			{Script: script, Value: 0},
			{Address: proposalAddress, Value: p.params.ProposalFee},
			{Address: funding.Address, Value: funding.Amount - p.params.ProposalFee - fee},
		},
	}

	raw, err := w.CreateTransaction(ctx, unsigned)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("create transaction: %w", err)
	}
	txid, err := w.CommitTransaction(ctx, raw)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("commit transaction: %w", err)
	}
	return txid, nil
}

// pickFundingCoin picks the smallest available coin worth at least amount
// (submitProposal passes the proposal fee plus the estimated transaction
// fee), the same "pick smallest sufficient utxo"
// shape the vote planner uses for its per-address input coin.
func pickFundingCoin(coins []Coin, amount int64) (Coin, bool) {
	var best Coin
	found := false
	for _, c := range coins {
		if c.Amount < amount {
			continue
		}
		if !found || c.Amount < best.Amount {
			best = c
			found = true
		}
	}
	return best, found
}
