package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/store"
	"github.com/blockvote/governance/internal/gov/validator"
)

// minInputFraction is the "0.6 x voteInputAmount" threshold of spec §4.6
// step 3b for picking a wallet's per-address transaction input.
const minInputFraction = 0.6

// VoteRequest is one (proposal, choice) pair a caller asks the planner to
// cast a vote for.
type VoteRequest struct {
	Proposal model.Proposal
	Choice   model.VoteChoice
}

// Planner implements the vote-submission algorithm of spec §4.6.
type Planner struct {
	store       *store.Store
	params      consensus.Params
	chainParams *chaincfg.Params
	logger      *zap.Logger
	metrics     Metrics
}

// New constructs a Planner.
func New(st *store.Store, params consensus.Params, chainParams *chaincfg.Params, logger *zap.Logger, metrics Metrics) *Planner {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Planner{store: st, params: params, chainParams: chainParams, logger: logger, metrics: metrics}
}

// pairKey identifies a (voting utxo, proposal) pair already spent this
// planning pass, mirroring the store's own (proposal,utxo) uniqueness
// (§3 I3) so a rerun of the loop never double-votes the same utxo.
type pairKey struct {
	proposal chainhash.Hash
	utxo     model.Outpoint
}

// SubmitVotes implements spec §4.6: it validates every requested proposal,
// requires every wallet unlocked with sufficient combined balance, then
// fans across wallets selecting utxos, signing vote records, and batching
// them into OP_RETURN-bearing transactions the wallet commits. It returns
// the txids of every transaction it successfully broadcast; a non-nil
// error after that slice is non-empty means the batch was only partially
// committed (spec §4.6 "Error handling": partial broadcast is permitted).
func (p *Planner) SubmitVotes(ctx context.Context, wallets []Wallet, requests []VoteRequest) ([]chainhash.Hash, error) {
	started := time.Now()
	txids, err := p.submitVotes(ctx, wallets, requests)
	p.metrics.ObserveSubmitVotes(err, len(requests), len(txids), started)
	return txids, err
}

func (p *Planner) submitVotes(ctx context.Context, wallets []Wallet, requests []VoteRequest) ([]chainhash.Hash, error) {
	if len(requests) == 0 {
		return nil, ErrNoProposals
	}
	for _, r := range requests {
		encoded, err := codec.EncodeProposal(r.Proposal)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProposal, r.Proposal.Name, err)
		}
		if err := validator.ProposalIsValid(r.Proposal, p.params, p.chainParams, len(encoded)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProposal, r.Proposal.Name, err)
		}
	}

	var combined int64
	for _, w := range wallets {
		locked, err := w.IsLocked(ctx)
		if err != nil {
			return nil, fmt.Errorf("check wallet %s locked: %w", w.Name(), err)
		}
		if locked {
			return nil, fmt.Errorf("%w: %s", ErrWalletLocked, w.Name())
		}
		bal, err := w.Balance(ctx)
		if err != nil {
			return nil, fmt.Errorf("balance of wallet %s: %w", w.Name(), err)
		}
		combined += bal
	}
	if combined < p.params.VoteBalance {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, combined, p.params.VoteBalance)
	}

	used := make(map[pairKey]struct{})
	var txids []chainhash.Hash

	for _, w := range wallets {
		for {
			batch, err := p.planBatch(ctx, w, requests, used)
			if err != nil {
				return txids, err
			}
			if batch == nil {
				break
			}
			txid, err := p.broadcastBatch(ctx, w, batch)
			if err != nil {
				return txids, fmt.Errorf("broadcast batch for wallet %s: %w", w.Name(), err)
			}
			txids = append(txids, txid)
		}
	}

	if len(txids) == 0 {
		return nil, ErrNoVotesCast
	}
	return txids, nil
}

// votePlan is one queued, already signed vote record together with its
// OP_RETURN script and the address of the coin backing it.
type votePlan struct {
	vote    model.Vote
	script  []byte
	address string
}

// batch is a single transaction's worth of queued votes plus the
// per-address input coins paying for it.
type batch struct {
	votes  []votePlan
	inputs map[string]Coin
}

// planBatch enumerates wallet w's coins and fills one batch of up to
// MaxOpReturnInTransaction votes, per spec §4.6 steps 3a-3e. It returns a
// nil batch (and nil error) once w has no more eligible (utxo, proposal)
// pairs to plan.
func (p *Planner) planBatch(ctx context.Context, w Wallet, requests []VoteRequest, used map[pairKey]struct{}) (*batch, error) {
	coins, err := w.AvailableCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("available coins of wallet %s: %w", w.Name(), err)
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Amount < coins[j].Amount })

	inputThreshold := int64(float64(p.params.VoteInputAmount) * minInputFraction)
	inputCoins := make(map[string]Coin)
	votingCandidates := make([]Coin, 0, len(coins))

	for _, c := range coins {
		if _, taken := inputCoins[c.Address]; !taken && c.Amount >= inputThreshold {
			inputCoins[c.Address] = c
			continue
		}
		if c.Amount >= p.params.VoteMinUtxoAmount {
			votingCandidates = append(votingCandidates, c)
		}
	}

	b := &batch{inputs: make(map[string]Coin)}
	for _, utxoCoin := range votingCandidates {
		for _, req := range requests {
			key := pairKey{proposal: req.Proposal.Hash, utxo: utxoCoin.Outpoint}
			if _, done := used[key]; done {
				continue
			}
			if p.store.HasVoteBy(req.Proposal.Hash, utxoCoin.Outpoint) {
				used[key] = struct{}{}
				continue
			}

			vp, err := p.buildVote(ctx, w, req, utxoCoin)
			if err != nil {
				p.logger.Warn("skip vote", zap.String("wallet", w.Name()), zap.Stringer("utxo", utxoCoin.Outpoint), zap.Error(err))
				used[key] = struct{}{}
				continue
			}

			used[key] = struct{}{}
			b.votes = append(b.votes, vp)
			inputCoin, ok := inputCoins[vp.address]
			if ok {
				b.inputs[vp.address] = inputCoin
			}

			if len(b.votes) >= consensus.MaxOpReturnInTransaction {
				return b, nil
			}
		}
	}

	if len(b.votes) == 0 {
		return nil, nil
	}
	return b, nil
}

// buildVote constructs, signs, and validates a single vote record and
// serializes it into an OP_RETURN script, per spec §4.6 step 3d.
func (p *Planner) buildVote(ctx context.Context, w Wallet, req VoteRequest, utxoCoin Coin) (votePlan, error) {
	priv, err := w.KeyFor(ctx, utxoCoin.Address)
	if err != nil {
		return votePlan{}, fmt.Errorf("key for %s: %w", utxoCoin.Address, err)
	}

	v := model.Vote{
		Version: model.NetworkVersion,
		Type:    model.RecordVote,
		Proposal: req.Proposal.Hash,
		Choice:  req.Choice,
		Utxo:    utxoCoin.Outpoint,
	}
	v.Hash = codec.VoteHash(v.Version, v.Type, v.Proposal, v.Utxo)
	v.SigHash = codec.VoteSigHash(v.Version, v.Type, v.Proposal, v.Choice, v.Utxo)
	if err := codec.SignVote(&v, priv); err != nil {
		return votePlan{}, fmt.Errorf("sign vote: %w", err)
	}

	state := validator.UtxoState{Exists: true, Spent: false, Amount: utxoCoin.Amount, KeyID: utxoCoin.KeyID}
	if err := validator.VoteIsValid(v, state, p.params); err != nil {
		return votePlan{}, fmt.Errorf("validate vote: %w", err)
	}

	payload, err := codec.EncodeVote(v)
	if err != nil {
		return votePlan{}, fmt.Errorf("encode vote: %w", err)
	}
	script, err := codec.BuildOpReturnScript(payload)
	if err != nil {
		return votePlan{}, fmt.Errorf("build op_return script: %w", err)
	}

	return votePlan{vote: v, script: script, address: utxoCoin.Address}, nil
}

// broadcastBatch finalizes a batch into a transaction per spec §4.6 step
// 3e: one input per address that supplied votes, one zero-value output
// per queued vote, one change output per input address paying back
// input_value - fee_share.
func (p *Planner) broadcastBatch(ctx context.Context, w Wallet, b *batch) (chainhash.Hash, error) {
	numInputs := len(b.inputs)
	numOutputs := len(b.votes) + numInputs
	fee, err := w.EstimateFee(ctx, numInputs, numOutputs)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("estimate fee: %w", err)
	}
	feeShare := int64(0)
	if numInputs > 0 {
		feeShare = fee / int64(numInputs)
	}

	unsigned := UnsignedTx{}
	for _, in := range b.inputs {
		unsigned.Inputs = append(unsigned.Inputs, in.Outpoint)
		unsigned.Outputs = append(unsigned.Outputs, TxOutput{
			Address: in.Address,
			Value:   in.Amount - feeShare,
		})
	}
	for _, vp := range b.votes {
		unsigned.Outputs = append(unsigned.Outputs, TxOutput{Script: vp.script, Value: 0})
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
