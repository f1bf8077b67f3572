package chain

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/journal"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/store"
	"github.com/blockvote/governance/internal/gov/validator"
	"github.com/blockvote/governance/pkg/workerpool"
)

// Listener drives the state store from chain notifications: the initial
// scan and the block_connected/block_disconnected callbacks of spec §4.4.
type Listener struct {
	reader      Reader
	store       *store.Store
	params      consensus.Params
	chainParams *chaincfg.Params
	workerCount int
	logger      *zap.Logger
	metrics     Metrics
	journal     Journal
}

// New constructs a Listener. workerCount defaults to runtime.NumCPU() when
// zero or negative, matching the source's "cores = GetNumCores()" fan-out.
func New(reader Reader, st *store.Store, params consensus.Params, chainParams *chaincfg.Params, logger *zap.Logger, metrics Metrics, workerCount int) *Listener {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Listener{
		reader:      reader,
		store:       st,
		params:      params,
		chainParams: chainParams,
		workerCount: workerCount,
		logger:      logger,
		metrics:     metrics,
	}
}

// LoadGovernanceData performs the initial scan of spec §4.4: every block
// from params.GovernanceBlock to the current chain tip is fed through the
// same logic as BlockConnected, fanned out across a worker pool. Afterward
// every stored vote is re-checked against the current (non-mempool) chain
// state and dropped if its utxo is already spent.
//
// Blocks are range-partitioned only conceptually: the worker pool
// distributes individual heights across workers rather than contiguous
// sub-ranges, which is behaviorally equivalent here because the
// supersession rule (spec §4.3) is a pure function of (time, sigHash), not
// of processing order — two votes colliding on the same hash resolve
// identically no matter which order their blocks are processed in.
func (l *Listener) LoadGovernanceData(ctx context.Context) error {
	started := time.Now()

	tip, err := l.reader.Height(ctx)
	if err != nil {
		return fmt.Errorf("read chain height: %w", err)
	}
	if tip < l.params.GovernanceBlock {
		l.metrics.ObserveInitialScan(nil, 0, started)
		return nil
	}

	heights := make([]int32, 0, tip-l.params.GovernanceBlock+1)
	for h := l.params.GovernanceBlock; h <= tip; h++ {
		heights = append(heights, h)
	}

	err = workerpool.Process(ctx, l.workerCount, heights, l.scanHeight, nil)
	l.metrics.ObserveInitialScan(err, len(heights), started)
	if err != nil {
		return fmt.Errorf("initial governance scan: %w", err)
	}

	return l.revalidateVotes(ctx)
}

func (l *Listener) scanHeight(ctx context.Context, height int32) error {
	hash, err := l.reader.BlockHashAt(ctx, height)
	if err != nil {
		return fmt.Errorf("block hash at %d: %w", height, err)
	}
	block, err := l.reader.ReadBlock(ctx, hash)
	if err != nil {
		return fmt.Errorf("read block %d: %w", height, err)
	}
	return l.BlockConnected(ctx, block)
}

// revalidateVotes drops every stored vote whose utxo is spent as of the
// current chain state, without consulting the mempool (spec §4.4). The
// check is fanned out the same way the initial scan is.
func (l *Listener) revalidateVotes(ctx context.Context) error {
	started := time.Now()
	votes := l.store.ListVotes()

	spent := make(chan model.Outpoint, len(votes))
	checkVote := func(ctx context.Context, v model.Vote) error {
		_, ok, err := l.reader.GetCoin(ctx, v.Utxo)
		if err != nil {
			return fmt.Errorf("get coin %s: %w", v.Utxo, err)
		}
		if !ok {
			spent <- v.Utxo
		}
		return nil
	}

	err := workerpool.Process(ctx, l.workerCount, votes, checkVote, nil)
	close(spent)
	if err != nil {
		l.metrics.ObserveRevalidation(err, len(votes), 0, started)
		return fmt.Errorf("revalidate votes: %w", err)
	}

	spentSet := make(map[model.Outpoint]struct{})
	for o := range spent {
		spentSet[o] = struct{}{}
	}
	l.store.RemoveVotesByUtxo(spentSet)
	l.metrics.ObserveRevalidation(nil, len(votes), len(spentSet), started)
	return nil
}

// extracted holds the proposals and votes pulled out of a block before
// they are applied to the store, mirroring the source's dataFromBlock
// separating extraction from application.
type extracted struct {
	proposals []model.Proposal
	votes     []extractedVote
}

type extractedVote struct {
	vote      model.Vote
	vinScripts [][]byte
}

// BlockConnected applies a newly connected block to the store per spec
// §4.4. cutoff checks are applied using block.Height.
func (l *Listener) BlockConnected(ctx context.Context, block *Block) error {
	started := time.Now()
	ex, err := l.extract(ctx, block, block.Height)
	if err != nil {
		l.metrics.ObserveBlockConnected(err, 0, 0, started)
		return err
	}

	for _, p := range ex.proposals {
		l.store.PutProposal(p)
		l.recordJournal(ctx, journal.Event{
			Kind: journal.KindProposalAccepted, BlockHeight: block.Height,
			BlockTime: block.Time, ProposalHash: p.Hash,
		})
	}

	// l.acceptVote already dropped votes with no matching proposal or
	// outside the voting cutoff; PutVote applies the supersession rule
	// for what remains.
	stored := 0
	for _, ev := range ex.votes {
		existed := l.store.HasVote(ev.vote.Hash)
		if !l.store.PutVote(ev.vote) {
			continue
		}
		stored++
		kind := journal.KindVoteAccepted
		if existed {
			kind = journal.KindVoteSuperseded
		}
		l.recordJournal(ctx, journal.Event{
			Kind: kind, BlockHeight: block.Height, BlockTime: block.Time,
			ProposalHash: ev.vote.Proposal, VoteHash: ev.vote.Hash,
			Utxo: ev.vote.Utxo.String(), Choice: uint8(ev.vote.Choice),
		})
	}

	spent := spentOutpoints(block)
	var invalidated []model.Vote
	if len(spent) > 0 {
		for _, v := range l.store.ListVotes() {
			if _, ok := spent[v.Utxo]; ok {
				invalidated = append(invalidated, v)
			}
		}
	}
	l.store.RemoveVotesByUtxo(spent)
	for _, v := range invalidated {
		l.recordJournal(ctx, journal.Event{
			Kind: journal.KindVoteInvalidated, BlockHeight: block.Height,
			BlockTime: block.Time, ProposalHash: v.Proposal, VoteHash: v.Hash,
			Utxo: v.Utxo.String(), Choice: uint8(v.Choice),
		})
	}

	l.metrics.ObserveBlockConnected(nil, len(ex.proposals), stored, started)
	return nil
}

// BlockDisconnected rolls back a block per spec §4.4: records are
// re-extracted with the cutoff disabled (they were already accepted once)
// and erased by hash. Earlier-superseded votes are not restored; see
// DESIGN.md's "disconnect without replay" note.
func (l *Listener) BlockDisconnected(ctx context.Context, block *Block) error {
	started := time.Now()
	ex, err := l.extract(ctx, block, 0)
	if err != nil {
		l.metrics.ObserveBlockDisconnected(err, started)
		return err
	}

	for _, p := range ex.proposals {
		l.store.DeleteProposal(p.Hash)
	}
	for _, ev := range ex.votes {
		l.store.DeleteVote(ev.vote.Hash)
	}

	l.metrics.ObserveBlockDisconnected(nil, started)
	return nil
}

// extract pulls proposal/vote candidates out of every non-coinbase
// transaction's OP_RETURN outputs and validates them. When height is
// nonzero (block_connected), cutoff checks are evaluated at height; when
// zero (block_disconnected), candidates are trusted as previously valid.
//
// Proposals are collected in a first pass before any vote's cutoff/
// existence check runs, so a vote referencing a proposal introduced
// earlier in this same block finds it — spec §4.2's "must already be
// stored or be stored in the same block" and §4.4 step 4's "at this
// point" both mean after this block's own proposals are in hand, not
// only what was already in the store before this block.
func (l *Listener) extract(ctx context.Context, block *Block, height int32) (extracted, error) {
	var ex extracted
	proposalsByHash := make(map[chainhash.Hash]model.Proposal)

	var voteCandidates []extractedVote
	for _, tx := range block.Txs {
		if tx.Coinbase {
			continue
		}
		for _, out := range tx.Vout {
			payload, ok := codec.ExtractPayload(out.Script)
			if !ok {
				continue
			}
			carrier := model.Outpoint{Hash: tx.Txid, Index: out.Index}
			rec, ok, err := codec.DecodeRecord(payload, carrier, block.Time, uint32(block.Height))
			if err != nil || !ok {
				continue
			}

			switch rec.Type {
			case model.RecordProposal:
				if !l.acceptProposal(rec.Proposal, height) {
					continue
				}
				ex.proposals = append(ex.proposals, rec.Proposal)
				proposalsByHash[rec.Proposal.Hash] = rec.Proposal
			case model.RecordVote:
				voteCandidates = append(voteCandidates, extractedVote{vote: rec.Vote, vinScripts: vinScripts(tx)})
			}
		}
	}

	for _, ev := range voteCandidates {
		proposal, found := proposalsByHash[ev.vote.Proposal]
		if !found {
			proposal, found = l.store.GetProposal(ev.vote.Proposal)
		}
		vote, ok := l.acceptVote(ctx, ev.vote, height, proposal, found)
		if !ok {
			continue
		}
		ex.votes = append(ex.votes, extractedVote{vote: vote, vinScripts: ev.vinScripts})
	}

	// the vin binding check (spec §4.2) needs at least one scriptSig
	// matching the vote's recovered key-id; apply it now that every
	// candidate vote's carrying tx's scripts are gathered.
	filtered := ex.votes[:0]
	for _, ev := range ex.votes {
		if !validator.AnyVinMatchesPubKey(ev.vinScripts, ev.vote.KeyID) {
			continue
		}
		filtered = append(filtered, ev)
	}
	ex.votes = filtered

	return ex, nil
}

func (l *Listener) acceptProposal(p model.Proposal, height int32) bool {
	encoded, err := codec.EncodeProposal(p)
	if err != nil {
		return false
	}
	if err := validator.ProposalIsValid(p, l.params, l.chainParams, len(encoded)); err != nil {
		return false
	}
	if height > 0 && !validator.ProposalMeetsCutoff(p, height, l.params) {
		return false
	}
	return true
}

// acceptVote validates v against the chain's current coin view, filling in
// its observed Amount on success. It returns ok=false if the vote should
// be dropped. Called for both block_connected and block_disconnected,
// matching the source's dataFromBlock always running isValid() regardless
// of cutoff. proposal/proposalFound is the result of looking v.Proposal up
// across both this block's own proposals and the store (see extract),
// since at height>0 a missing proposal or a missed cutoff both drop the
// vote.
func (l *Listener) acceptVote(ctx context.Context, v model.Vote, height int32, proposal model.Proposal, proposalFound bool) (model.Vote, bool) {
	coin, ok, err := l.reader.GetCoin(ctx, v.Utxo)
	if err != nil {
		l.logger.Warn("get coin failed during vote extraction", zap.Error(err), zap.Stringer("utxo", v.Utxo))
		return v, false
	}
	state := validator.UtxoState{Exists: ok, Spent: !ok, Amount: coin.Amount, KeyID: coin.KeyID}
	if err := validator.VoteIsValid(v, state, l.params); err != nil {
		return v, false
	}
	v.Amount = coin.Amount
	if height > 0 {
		if !proposalFound || !validator.VoteMeetsCutoff(proposal, height, l.params) {
			return v, false
		}
	}
	return v, true
}

func vinScripts(tx Tx) [][]byte {
	out := make([][]byte, 0, len(tx.Vin))
	for _, in := range tx.Vin {
		out = append(out, in.ScriptSig)
	}
	return out
}

// spentOutpoints builds the set of every prevout spent by any input of any
// transaction in block, used to invalidate votes backed by a now-spent
// utxo (spec §4.4 step 5).
func spentOutpoints(block *Block) map[model.Outpoint]struct{} {
	out := make(map[model.Outpoint]struct{})
	for _, tx := range block.Txs {
		if tx.Coinbase {
			continue
		}
		for _, in := range tx.Vin {
			out[in.PrevOut] = struct{}{}
		}
	}
	return out
}
