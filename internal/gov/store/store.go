// Package store holds the authoritative in-memory set of proposals and
// votes. It is the single point of truth the chain listener writes and
// every other component reads.
package store

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/model"
)

// Store is a concurrency-safe proposal/vote set with the supersession
// rule of spec §4.3 applied on every vote insert. The zero value is not
// usable; construct with New.
type Store struct {
	mu sync.Mutex

	proposals map[chainhash.Hash]model.Proposal
	votes     map[chainhash.Hash]model.Vote
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		proposals: make(map[chainhash.Hash]model.Proposal),
		votes:     make(map[chainhash.Hash]model.Vote),
	}
}

// HasProposal reports whether a proposal with hash h is stored.
func (s *Store) HasProposal(h chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.proposals[h]
	return ok
}

// HasVote reports whether a vote with hash h is stored.
func (s *Store) HasVote(h chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[h]
	return ok
}

// HasVoteBy reports whether a vote on proposal from utxo is stored,
// regardless of its choice.
func (s *Store) HasVoteBy(proposal chainhash.Hash, utxo model.Outpoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.Proposal == proposal && v.Utxo == utxo {
			return true
		}
	}
	return false
}

// GetProposal returns the stored proposal with hash h, if any.
func (s *Store) GetProposal(h chainhash.Hash) (model.Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[h]
	return p, ok
}

// GetVote returns the stored vote with hash h, if any.
func (s *Store) GetVote(h chainhash.Hash) (model.Vote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[h]
	return v, ok
}

// ListProposals returns a snapshot of every stored proposal.
func (s *Store) ListProposals() []model.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p)
	}
	return out
}

// ListVotes returns a snapshot of every stored vote.
func (s *Store) ListVotes() []model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		out = append(out, v)
	}
	return out
}

// ListVotesFor returns a snapshot of every stored vote on the given
// proposal.
func (s *Store) ListVotesFor(proposal chainhash.Hash) []model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Vote
	for _, v := range s.votes {
		if v.Proposal == proposal {
			out = append(out, v)
		}
	}
	return out
}

// Reset clears all stored proposals and votes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = make(map[chainhash.Hash]model.Proposal)
	s.votes = make(map[chainhash.Hash]model.Vote)
}

// PutProposal inserts or overwrites a proposal. The listener calls this
// for every accepted proposal candidate regardless of whether one already
// exists at that hash — a proposal's fields are a function of its hash, so
// any re-insert is identical.
func (s *Store) PutProposal(p model.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.Hash] = p
}

// DeleteProposal removes a proposal by hash.
func (s *Store) DeleteProposal(h chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proposals, h)
}

// hasProposalLocked checks the proposal map under the same lock PutVote
// already holds, per spec §9's note that a single coarse lock avoids the
// Vote→Proposal lookup becoming a second lock acquisition.
func (s *Store) hasProposalLocked(h chainhash.Hash) bool {
	_, ok := s.proposals[h]
	return ok
}

// PutVote applies the supersession rule of §4.3: if no vote with v.Hash is
// stored, or the new one has a strictly greater Time, or equal Time and a
// numerically larger SigHash, it replaces the stored vote. It is a no-op
// if v's proposal is not stored. Returns true if v was stored (inserted or
// replaced an existing entry).
func (s *Store) PutVote(v model.Vote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasProposalLocked(v.Proposal) {
		return false
	}

	existing, ok := s.votes[v.Hash]
	if !ok {
		s.votes[v.Hash] = v
		return true
	}
	if supersedes(v, existing) {
		s.votes[v.Hash] = v
		return true
	}
	return false
}

// supersedes reports whether candidate should replace stored, per §4.3:
// later block time wins; on a tie, the numerically larger (big-endian
// unsigned) SigHash wins; otherwise stored is kept.
func supersedes(candidate, stored model.Vote) bool {
	if candidate.Time != stored.Time {
		return candidate.Time > stored.Time
	}
	return model.CompareHash256(candidate.SigHash, stored.SigHash) > 0
}

// DeleteVote removes a vote by hash.
func (s *Store) DeleteVote(h chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.votes, h)
}

// RemoveVotesByUtxo deletes every stored vote whose Utxo is in spent. Used
// after a block's inputs are known to invalidate now-spent voting utxos
// (§4.4 step 5) and by the post-scan revalidation pass (§4.4).
func (s *Store) RemoveVotesByUtxo(spent map[model.Outpoint]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, v := range s.votes {
		if _, ok := spent[v.Utxo]; ok {
			delete(s.votes, h)
		}
	}
}
