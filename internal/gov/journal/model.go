// Package journal is an optional, non-authoritative audit sink: the chain
// listener appends one Event per accepted/superseded/invalidated record
// while applying each connected block; block_disconnected appends no
// events. It is never read back by
// the engine itself — store.Reset plus a fresh chain scan reconstructs
// identical state with the journal absent entirely (spec §10).
package journal

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Kind identifies which governance lifecycle transition an Event records.
type Kind string

const (
	// KindProposalAccepted records a Proposal entering the store.
	KindProposalAccepted Kind = "proposal_accepted"
	// KindVoteAccepted records a Vote entering the store as a fresh insert,
	// with no stored vote for the same (proposal, utxo) pair.
	KindVoteAccepted Kind = "vote_accepted"
	// KindVoteSuperseded records a Vote that replaced the stored vote of
	// the same (proposal, utxo) pair; the event carries the new vote.
	KindVoteSuperseded Kind = "vote_superseded"
	// KindVoteInvalidated records a Vote being removed because its
	// backing utxo was spent.
	KindVoteInvalidated Kind = "vote_invalidated"
)

// Event is one audit record. Fields beyond Kind/BlockHeight/BlockTime are
// populated according to Kind: proposal events fill ProposalHash; vote
// events fill VoteHash, ProposalHash, Utxo, and Choice.
type Event struct {
	Kind         Kind
	BlockHeight  int32
	BlockTime    int64
	ProposalHash chainhash.Hash
	VoteHash     chainhash.Hash
	Utxo         string
	Choice       uint8
}
