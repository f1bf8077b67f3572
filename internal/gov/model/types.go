// Package model defines the on-chain governance record types: proposals,
// votes, outpoints, and tallies.
package model

import (
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// RecordType identifies which governance record a decoded payload carries.
type RecordType uint8

const (
	// RecordNone marks an unrecognized or not-yet-typed payload.
	RecordNone RecordType = 0
	// RecordProposal marks a Proposal payload.
	RecordProposal RecordType = 1
	// RecordVote marks a Vote payload.
	RecordVote RecordType = 2
)

// NetworkVersion is the only wire version this engine understands.
const NetworkVersion uint8 = 1

// VoteChoice is a voter's selection on a proposal.
type VoteChoice uint8

const (
	// VoteNo rejects the proposal.
	VoteNo VoteChoice = 0
	// VoteYes approves the proposal.
	VoteYes VoteChoice = 1
	// VoteAbstain casts coin weight without a yes/no preference.
	VoteAbstain VoteChoice = 2
)

// Valid reports whether c is one of the three defined choices.
func (c VoteChoice) Valid() bool {
	return c == VoteNo || c == VoteYes || c == VoteAbstain
}

func (c VoteChoice) String() string {
	switch c {
	case VoteNo:
		return "no"
	case VoteYes:
		return "yes"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Outpoint identifies a transaction output by its containing transaction
// hash and output index, the same identity used for a voting utxo.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

func (o Outpoint) String() string {
	return o.Hash.String() + ":" + strconv.FormatUint(uint64(o.Index), 10)
}

// CompareHash256 performs a big-endian unsigned numeric comparison of two
// hash256 values, returning -1, 0, or 1. A chainhash.Hash stores its bytes
// in the same little-endian order as the underlying digest (its most
// significant byte is at index 31, which is why String() reverses the
// bytes for display); this walks from that most significant byte down,
// matching the reference implementation's arith_uint256 comparison used
// for the vote supersession tie-break (spec §4.3) and tally cluster
// ordering (spec §9).
func CompareHash256(a, b chainhash.Hash) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
