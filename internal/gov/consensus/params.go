// Package consensus holds the network-wide parameters the validator, tally
// engine, and vote planner check proposals and votes against.
package consensus

// Params are the governance-relevant consensus parameters of the host
// chain. They are configuration consumed by this engine, never derived by
// it (see spec §6, "Configuration consumed").
type Params struct {
	// SuperblockPeriod is the block-height interval between superblocks.
	SuperblockPeriod int32
	// ProposalMinAmount is the minimum payout a proposal may request.
	ProposalMinAmount int64
	// ProposalFee is the fee (in base units) a proposal submission tx pays.
	ProposalFee int64
	// ProposalCutoff is the minimum lead time, in blocks, between a
	// proposal's acceptance and its target superblock.
	ProposalCutoff int32
	// VotingCutoff is the same lead time for votes.
	VotingCutoff int32
	// VoteBalance is the coin amount that rounds up to one whole vote.
	VoteBalance int64
	// VoteMinUtxoAmount is the minimum coin value a utxo must hold to
	// vote.
	VoteMinUtxoAmount int64
	// GovernanceBlock is the first height at which governance records are
	// recognized at all.
	GovernanceBlock int32
	// MaxOpReturnRelay bounds a serialized record's size.
	MaxOpReturnRelay int
	// VoteInputAmount is the default per-address transaction input size
	// the planner reserves (as opposed to a voting utxo), configurable via
	// the "-voteinputamount" setting. Params applies no default of its
	// own; cmd/governanced's --vote-input-amount flag defaults to 0.1 * COIN.
	VoteInputAmount int64

	// BlockSubsidy returns the coinbase subsidy at the given height, used
	// as a proposal's upper amount bound.
	BlockSubsidy func(height int32) int64
}

// MaxOpReturnInTransaction bounds how many OP_RETURN outputs the planner
// packs into a single transaction before finalizing it.
const MaxOpReturnInTransaction = 40

// NextSuperblock returns the smallest superblock height strictly greater
// than fromHeight.
func NextSuperblock(p Params, fromHeight int32) int32 {
	if p.SuperblockPeriod <= 0 {
		return fromHeight
	}
	return fromHeight - fromHeight%p.SuperblockPeriod + p.SuperblockPeriod
}

// PreviousSuperblock returns the largest superblock height less than or
// equal to fromHeight.
func PreviousSuperblock(p Params, fromHeight int32) int32 {
	if p.SuperblockPeriod <= 0 {
		return fromHeight
	}
	if fromHeight%p.SuperblockPeriod == 0 {
		return fromHeight
	}
	return fromHeight - fromHeight%p.SuperblockPeriod
}
