package planner

import "errors"

var (
	// ErrNoProposals is returned when SubmitVotes is called with an empty
	// choice list.
	ErrNoProposals = errors.New("planner: no proposals given")
	// ErrInvalidProposal is returned when a requested vote's proposal
	// fails validation before any wallet work begins.
	ErrInvalidProposal = errors.New("planner: invalid proposal")
	// ErrWalletLocked is returned when a wallet participating in the
	// batch is locked.
	ErrWalletLocked = errors.New("planner: wallet is locked")
	// ErrInsufficientFunds is returned when the combined balance of every
	// wallet falls short of the configured vote balance.
	ErrInsufficientFunds = errors.New("planner: insufficient combined balance")
	// ErrNoVotesCast is returned when the pass produced no transaction at
	// all, mirroring the source's "no votes cast, unlocked/funds?".
	ErrNoVotesCast = errors.New("planner: no votes cast, check wallets are unlocked and funded")
)
