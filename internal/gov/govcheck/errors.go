// Package govcheck defines the governance engine's error kinds so callers
// can distinguish "drop and continue" outcomes from fatal ones with
// errors.Is, without parsing error strings.
package govcheck

import "errors"

var (
	// ErrMalformedRecord marks a truncated or version-mismatched OP_RETURN
	// payload. The containing output is silently ignored.
	ErrMalformedRecord = errors.New("malformed governance record")
	// ErrInvalidProposal marks a structurally invalid proposal.
	ErrInvalidProposal = errors.New("invalid proposal")
	// ErrInvalidVote marks a structurally invalid vote.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrNoMatchingProposal marks a vote whose referenced proposal is
	// unknown to the store.
	ErrNoMatchingProposal = errors.New("vote references unknown proposal")
	// ErrUtxoSpent marks a vote whose backing utxo is already spent.
	ErrUtxoSpent = errors.New("voting utxo is spent")
	// ErrWalletUnavailable marks a wallet that could not be reached.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrWalletLocked marks a wallet that must be unlocked before use.
	ErrWalletLocked = errors.New("wallet is locked")
	// ErrInsufficientFunds marks a wallet or wallet set without enough
	// spendable balance to cast the requested votes.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBroadcastRejected marks a transaction the wallet's commit step
	// refused to relay.
	ErrBroadcastRejected = errors.New("transaction broadcast rejected")
	// ErrChainReadFailure marks a block-index lookup or block-read
	// failure during initial scan.
	ErrChainReadFailure = errors.New("chain read failure")
	// ErrShutdownRequested marks a long-running operation that exited
	// early because of a shutdown signal.
	ErrShutdownRequested = errors.New("shutdown requested")
)
