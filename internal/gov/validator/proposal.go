// Package validator implements the stateless consensus checks a decoded
// Proposal or Vote must pass before the chain listener stores it.
package validator

import (
	"fmt"
	"regexp"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/govcheck"
	"github.com/blockvote/governance/internal/gov/model"
)

var proposalNameRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_ -]*[A-Za-z0-9_]$`)

// ProposalIsValid checks p against the consensus rules of §4.2, points
// 1-6. It does not check the submission cutoff; call ProposalMeetsCutoff
// separately once the observing height is known.
func ProposalIsValid(p model.Proposal, params consensus.Params, chainParams *chaincfg.Params, encodedSize int) error {
	if p.Version != model.NetworkVersion {
		return fmt.Errorf("%w: version %d != %d", govcheck.ErrInvalidProposal, p.Version, model.NetworkVersion)
	}
	if p.Type != model.RecordProposal {
		return fmt.Errorf("%w: type %d != proposal", govcheck.ErrInvalidProposal, p.Type)
	}
	if !proposalNameRe.MatchString(p.Name) {
		return fmt.Errorf("%w: name %q fails pattern", govcheck.ErrInvalidProposal, p.Name)
	}
	if p.Superblock <= 0 || params.SuperblockPeriod <= 0 || p.Superblock%params.SuperblockPeriod != 0 {
		return fmt.Errorf("%w: superblock %d is not a positive multiple of period %d", govcheck.ErrInvalidProposal, p.Superblock, params.SuperblockPeriod)
	}
	maxAmount := int64(0)
	if params.BlockSubsidy != nil {
		maxAmount = params.BlockSubsidy(p.Superblock)
	}
	if p.Amount < params.ProposalMinAmount || p.Amount > maxAmount {
		return fmt.Errorf("%w: amount %d out of range [%d,%d]", govcheck.ErrInvalidProposal, p.Amount, params.ProposalMinAmount, maxAmount)
	}
	if _, err := btcutil.DecodeAddress(p.Address, chainParams); err != nil {
		return fmt.Errorf("%w: address %q: %v", govcheck.ErrInvalidProposal, p.Address, err)
	}
	if encodedSize > params.MaxOpReturnRelay-3 {
		return fmt.Errorf("%w: encoded size %d exceeds relay budget", govcheck.ErrInvalidProposal, encodedSize)
	}
	return nil
}

// ProposalMeetsCutoff reports whether a proposal observed at height h may
// still be accepted for its target superblock.
func ProposalMeetsCutoff(p model.Proposal, height int32, params consensus.Params) bool {
	return height <= p.Superblock-params.ProposalCutoff
}
