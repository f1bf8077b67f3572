package validator

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/govcheck"
	"github.com/blockvote/governance/internal/gov/model"
)

func testParams() consensus.Params {
	return consensus.Params{
		SuperblockPeriod:  2880,
		ProposalMinAmount: 10 * 100_000_000,
		ProposalCutoff:    288,
		VotingCutoff:      144,
		VoteMinUtxoAmount: 1 * 100_000_000,
		MaxOpReturnRelay:  4096,
		BlockSubsidy:      func(int32) int64 { return 500 * 100_000_000 },
	}
}

func testValidProposal() model.Proposal {
	return model.Proposal{
		Version:    model.NetworkVersion,
		Type:       model.RecordProposal,
		Superblock: 2880,
		Amount:     50 * 100_000_000,
		Address:    "mvB8J39dpkBSVFmbcvwAtwyA4qgFqPYwNf",
		Name:       "community-fund-q1",
	}
}

func TestProposalIsValid_Valid(t *testing.T) {
	err := ProposalIsValid(testValidProposal(), testParams(), &chaincfg.TestNet3Params, 200)
	require.NoError(t, err)
}

func TestProposalIsValid_WrongVersion(t *testing.T) {
	p := testValidProposal()
	p.Version = model.NetworkVersion + 1
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_WrongType(t *testing.T) {
	p := testValidProposal()
	p.Type = model.RecordVote
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_NamePattern(t *testing.T) {
	cases := map[string]bool{
		"valid-name_1":  true,
		"a":             false, // single char fails surrounding-char pattern
		"-leading-dash": false,
		"trailing-":     false,
		"has spaces ok": true,
		"bad$char":      false,
	}
	for name, want := range cases {
		p := testValidProposal()
		p.Name = name
		err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
		if want {
			assert.NoError(t, err, "name %q should be valid", name)
		} else {
			assert.Error(t, err, "name %q should be invalid", name)
		}
	}
}

func TestProposalIsValid_SuperblockNotMultipleOfPeriod(t *testing.T) {
	p := testValidProposal()
	p.Superblock = 2881
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_SuperblockNotPositive(t *testing.T) {
	p := testValidProposal()
	p.Superblock = 0
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_AmountBelowMinimum(t *testing.T) {
	p := testValidProposal()
	p.Amount = 1
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_AmountAboveSubsidy(t *testing.T) {
	params := testParams()
	p := testValidProposal()
	p.Amount = params.BlockSubsidy(p.Superblock) + 1
	err := ProposalIsValid(p, params, &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_BadAddress(t *testing.T) {
	p := testValidProposal()
	p.Address = "not-an-address"
	err := ProposalIsValid(p, testParams(), &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
}

func TestProposalIsValid_AddressWrongNetwork(t *testing.T) {
	p := testValidProposal()
	err := ProposalIsValid(p, testParams(), &chaincfg.MainNetParams, 200)
	require.Error(t, err)
}

func TestProposalIsValid_EncodedSizeExceedsRelayBudget(t *testing.T) {
	params := testParams()
	params.MaxOpReturnRelay = 100
	err := ProposalIsValid(testValidProposal(), params, &chaincfg.TestNet3Params, 200)
	require.ErrorIs(t, err, govcheck.ErrInvalidProposal)
	var target error = govcheck.ErrInvalidProposal
	assert.True(t, errors.Is(err, target))
}

func TestProposalMeetsCutoff(t *testing.T) {
	params := testParams()
	p := testValidProposal()

	assert.True(t, ProposalMeetsCutoff(p, p.Superblock-params.ProposalCutoff, params))
	assert.False(t, ProposalMeetsCutoff(p, p.Superblock-params.ProposalCutoff+1, params))
}
