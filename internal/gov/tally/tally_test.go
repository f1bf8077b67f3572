package tally_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/tally"
)

const coin = 100_000_000

func TestCompute_ClusteringAndTruncation(t *testing.T) {
	proposal := chainhash.HashH([]byte("alpha"))
	params := consensus.Params{VoteBalance: 5_000 * coin}

	tx1 := chainhash.HashH([]byte("tx1"))
	signer1Dest := [20]byte{1}
	signer2Dest := [20]byte{2}

	u1 := model.Vote{
		Proposal:        proposal,
		Hash:            chainhash.HashH([]byte("u1")),
		Choice:          model.VoteYes,
		Amount:          6_000 * coin,
		KeyID:           signer1Dest,
		CarrierOutpoint: model.Outpoint{Hash: tx1},
	}
	u2 := model.Vote{
		Proposal:        proposal,
		Hash:            chainhash.HashH([]byte("u2")),
		Choice:          model.VoteYes,
		Amount:          5_000 * coin,
		KeyID:           signer1Dest,
		CarrierOutpoint: model.Outpoint{Hash: tx1},
	}
	u3 := model.Vote{
		Proposal:        proposal,
		Hash:            chainhash.HashH([]byte("u3")),
		Choice:          model.VoteNo,
		Amount:          5_000 * coin,
		KeyID:           signer2Dest,
		CarrierOutpoint: model.Outpoint{Hash: chainhash.HashH([]byte("tx2"))},
	}

	got := tally.Compute(proposal, []model.Vote{u1, u2, u3}, params)

	assert.Equal(t, int64(2), got.Yes)
	assert.Equal(t, int64(1), got.No)
	assert.Equal(t, int64(0), got.Abstain)
	assert.Equal(t, int64(11_000*coin), got.CYes)
	assert.Equal(t, int64(5_000*coin), got.CNo)
	assert.Equal(t, int64(0), got.CAbstain)
}

func TestCompute_DestClusterAcrossTransactions(t *testing.T) {
	proposal := chainhash.HashH([]byte("alpha"))
	params := consensus.Params{VoteBalance: 5_000 * coin}
	sharedDest := [20]byte{9}

	v1 := model.Vote{
		Proposal:        proposal,
		Hash:            chainhash.HashH([]byte("v1")),
		Choice:          model.VoteYes,
		Amount:          5_000 * coin,
		KeyID:           sharedDest,
		CarrierOutpoint: model.Outpoint{Hash: chainhash.HashH([]byte("tx1"))},
	}
	v2 := model.Vote{
		Proposal:        proposal,
		Hash:            chainhash.HashH([]byte("v2")),
		Choice:          model.VoteYes,
		Amount:          5_000 * coin,
		KeyID:           sharedDest,
		CarrierOutpoint: model.Outpoint{Hash: chainhash.HashH([]byte("tx2"))},
	}

	got := tally.Compute(proposal, []model.Vote{v1, v2}, params)

	// Same destination key across two different transactions still
	// clusters into one signer; each vote contributes once.
	assert.Equal(t, int64(2), got.Yes)
	assert.Equal(t, int64(10_000*coin), got.CYes)
}

func TestCompute_IgnoresOtherProposals(t *testing.T) {
	proposal := chainhash.HashH([]byte("alpha"))
	other := chainhash.HashH([]byte("beta"))
	params := consensus.Params{VoteBalance: 5_000 * coin}

	v1 := model.Vote{Proposal: proposal, Hash: chainhash.HashH([]byte("v1")), Choice: model.VoteYes, Amount: 5_000 * coin}
	v2 := model.Vote{Proposal: other, Hash: chainhash.HashH([]byte("v2")), Choice: model.VoteYes, Amount: 5_000 * coin}

	got := tally.Compute(proposal, []model.Vote{v1, v2}, params)
	assert.Equal(t, int64(1), got.Yes)
}
