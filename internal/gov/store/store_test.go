package store

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvote/governance/internal/gov/model"
)

func testProposal(name string) model.Proposal {
	p := model.Proposal{
		Version:    model.NetworkVersion,
		Type:       model.RecordProposal,
		Superblock: 2880,
		Amount:     50 * 100_000_000,
		Address:    "addr",
		Name:       name,
	}
	p.Hash = chainhash.HashH([]byte(name))
	return p
}

func TestPutVote_InsertsWhenProposalStored(t *testing.T) {
	s := New()
	p := testProposal("alpha")
	s.PutProposal(p)

	v := model.Vote{Proposal: p.Hash, Hash: chainhash.HashH([]byte("v1")), Time: 100, Choice: model.VoteYes}
	require.True(t, s.PutVote(v))

	got, ok := s.GetVote(v.Hash)
	require.True(t, ok)
	assert.Equal(t, model.VoteYes, got.Choice)
}

func TestPutVote_NoOpWithoutProposal(t *testing.T) {
	s := New()
	v := model.Vote{Proposal: chainhash.HashH([]byte("missing")), Hash: chainhash.HashH([]byte("v1"))}
	require.False(t, s.PutVote(v))
	require.False(t, s.HasVote(v.Hash))
}

func TestPutVote_Supersession_LaterTimeWins(t *testing.T) {
	s := New()
	p := testProposal("alpha")
	s.PutProposal(p)

	h := chainhash.HashH([]byte("shared"))
	older := model.Vote{Proposal: p.Hash, Hash: h, Time: 100, Choice: model.VoteYes}
	newer := model.Vote{Proposal: p.Hash, Hash: h, Time: 200, Choice: model.VoteNo}

	require.True(t, s.PutVote(older))
	require.True(t, s.PutVote(newer))

	got, ok := s.GetVote(h)
	require.True(t, ok)
	assert.Equal(t, model.VoteNo, got.Choice)
}

func TestPutVote_Supersession_EqualTimeSigHashTiebreak(t *testing.T) {
	s := New()
	p := testProposal("alpha")
	s.PutProposal(p)

	h := chainhash.HashH([]byte("shared"))
	low := model.Vote{Proposal: p.Hash, Hash: h, Time: 100, SigHash: chainhash.Hash{0x01}, Choice: model.VoteYes}
	high := model.Vote{Proposal: p.Hash, Hash: h, Time: 100, SigHash: chainhash.Hash{0x02}, Choice: model.VoteNo}

	require.True(t, s.PutVote(low))
	require.True(t, s.PutVote(high))
	got, _ := s.GetVote(h)
	assert.Equal(t, model.VoteNo, got.Choice)

	// A further attempt with a smaller SigHash at the same time must not
	// overwrite the already-stored larger one.
	require.False(t, s.PutVote(low))
	got, _ = s.GetVote(h)
	assert.Equal(t, model.VoteNo, got.Choice)
}

func TestRemoveVotesByUtxo(t *testing.T) {
	s := New()
	p := testProposal("alpha")
	s.PutProposal(p)

	spentOutpoint := model.Outpoint{Hash: chainhash.HashH([]byte("tx1")), Index: 0}
	v1 := model.Vote{Proposal: p.Hash, Hash: chainhash.HashH([]byte("v1")), Utxo: spentOutpoint}
	v2 := model.Vote{Proposal: p.Hash, Hash: chainhash.HashH([]byte("v2")), Utxo: model.Outpoint{Hash: chainhash.HashH([]byte("tx2"))}}
	s.PutVote(v1)
	s.PutVote(v2)

	s.RemoveVotesByUtxo(map[model.Outpoint]struct{}{spentOutpoint: {}})

	assert.False(t, s.HasVote(v1.Hash))
	assert.True(t, s.HasVote(v2.Hash))
}

func TestReset(t *testing.T) {
	s := New()
	p := testProposal("alpha")
	s.PutProposal(p)
	s.PutVote(model.Vote{Proposal: p.Hash, Hash: chainhash.HashH([]byte("v1"))})

	s.Reset()

	assert.Empty(t, s.ListProposals())
	assert.Empty(t, s.ListVotes())
}
