package codec

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvote/governance/internal/gov/model"
)

func testSignedVote(t *testing.T) (model.Vote, *btcec.PrivateKey) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	v := model.Vote{
		Version:  model.NetworkVersion,
		Type:     model.RecordVote,
		Proposal: chainhash.HashH([]byte("proposal")),
		Choice:   model.VoteYes,
		Utxo:     model.Outpoint{Hash: chainhash.HashH([]byte("utxo")), Index: 1},
	}
	v.Hash = VoteHash(v.Version, v.Type, v.Proposal, v.Utxo)
	v.SigHash = VoteSigHash(v.Version, v.Type, v.Proposal, v.Choice, v.Utxo)

	require.NoError(t, SignVote(&v, priv))
	return v, priv
}

func TestEncodeDecodeVote_RoundTrip(t *testing.T) {
	v, priv := testSignedVote(t)

	encoded, err := EncodeVote(v)
	require.NoError(t, err)

	carrier := model.Outpoint{Hash: chainhash.HashH([]byte("carrier")), Index: 0}
	decoded, err := DecodeVote(encoded[0], encoded[1], encoded[2:], carrier, 1700000000, 42)
	require.NoError(t, err)

	assert.Equal(t, v.Version, decoded.Version)
	assert.Equal(t, v.Type, decoded.Type)
	assert.Equal(t, v.Proposal, decoded.Proposal)
	assert.Equal(t, v.Choice, decoded.Choice)
	assert.Equal(t, v.Utxo, decoded.Utxo)
	assert.Equal(t, v.Hash, decoded.Hash)
	assert.Equal(t, v.SigHash, decoded.SigHash)
	assert.Equal(t, carrier, decoded.CarrierOutpoint)
	assert.Equal(t, int64(1700000000), decoded.Time)
	assert.Equal(t, uint32(42), decoded.BlockNumber)

	wantKeyID := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	assert.Equal(t, wantKeyID, decoded.KeyID[:])
	require.NotNil(t, decoded.PubKey)
	assert.True(t, priv.PubKey().IsEqual(decoded.PubKey))
}

func TestVoteHash_ExcludesChoice(t *testing.T) {
	version := model.NetworkVersion
	typ := model.RecordVote
	proposal := chainhash.HashH([]byte("proposal"))
	utxo := model.Outpoint{Hash: chainhash.HashH([]byte("utxo")), Index: 0}

	yes := VoteHash(version, typ, proposal, utxo)
	no := VoteHash(version, typ, proposal, utxo)
	assert.Equal(t, yes, no, "VoteHash must not depend on choice")

	sigYes := VoteSigHash(version, typ, proposal, model.VoteYes, utxo)
	sigNo := VoteSigHash(version, typ, proposal, model.VoteNo, utxo)
	assert.NotEqual(t, sigYes, sigNo, "VoteSigHash must depend on choice")
}

func TestRecoverVoteSigner_BadSignatureFails(t *testing.T) {
	v := model.Vote{
		Version:  model.NetworkVersion,
		Type:     model.RecordVote,
		Proposal: chainhash.HashH([]byte("proposal")),
		Choice:   model.VoteYes,
		Utxo:     model.Outpoint{Hash: chainhash.HashH([]byte("utxo")), Index: 0},
	}
	v.SigHash = VoteSigHash(v.Version, v.Type, v.Proposal, v.Choice, v.Utxo)
	v.Signature = make([]byte, 65)

	err := RecoverVoteSigner(&v)
	require.Error(t, err)
}

func TestDecodeVote_TruncatedSignature(t *testing.T) {
	v, _ := testSignedVote(t)

	encoded, err := EncodeVote(v)
	require.NoError(t, err)

	body := encoded[2:]
	carrier := model.Outpoint{}
	_, err = DecodeVote(encoded[0], encoded[1], body[:len(body)-1], carrier, 0, 0)
	require.Error(t, err)
}
