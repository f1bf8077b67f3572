package codec

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/model"
)

// maxSignatureSize bounds the signature varbytes field; compact recoverable
// signatures are 65 bytes, this leaves generous room without accepting an
// unbounded length prefix.
const maxSignatureSize = 256

// EncodeVote serializes v in wire order: version, type, proposal, choice,
// utxo (hash256 + u32 LE), signature.
func EncodeVote(v model.Vote) ([]byte, error) {
	w := &writer{}
	w.WriteUint8(v.Version)
	w.WriteUint8(uint8(v.Type))
	w.WriteHash(v.Proposal)
	w.WriteUint8(uint8(v.Choice))
	w.WriteHash(v.Utxo.Hash)
	w.WriteUint32LE(v.Utxo.Index)
	if err := w.WriteVarBytes(v.Signature); err != nil {
		return nil, fmt.Errorf("encode vote signature: %w", err)
	}
	return w.Bytes(), nil
}

// DecodeVote parses a vote payload whose version/type byte prefix has
// already been read by the caller. It recovers the signing pubkey and its
// key-id from (sigHash, signature) the same way the wire format's original
// SerializationOp does, so a caller never needs a separate recovery step
// to compare KeyID against the utxo owner.
func DecodeVote(version, typ uint8, body []byte, carrier model.Outpoint, blockTime int64, blockNumber uint32) (model.Vote, error) {
	r := newReader(body)

	proposalBytes, err := r.ReadHash()
	if err != nil {
		return model.Vote{}, fmt.Errorf("decode vote proposal: %w", err)
	}
	choiceByte, err := r.ReadUint8()
	if err != nil {
		return model.Vote{}, fmt.Errorf("decode vote choice: %w", err)
	}
	utxoHashBytes, err := r.ReadHash()
	if err != nil {
		return model.Vote{}, fmt.Errorf("decode vote utxo hash: %w", err)
	}
	utxoIndex, err := r.ReadUint32LE()
	if err != nil {
		return model.Vote{}, fmt.Errorf("decode vote utxo index: %w", err)
	}
	signature, err := r.ReadVarBytes(maxSignatureSize)
	if err != nil {
		return model.Vote{}, fmt.Errorf("decode vote signature: %w", err)
	}

	v := model.Vote{
		Version:         version,
		Type:            model.RecordType(typ),
		Proposal:        chainhash.Hash(proposalBytes),
		Choice:          model.VoteChoice(choiceByte),
		Utxo:            model.Outpoint{Hash: chainhash.Hash(utxoHashBytes), Index: utxoIndex},
		Signature:       signature,
		CarrierOutpoint: carrier,
		Time:            blockTime,
		BlockNumber:     blockNumber,
	}
	v.Hash = VoteHash(v.Version, v.Type, v.Proposal, v.Utxo)
	v.SigHash = VoteSigHash(v.Version, v.Type, v.Proposal, v.Choice, v.Utxo)

	if err := RecoverVoteSigner(&v); err != nil {
		return model.Vote{}, fmt.Errorf("recover vote signer: %w", err)
	}
	return v, nil
}

// RecoverVoteSigner recovers PubKey and KeyID on v from (SigHash,
// Signature). If recovery fails it returns an error and leaves PubKey and
// KeyID unchanged; DecodeVote reports that error as a decode failure.
func RecoverVoteSigner(v *model.Vote) error {
	pubkey, _, err := ecdsa.RecoverCompact(v.Signature, v.SigHash[:])
	if err != nil {
		return fmt.Errorf("recover compact signature: %w", err)
	}
	v.PubKey = pubkey
	keyID := btcutil.Hash160(pubkey.SerializeCompressed())
	copy(v.KeyID[:], keyID)
	return nil
}

// SignVote signs v's SigHash with priv, filling in Signature, PubKey, and
// KeyID the way a vote planner does before broadcasting a new vote.
func SignVote(v *model.Vote, priv *btcec.PrivateKey) error {
	v.Signature = ecdsa.SignCompact(priv, v.SigHash[:], true)
	return RecoverVoteSigner(v)
}
