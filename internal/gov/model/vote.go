package model

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Vote casts coin-weighted authority from a single utxo onto a proposal.
type Vote struct {
	Version  uint8
	Type     RecordType
	Proposal chainhash.Hash
	Choice   VoteChoice
	Utxo     Outpoint
	// Signature is a compact recoverable signature over SigHash.
	Signature []byte

	// Hash is the vote identity, H(version,type,proposal,utxo). It
	// deliberately excludes Choice so a later vote from the same utxo on
	// the same proposal collides with and can supersede an earlier one.
	Hash chainhash.Hash
	// SigHash is H(version,type,proposal,choice,utxo), the digest the
	// signature is computed over. Included in the tie-break when two
	// votes collide on Hash at the same block time.
	SigHash chainhash.Hash

	// PubKey is recovered from (SigHash, Signature) when the vote is
	// parsed or signed. Memory-only.
	PubKey *btcec.PublicKey
	// KeyID is the hash160 of PubKey's serialized compressed form.
	// Memory-only; must equal the key-id of the script at Utxo.
	KeyID [20]byte
	// Amount is the coin value of Utxo at observation time. Memory-only.
	Amount int64
	// CarrierOutpoint is the OP_RETURN output that carried this vote.
	// Memory-only.
	CarrierOutpoint Outpoint
	// Time is the block time of the containing block. Memory-only.
	Time int64
	// BlockNumber is the height of the containing block. Memory-only.
	BlockNumber uint32
}
