package codec

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/model"
)

// ProposalHash computes a Proposal's identity hash. Field order is
// (version, type, name, superblock, amount, address, url, description) —
// notably NAME before SUPERBLOCK, which differs from the wire encoding
// order used by EncodeProposal. blockNumber never participates.
func ProposalHash(p model.Proposal) (chainhash.Hash, error) {
	w := &writer{}
	w.WriteUint8(p.Version)
	w.WriteUint8(uint8(p.Type))
	if err := w.WriteVarString(p.Name); err != nil {
		return chainhash.Hash{}, err
	}
	w.WriteInt32LE(p.Superblock)
	w.WriteInt64LE(p.Amount)
	if err := w.WriteVarString(p.Address); err != nil {
		return chainhash.Hash{}, err
	}
	if err := w.WriteVarString(p.URL); err != nil {
		return chainhash.Hash{}, err
	}
	if err := w.WriteVarString(p.Description); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(w.Bytes()), nil
}

// VoteHash computes a Vote's identity hash, H(version,type,proposal,utxo).
// It deliberately excludes Choice so that two votes from the same utxo on
// the same proposal collide here regardless of their choice, enabling
// supersession.
func VoteHash(version uint8, typ model.RecordType, proposal chainhash.Hash, utxo model.Outpoint) chainhash.Hash {
	w := &writer{}
	w.WriteUint8(version)
	w.WriteUint8(uint8(typ))
	w.WriteHash(proposal)
	w.WriteHash(utxo.Hash)
	w.WriteUint32LE(utxo.Index)
	return chainhash.DoubleHashH(w.Bytes())
}

// VoteSigHash computes the digest a Vote's signature is made over,
// H(version,type,proposal,choice,utxo). Unlike VoteHash it includes
// Choice, which is why it is used as the deterministic tie-break when two
// votes collide on Hash at the same block time.
func VoteSigHash(version uint8, typ model.RecordType, proposal chainhash.Hash, choice model.VoteChoice, utxo model.Outpoint) chainhash.Hash {
	w := &writer{}
	w.WriteUint8(version)
	w.WriteUint8(uint8(typ))
	w.WriteHash(proposal)
	w.WriteUint8(uint8(choice))
	w.WriteHash(utxo.Hash)
	w.WriteUint32LE(utxo.Index)
	return chainhash.DoubleHashH(w.Bytes())
}
