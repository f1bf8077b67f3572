package codec

import (
	"fmt"

	"github.com/blockvote/governance/internal/gov/model"
)

// maxFieldSize bounds a single varstring field while decoding, well above
// any legitimate proposal field and well below a corrupt or hostile length
// prefix that would otherwise drive a large allocation.
const maxFieldSize = 10000

// EncodeProposal serializes p in wire order: version, type, superblock,
// amount, address, name, url, description. This order differs from the
// field order used by ProposalHash.
func EncodeProposal(p model.Proposal) ([]byte, error) {
	w := &writer{}
	w.WriteUint8(p.Version)
	w.WriteUint8(uint8(p.Type))
	w.WriteInt32LE(p.Superblock)
	w.WriteInt64LE(p.Amount)
	if err := w.WriteVarString(p.Address); err != nil {
		return nil, fmt.Errorf("encode proposal address: %w", err)
	}
	if err := w.WriteVarString(p.Name); err != nil {
		return nil, fmt.Errorf("encode proposal name: %w", err)
	}
	if err := w.WriteVarString(p.URL); err != nil {
		return nil, fmt.Errorf("encode proposal url: %w", err)
	}
	if err := w.WriteVarString(p.Description); err != nil {
		return nil, fmt.Errorf("encode proposal description: %w", err)
	}
	return w.Bytes(), nil
}

// DecodeProposal parses a proposal payload whose version/type byte prefix
// has already been read by the caller (see DecodeRecord). blockNumber is
// stamped onto the result; Hash is computed and filled in.
func DecodeProposal(version, typ uint8, body []byte, blockNumber uint32) (model.Proposal, error) {
	r := newReader(body)

	superblock, err := r.ReadInt32LE()
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal superblock: %w", err)
	}
	amount, err := r.ReadInt64LE()
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal amount: %w", err)
	}
	address, err := r.ReadVarString(maxFieldSize)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal address: %w", err)
	}
	name, err := r.ReadVarString(maxFieldSize)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal name: %w", err)
	}
	url, err := r.ReadVarString(maxFieldSize)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal url: %w", err)
	}
	description, err := r.ReadVarString(maxFieldSize)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal description: %w", err)
	}

	p := model.Proposal{
		Version:     version,
		Type:        model.RecordType(typ),
		Superblock:  superblock,
		Amount:      amount,
		Address:     address,
		Name:        name,
		URL:         url,
		Description: description,
		BlockNumber: blockNumber,
	}
	p.Hash, err = ProposalHash(p)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("hash proposal: %w", err)
	}
	return p, nil
}
