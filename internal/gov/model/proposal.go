package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Proposal is a community proposal requesting a payout from a superblock.
type Proposal struct {
	Version     uint8
	Type        RecordType
	Superblock  int32
	Amount      int64
	Address     string
	Name        string
	URL         string
	Description string

	// Hash is the proposal identity, H(version,type,name,superblock,amount,
	// address,url,description). It depends only on these fields, never on
	// BlockNumber.
	Hash chainhash.Hash

	// BlockNumber is the height of the block that carried this proposal.
	// Memory-only; never part of Hash.
	BlockNumber uint32
}
