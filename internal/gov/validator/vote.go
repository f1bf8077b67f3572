package validator

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/govcheck"
	"github.com/blockvote/governance/internal/gov/model"
)

// UtxoState is what the validator needs to know about a vote's backing
// utxo; the caller (chain listener) is responsible for looking it up.
type UtxoState struct {
	Exists bool
	Spent  bool
	Amount int64
	KeyID  [20]byte
}

// VoteIsValid checks v against the consensus rules of §4.2, points 1-4. It
// does not check the submission cutoff or the vin-binding requirement;
// call VoteMeetsCutoff and MatchesVinPubKey separately.
func VoteIsValid(v model.Vote, utxo UtxoState, params consensus.Params) error {
	if v.Version != model.NetworkVersion {
		return fmt.Errorf("%w: version %d != %d", govcheck.ErrInvalidVote, v.Version, model.NetworkVersion)
	}
	if v.Type != model.RecordVote {
		return fmt.Errorf("%w: type %d != vote", govcheck.ErrInvalidVote, v.Type)
	}
	if !v.Choice.Valid() {
		return fmt.Errorf("%w: choice %d invalid", govcheck.ErrInvalidVote, v.Choice)
	}
	if !utxo.Exists {
		return fmt.Errorf("%w: utxo %s not found", govcheck.ErrInvalidVote, v.Utxo)
	}
	if utxo.Amount < params.VoteMinUtxoAmount {
		return fmt.Errorf("%w: utxo amount %d below minimum %d", govcheck.ErrInvalidVote, utxo.Amount, params.VoteMinUtxoAmount)
	}
	if v.PubKey == nil {
		return fmt.Errorf("%w: signature did not recover a pubkey", govcheck.ErrInvalidVote)
	}
	if v.KeyID != utxo.KeyID {
		return fmt.Errorf("%w: signer key-id does not match utxo owner", govcheck.ErrInvalidVote)
	}
	if utxo.Spent {
		return fmt.Errorf("%w: utxo %s", govcheck.ErrUtxoSpent, v.Utxo)
	}
	return nil
}

// VoteMeetsCutoff reports whether a vote observed at height h is still
// within its proposal's voting window.
func VoteMeetsCutoff(proposal model.Proposal, height int32, params consensus.Params) bool {
	return height <= proposal.Superblock-params.VotingCutoff
}

// MatchesVinPubKey implements the vin-binding check of §4.2: it walks a
// single scriptSig's opcodes and reports whether the first push of
// pubkey-sized data (33 or 65 bytes) recovers to keyID. Only a bare data
// push is recognized; P2SH-wrapped or multisig scriptSigs never match
// (preserved intentionally, see spec §9).
func MatchesVinPubKey(scriptSig []byte, keyID [20]byte) bool {
	tok := txscript.MakeScriptTokenizer(0, scriptSig)
	for tok.Next() {
		data := tok.Data()
		if len(data) != 33 && len(data) != 65 {
			continue
		}
		candidate := btcutil.Hash160(data)
		if bytes.Equal(candidate, keyID[:]) {
			return true
		}
		return false
	}
	return false
}

// AnyVinMatchesPubKey reports whether at least one of a transaction's
// scriptSigs satisfies MatchesVinPubKey, the actual check applied during
// block extraction.
func AnyVinMatchesPubKey(scriptSigs [][]byte, keyID [20]byte) bool {
	for _, sig := range scriptSigs {
		if MatchesVinPubKey(sig, keyID) {
			return true
		}
	}
	return false
}
