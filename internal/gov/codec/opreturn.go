package codec

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"

	"github.com/blockvote/governance/internal/gov/model"
)

// ExtractPayload reads opcodes from script until the first non-empty push
// and returns that push's data. It returns ok=false if the script carries
// no OP_RETURN or no non-empty push follows it — governance records live
// exclusively in such outputs.
func ExtractPayload(script []byte) (payload []byte, ok bool) {
	tok := txscript.MakeScriptTokenizer(0, script)
	sawReturn := false
	for tok.Next() {
		if !sawReturn {
			if tok.Opcode() == txscript.OP_RETURN {
				sawReturn = true
			}
			continue
		}
		if data := tok.Data(); len(data) > 0 {
			return data, true
		}
	}
	return nil, false
}

// BuildOpReturnScript builds an OP_RETURN <payload> script for carrying a
// governance record. The output value pairing it must be zero.
func BuildOpReturnScript(payload []byte) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload).
		Script()
	if err != nil {
		return nil, fmt.Errorf("build op_return script: %w", err)
	}
	return script, nil
}

// Record is a decoded governance record together with which kind it is.
type Record struct {
	Type     model.RecordType
	Proposal model.Proposal
	Vote     model.Vote
}

// DecodeRecord reads the version/type prefix from payload and dispatches
// to DecodeProposal or DecodeVote. It returns ok=false (with a nil error)
// for a version mismatch or an unrecognized type, since the spec treats
// both as "silently ignore this output" rather than a hard error.
// carrier/blockTime/blockNumber are only used when decoding a Vote.
func DecodeRecord(payload []byte, carrier model.Outpoint, blockTime int64, blockNumber uint32) (Record, bool, error) {
	if len(payload) < 2 {
		return Record{}, false, nil
	}
	version := payload[0]
	typ := payload[1]
	if version != model.NetworkVersion {
		return Record{}, false, nil
	}
	body := payload[2:]

	switch model.RecordType(typ) {
	case model.RecordProposal:
		p, err := DecodeProposal(version, typ, body, blockNumber)
		if err != nil {
			return Record{}, false, nil //nolint:nilerr // malformed payload is silently ignored, not an error
		}
		return Record{Type: model.RecordProposal, Proposal: p}, true, nil
	case model.RecordVote:
		v, err := DecodeVote(version, typ, body, carrier, blockTime, blockNumber)
		if err != nil {
			return Record{}, false, nil //nolint:nilerr
		}
		return Record{Type: model.RecordVote, Vote: v}, true, nil
	default:
		return Record{}, false, nil
	}
}
