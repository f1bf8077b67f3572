package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/planner"
	"github.com/blockvote/governance/internal/gov/store"
)

const coin = 100_000_000

func testParams() consensus.Params {
	return consensus.Params{
		SuperblockPeriod:  1440,
		ProposalMinAmount: 1,
		ProposalFee:       10 * coin,
		ProposalCutoff:    100,
		VotingCutoff:      10,
		VoteBalance:       5_000 * coin,
		VoteMinUtxoAmount: 1 * coin,
		VoteInputAmount:   int64(0.1 * coin),
		GovernanceBlock:   1,
		MaxOpReturnRelay:  2048,
		BlockSubsidy:      func(int32) int64 { return 1_000 * coin },
	}
}

// fakeWallet is a hand-written stand-in for planner.Wallet: coins and keys
// live in plain maps, and CreateTransaction/CommitTransaction just record
// what they were asked to do.
type fakeWallet struct {
	name    string
	locked  bool
	coins   []planner.Coin
	keys    map[string]*btcec.PrivateKey
	fee     int64
	created []planner.UnsignedTx
}

func newFakeWallet(t *testing.T, name string) *fakeWallet {
	t.Helper()
	return &fakeWallet{name: name, keys: make(map[string]*btcec.PrivateKey), fee: 1000}
}

func (w *fakeWallet) Name() string { return w.name }

func (w *fakeWallet) IsLocked(context.Context) (bool, error) { return w.locked, nil }

func (w *fakeWallet) Balance(context.Context) (int64, error) {
	var total int64
	for _, c := range w.coins {
		total += c.Amount
	}
	return total, nil
}

func (w *fakeWallet) AvailableCoins(context.Context) ([]planner.Coin, error) {
	out := make([]planner.Coin, len(w.coins))
	copy(out, w.coins)
	return out, nil
}

func (w *fakeWallet) KeyFor(_ context.Context, address string) (*btcec.PrivateKey, error) {
	priv, ok := w.keys[address]
	if !ok {
		return nil, errAddressUnknown
	}
	return priv, nil
}

func (w *fakeWallet) EstimateFee(context.Context, int, int) (int64, error) { return w.fee, nil }

func (w *fakeWallet) CreateTransaction(_ context.Context, tx planner.UnsignedTx) ([]byte, error) {
	w.created = append(w.created, tx)
	return []byte("raw"), nil
}

func (w *fakeWallet) CommitTransaction(context.Context, []byte) (chainhash.Hash, error) {
	return chainhash.HashH([]byte(w.name + string(rune(len(w.created))))), nil
}

var errAddressUnknown = errors.New("address has no known key")

// addCoin registers a coin for address on w, generating a fresh keypair
// for that address and deriving its key-id the same way a real utxo's
// owning script would.
func (w *fakeWallet) addCoin(t *testing.T, address string, amount int64) planner.Coin {
	t.Helper()
	priv, ok := w.keys[address]
	if !ok {
		var err error
		priv, err = btcec.NewPrivateKey()
		require.NoError(t, err)
		w.keys[address] = priv
	}
	keyID := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	var id [20]byte
	copy(id[:], keyID)

	c := planner.Coin{
		Outpoint: model.Outpoint{Hash: chainhash.HashH([]byte(address + string(rune(len(w.coins))))), Index: 0},
		Amount:   amount,
		Address:  address,
		KeyID:    id,
	}
	w.coins = append(w.coins, c)
	return c
}

func testProposal(t *testing.T, name string, superblock int32, amount int64) model.Proposal {
	t.Helper()
	p := model.Proposal{
		Version: model.NetworkVersion, Type: model.RecordProposal,
		Superblock: superblock, Amount: amount, Address: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
		Name: name, URL: "u", Description: "d",
	}
	var err error
	p.Hash, err = codec.ProposalHash(p)
	require.NoError(t, err)
	return p
}

func TestSubmitVotes_RejectsEmptyRequestList(t *testing.T) {
	p := planner.New(store.New(), testParams(), &chaincfg.MainNetParams, zap.NewNop(), nil)
	_, err := p.SubmitVotes(context.Background(), nil, nil)
	require.ErrorIs(t, err, planner.ErrNoProposals)
}

func TestSubmitVotes_RejectsLockedWallet(t *testing.T) {
	params := testParams()
	prop := testProposal(t, "alpha", 2880, 50*coin)

	w := newFakeWallet(t, "w1")
	w.locked = true

	p := planner.New(store.New(), params, &chaincfg.MainNetParams, zap.NewNop(), nil)
	_, err := p.SubmitVotes(context.Background(), []planner.Wallet{w}, []planner.VoteRequest{{Proposal: prop, Choice: model.VoteYes}})
	require.ErrorIs(t, err, planner.ErrWalletLocked)
}

func TestSubmitVotes_RejectsInsufficientBalance(t *testing.T) {
	params := testParams()
	prop := testProposal(t, "alpha", 2880, 50*coin)

	w := newFakeWallet(t, "w1")
	w.addCoin(t, "A", 1*coin)

	p := planner.New(store.New(), params, &chaincfg.MainNetParams, zap.NewNop(), nil)
	_, err := p.SubmitVotes(context.Background(), []planner.Wallet{w}, []planner.VoteRequest{{Proposal: prop, Choice: model.VoteYes}})
	require.ErrorIs(t, err, planner.ErrInsufficientFunds)
}

func TestSubmitVotes_PlansInputAndVotingUtxosAndBroadcasts(t *testing.T) {
	params := testParams()
	prop := testProposal(t, "alpha", 2880, 50*coin)

	w := newFakeWallet(t, "w1")
	inputCoin := w.addCoin(t, "addr1", int64(0.2*coin)) // clears the 0.6*voteInputAmount threshold
	w.addCoin(t, "addr1", 6_000*coin)

	p := planner.New(store.New(), params, &chaincfg.MainNetParams, zap.NewNop(), nil)
	txids, err := p.SubmitVotes(context.Background(), []planner.Wallet{w}, []planner.VoteRequest{{Proposal: prop, Choice: model.VoteYes}})
	require.NoError(t, err)
	require.Len(t, txids, 1)
	require.Len(t, w.created, 1)

	tx := w.created[0]
	require.Len(t, tx.Inputs, 1)
	require.Equal(t, inputCoin.Outpoint, tx.Inputs[0])

	var sawChange, sawVote bool
	for _, out := range tx.Outputs {
		if out.Script != nil {
			sawVote = true
		} else if out.Address == "addr1" {
			sawChange = true
			require.Less(t, out.Value, int64(0.2*coin))
		}
	}
	require.True(t, sawChange)
	require.True(t, sawVote)
}

func TestSubmitVotes_SkipsAlreadyStoredVote(t *testing.T) {
	params := testParams()
	prop := testProposal(t, "alpha", 2880, 50*coin)

	w := newFakeWallet(t, "w1")
	w.addCoin(t, "addr1", int64(0.2*coin))
	votingCoin := w.addCoin(t, "addr1", 6_000*coin)

	st := store.New()
	st.PutProposal(prop)
	existingVote := model.Vote{
		Version: model.NetworkVersion, Type: model.RecordVote,
		Proposal: prop.Hash, Choice: model.VoteNo, Utxo: votingCoin.Outpoint,
	}
	existingVote.Hash = codec.VoteHash(existingVote.Version, existingVote.Type, existingVote.Proposal, existingVote.Utxo)
	require.True(t, st.PutVote(existingVote))

	p := planner.New(st, params, &chaincfg.MainNetParams, zap.NewNop(), nil)
	_, err := p.SubmitVotes(context.Background(), []planner.Wallet{w}, []planner.VoteRequest{{Proposal: prop, Choice: model.VoteYes}})
	require.ErrorIs(t, err, planner.ErrNoVotesCast)
	require.Empty(t, w.created)
}

func TestSubmitProposal_BuildsFeePayingTransaction(t *testing.T) {
	params := testParams()
	prop := testProposal(t, "alpha", 2880, 50*coin)

	w := newFakeWallet(t, "w1")
	w.addCoin(t, "funder", 100*coin)

	p := planner.New(store.New(), params, &chaincfg.MainNetParams, zap.NewNop(), nil)
	_, err := p.SubmitProposal(context.Background(), w, prop, "1BoatSLRHtKNngkdXEeobR76b53LETtpyT")
	require.NoError(t, err)
	require.Len(t, w.created, 1)

	tx := w.created[0]
	require.Len(t, tx.Outputs, 3)
	require.NotNil(t, tx.Outputs[0].Script)
	require.Equal(t, params.ProposalFee, tx.Outputs[1].Value)
}
