package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/store"
)

func testParams() consensus.Params {
	return consensus.Params{
		SuperblockPeriod:  1440,
		ProposalMinAmount: 1,
		ProposalCutoff:    100,
		VotingCutoff:      10,
		VoteBalance:       5_000 * 100_000_000,
		GovernanceBlock:   1,
		BlockSubsidy:      func(int32) int64 { return 1_000 * 100_000_000 },
	}
}

func testRouter(t *testing.T) (*mux.Router, model.Proposal) {
	t.Helper()
	st := store.New()
	proposal := model.Proposal{
		Version: model.NetworkVersion, Type: model.RecordProposal,
		Superblock: 2880, Amount: 50 * 100_000_000, Address: "addr",
		Name: "alpha", URL: "u", Description: "d",
	}
	hash, err := codec.ProposalHash(proposal)
	require.NoError(t, err)
	proposal.Hash = hash
	st.PutProposal(proposal)

	h := &handler{store: st, params: testParams(), logger: zap.NewNop()}
	r := mux.NewRouter()
	r.HandleFunc("/proposals", h.listProposals).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}", h.getProposal).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}/votes", h.listVotesFor).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}/tally", h.tally).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	return r, proposal
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListProposals(t *testing.T) {
	r, proposal := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/proposals", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Proposal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, proposal.Hash, got[0].Hash)
}

func TestGetProposal_Found(t *testing.T) {
	r, proposal := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Hash.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Proposal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, proposal.Hash, got.Hash)
}

func TestGetProposal_NotFound(t *testing.T) {
	r, _ := testRouter(t)
	missing := "0000000000000000000000000000000000000000000000000000000000000000"[:64]
	req := httptest.NewRequest(http.MethodGet, "/proposals/"+missing, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProposal_MalformedHash(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/proposals/not-a-hash", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTally_ForKnownProposal(t *testing.T) {
	r, proposal := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Hash.String()+"/tally", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVotesFor_EmptyWhenNoVotes(t *testing.T) {
	r, proposal := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Hash.String()+"/votes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Vote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Empty(t, got)
}
