package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/store"
	"github.com/blockvote/governance/internal/gov/tally"
)

var errNotFound = errors.New("proposal not found")

type handler struct {
	store  *store.Store
	params consensus.Params
	logger *zap.Logger
}

func (h *handler) listProposals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListProposals())
}

func (h *handler) getProposal(w http.ResponseWriter, r *http.Request) {
	hash, err := hashVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	proposal, ok := h.store.GetProposal(hash)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (h *handler) listVotesFor(w http.ResponseWriter, r *http.Request) {
	hash, err := hashVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.ListVotesFor(hash))
}

func (h *handler) tally(w http.ResponseWriter, r *http.Request) {
	hash, err := hashVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, ok := h.store.GetProposal(hash); !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	result := tally.Compute(hash, h.store.ListVotes(), h.params)
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func hashVar(r *http.Request) (chainhash.Hash, error) {
	hash, err := chainhash.NewHashFromStr(mux.Vars(r)["hash"])
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *hash, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
