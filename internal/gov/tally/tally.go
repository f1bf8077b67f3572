// Package tally computes coin-weighted vote tallies with anti-double-count
// clustering, per spec §4.5.
package tally

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/model"
)

// Compute tallies every vote in votes cast on proposal, clustering votes
// that share a carrying transaction or a destination key so a single
// coin-holder cannot multiply their weight by sharding utxos across many
// transactions (spec §4.5).
//
// Clusters are built from carrying-transaction groups taken in ascending
// order of each group's minimum vote hash, a deterministic choice (spec
// §9's design note) that makes tests reproducible. The coin sums do not
// depend on this order, since the counted set guarantees each vote
// contributes to exactly one cluster; the whole-vote counts can, because
// they are truncated per cluster.
func Compute(proposal chainhash.Hash, votes []model.Vote, params consensus.Params) model.Tally {
	byTx := make(map[chainhash.Hash][]*model.Vote)
	byDest := make(map[[20]byte][]*model.Vote)

	for i := range votes {
		v := &votes[i]
		if v.Proposal != proposal {
			continue
		}
		byTx[v.CarrierOutpoint.Hash] = append(byTx[v.CarrierOutpoint.Hash], v)
		byDest[v.KeyID] = append(byDest[v.KeyID], v)
	}

	groups := orderedTxGroups(byTx)

	counted := make(map[chainhash.Hash]struct{})
	var final model.Tally
	for _, g := range groups {
		cluster := make(map[chainhash.Hash]*model.Vote)
		for _, v := range g.votes {
			cluster[v.Hash] = v
			for _, dv := range byDest[v.KeyID] {
				cluster[dv.Hash] = dv
			}
		}

		var clusterVotes []*model.Vote
		for h, v := range cluster {
			if _, done := counted[h]; done {
				continue
			}
			clusterVotes = append(clusterVotes, v)
		}
		if len(clusterVotes) == 0 {
			continue
		}
		for _, v := range clusterVotes {
			counted[v.Hash] = struct{}{}
		}
		final.Add(sumCluster(clusterVotes, params.VoteBalance))
	}
	return final
}

func sumCluster(votes []*model.Vote, voteBalance int64) model.Tally {
	var t model.Tally
	for _, v := range votes {
		switch v.Choice {
		case model.VoteYes:
			t.CYes += v.Amount
		case model.VoteNo:
			t.CNo += v.Amount
		case model.VoteAbstain:
			t.CAbstain += v.Amount
		}
	}
	if voteBalance > 0 {
		t.Yes = t.CYes / voteBalance
		t.No = t.CNo / voteBalance
		t.Abstain = t.CAbstain / voteBalance
	}
	return t
}

type txGroup struct {
	minHash chainhash.Hash
	votes   []*model.Vote
}

func orderedTxGroups(byTx map[chainhash.Hash][]*model.Vote) []txGroup {
	groups := make([]txGroup, 0, len(byTx))
	for _, votes := range byTx {
		min := votes[0].Hash
		for _, v := range votes[1:] {
			if model.CompareHash256(v.Hash, min) < 0 {
				min = v.Hash
			}
		}
		groups = append(groups, txGroup{minHash: min, votes: votes})
	}
	sort.Slice(groups, func(i, j int) bool {
		return model.CompareHash256(groups[i].minHash, groups[j].minHash) < 0
	})
	return groups
}
