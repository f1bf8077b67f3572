// Command govvote is a one-shot CLI wrapping internal/gov/planner.SubmitVotes:
// it scans the chain to build a governance state, then casts a vote on each
// requested proposal from every eligible utxo of one or more wallets.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/chain"
	chainrpc "github.com/blockvote/governance/internal/gov/chain/rpc"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/metrics"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/planner"
	"github.com/blockvote/governance/internal/gov/planner/walletrpc"
	"github.com/blockvote/governance/internal/gov/store"
)

type config struct {
	RPCURL  string `long:"rpc-url" env:"GOVVOTE_RPC_URL" description:"node JSON-RPC URL" default:"http://127.0.0.1:41414"`
	RPCUser string `long:"rpc-user" env:"GOVVOTE_RPC_USER" description:"node JSON-RPC username"`
	RPCPass string `long:"rpc-password" env:"GOVVOTE_RPC_PASSWORD" description:"node JSON-RPC password"`
	Testnet bool   `long:"testnet" env:"GOVVOTE_TESTNET" description:"use testnet3 address parameters instead of mainnet"`

	Wallets []string `long:"wallet-url" env:"GOVVOTE_WALLET_URLS" env-delim:"," description:"wallet JSON-RPC URL(s), user:pass@host form, one per --wallet-url" required:"true"`

	Votes []string `long:"vote" description:"proposal-hash:choice pair, choice is yes|no|abstain, repeatable" required:"true"`

	GovernanceBlock int32 `long:"governance-block" env:"GOVVOTE_GOVERNANCE_BLOCK" description:"first height at which governance records are recognized"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("govvote failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	chainParams := &chaincfg.MainNetParams
	if cfg.Testnet {
		chainParams = &chaincfg.TestNet3Params
	}
	params := consensus.Params{GovernanceBlock: cfg.GovernanceBlock}

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPass)
	if err != nil {
		return fmt.Errorf("init node rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	reader := chainrpc.NewClient(rpcClient, metrics.NewRPC("chain"), 0)

	st := store.New()
	listener := chain.New(reader, st, params, chainParams, logger, metrics.NewListener(), 0)
	logger.Info("scanning governance history")
	if err := listener.LoadGovernanceData(ctx); err != nil {
		return fmt.Errorf("load governance data: %w", err)
	}

	requests, err := parseVoteRequests(cfg.Votes, st)
	if err != nil {
		return err
	}

	wallets, cleanup, err := dialWallets(cfg.Wallets, chainParams)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("dial wallets: %w", err)
	}

	p := planner.New(st, params, chainParams, logger, metrics.NewPlanner())
	txids, err := p.SubmitVotes(ctx, wallets, requests)
	for _, txid := range txids {
		fmt.Println(txid.String())
	}
	if err != nil {
		return fmt.Errorf("submit votes: %w", err)
	}
	return nil
}

func parseVoteRequests(specs []string, st *store.Store) ([]planner.VoteRequest, error) {
	requests := make([]planner.VoteRequest, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --vote %q, want proposal-hash:choice", spec)
		}
		hash, err := chainhash.NewHashFromStr(parts[0])
		if err != nil {
			return nil, fmt.Errorf("--vote %q: %w", spec, err)
		}
		proposal, ok := st.GetProposal(*hash)
		if !ok {
			return nil, fmt.Errorf("--vote %q: proposal not found on chain", spec)
		}
		choice, err := parseChoice(parts[1])
		if err != nil {
			return nil, fmt.Errorf("--vote %q: %w", spec, err)
		}
		requests = append(requests, planner.VoteRequest{Proposal: proposal, Choice: choice})
	}
	return requests, nil
}

func parseChoice(s string) (model.VoteChoice, error) {
	switch strings.ToLower(s) {
	case "yes":
		return model.VoteYes, nil
	case "no":
		return model.VoteNo, nil
	case "abstain":
		return model.VoteAbstain, nil
	default:
		return 0, fmt.Errorf("unknown vote choice %q, want yes|no|abstain", s)
	}
}

func dialWallets(urls []string, chainParams *chaincfg.Params) ([]planner.Wallet, func(), error) {
	wallets := make([]planner.Wallet, 0, len(urls))
	clients := make([]*rpcclient.Client, 0, len(urls))
	cleanup := func() {
		for _, c := range clients {
			c.Shutdown()
			c.WaitForShutdown()
		}
	}

	for i, raw := range urls {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, cleanup, fmt.Errorf("parse wallet url %q: %w", raw, err)
		}
		if parsed.Scheme != "http" {
			return nil, cleanup, fmt.Errorf("wallet url %q: scheme must be http", raw)
		}
		user, pass := "", ""
		if parsed.User != nil {
			user = parsed.User.Username()
			pass, _ = parsed.User.Password()
		}
		client, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         parsed.Host,
			User:         user,
			Pass:         pass,
			HTTPPostMode: true,
			DisableTLS:   true,
		}, nil)
		if err != nil {
			return nil, cleanup, fmt.Errorf("dial wallet %q: %w", raw, err)
		}
		clients = append(clients, client)
		name := "wallet-" + strconv.Itoa(i)
		wallets = append(wallets, walletrpc.New(name, client, chainParams, metrics.NewRPC("wallet")))
	}
	return wallets, cleanup, nil
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}
	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}
