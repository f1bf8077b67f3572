// Command govpropose is a one-shot CLI wrapping
// internal/gov/planner.SubmitProposal: it builds, signs, and broadcasts a
// single proposal-submission transaction from one wallet.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/codec"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/metrics"
	"github.com/blockvote/governance/internal/gov/model"
	"github.com/blockvote/governance/internal/gov/planner"
	"github.com/blockvote/governance/internal/gov/planner/walletrpc"
	"github.com/blockvote/governance/internal/gov/store"
)

type config struct {
	WalletURL string `long:"wallet-url" env:"GOVPROPOSE_WALLET_URL" description:"wallet JSON-RPC URL, user:pass@host form" required:"true"`
	Testnet   bool   `long:"testnet" env:"GOVPROPOSE_TESTNET" description:"use testnet3 address parameters instead of mainnet"`

	ProposalAddress string `long:"proposal-address" env:"GOVPROPOSE_PROPOSAL_ADDRESS" description:"address the proposal-submission fee is paid to" required:"true"`
	ProposalFee     int64  `long:"proposal-fee" env:"GOVPROPOSE_PROPOSAL_FEE" description:"fee paid by the submission transaction, base units" required:"true"`

	Superblock  int32  `long:"superblock" description:"target superblock height" required:"true"`
	Amount      int64  `long:"amount" description:"requested payout, base units" required:"true"`
	Address     string `long:"address" description:"payout destination address" required:"true"`
	Name        string `long:"name" description:"proposal name" required:"true"`
	URL         string `long:"url" description:"proposal information url" required:"true"`
	Description string `long:"description" description:"proposal description"`
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
		logger.Fatal("govpropose failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	chainParams := &chaincfg.MainNetParams
	if cfg.Testnet {
		chainParams = &chaincfg.TestNet3Params
	}
	params := consensus.Params{ProposalFee: cfg.ProposalFee}

	proposal := model.Proposal{
		Version:     model.NetworkVersion,
		Type:        model.RecordProposal,
		Superblock:  cfg.Superblock,
		Amount:      cfg.Amount,
		Address:     cfg.Address,
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
	}
	hash, err := codec.ProposalHash(proposal)
	if err != nil {
		return fmt.Errorf("hash proposal: %w", err)
	}
	proposal.Hash = hash

	client, err := dialWallet(cfg.WalletURL)
	if err != nil {
		return fmt.Errorf("dial wallet: %w", err)
	}
	defer func() {
		client.Shutdown()
		client.WaitForShutdown()
	}()
	wallet := walletrpc.New("govpropose", client, chainParams, metrics.NewRPC("wallet"))

	p := planner.New(store.New(), params, chainParams, logger, metrics.NewPlanner())
	txid, err := p.SubmitProposal(ctx, wallet, proposal, cfg.ProposalAddress)
	if err != nil {
		return fmt.Errorf("submit proposal: %w", err)
	}
	fmt.Println(txid.String())
	return nil
}

func dialWallet(raw string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse wallet url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("wallet url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("wallet url missing host")
	}
	user, pass := "", ""
	if parsed.User != nil {
		user = parsed.User.Username()
		pass, _ = parsed.User.Password()
	}
	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}
