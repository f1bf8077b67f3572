// Command governanced runs the governance engine as a long-lived daemon:
// it drives internal/gov/chain.Listener against a live node, keeps the
// in-memory internal/gov/store.Store current, optionally journals every
// accepted/superseded/invalidated record to ClickHouse, and serves the
// read-only internal/gov/httpapi query surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/chain"
	chainrpc "github.com/blockvote/governance/internal/gov/chain/rpc"
	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/httpapi"
	"github.com/blockvote/governance/internal/gov/journal"
	journalclickhouse "github.com/blockvote/governance/internal/gov/journal/clickhouse"
	"github.com/blockvote/governance/internal/gov/metrics"
	"github.com/blockvote/governance/internal/gov/store"
)

type config struct {
	RPCURL      string        `long:"rpc-url" env:"GOVD_RPC_URL" description:"node JSON-RPC URL" default:"http://127.0.0.1:41414"`
	RPCUser     string        `long:"rpc-user" env:"GOVD_RPC_USER" description:"node JSON-RPC username"`
	RPCPassword string        `long:"rpc-password" env:"GOVD_RPC_PASSWORD" description:"node JSON-RPC password"`
	HTTPTimeout time.Duration `long:"http-timeout" env:"GOVD_HTTP_TIMEOUT" description:"HTTP timeout for RPC requests" default:"30s"`
	Testnet     bool          `long:"testnet" env:"GOVD_TESTNET" description:"use testnet3 address parameters instead of mainnet"`

	HTTPAddr    string        `long:"http-addr" env:"GOVD_HTTP_ADDR" description:"address for the read-only query API" default:":8080"`
	MetricsAddr string        `long:"metrics-addr" env:"GOVD_METRICS_ADDR" description:"address for the metrics server" default:":2112"`
	PollInterval time.Duration `long:"poll-interval" env:"GOVD_POLL_INTERVAL" description:"how often to poll the node for a new chain tip" default:"15s"`
	Workers     int           `long:"workers" env:"GOVD_WORKERS" description:"worker count for the initial scan; 0 uses all cores" default:"0"`

	ClickhouseDSN    string        `long:"clickhouse-dsn" env:"GOVD_CLICKHOUSE_DSN" description:"ClickHouse DSN for the audit journal; leave empty to disable journaling"`
	JournalFlushSize int           `long:"journal-flush-size" env:"GOVD_JOURNAL_FLUSH_SIZE" description:"events buffered before a forced journal flush" default:"500"`
	JournalFlushEvery time.Duration `long:"journal-flush-interval" env:"GOVD_JOURNAL_FLUSH_INTERVAL" description:"max time between journal flushes" default:"5s"`
	JournalRPS       int           `long:"journal-rps" env:"GOVD_JOURNAL_RPS" description:"max journal flushes per second" default:"5"`

	// Consensus parameters (spec "Configuration consumed"). No default
	// deployment values exist anywhere in the retrieved source or spec;
	// these defaults are the spec's own illustrative scenario constants
	// (COIN = 1e8) and must be overridden for a real chain.
	SuperblockPeriod  int32  `long:"superblock-period" env:"GOVD_SUPERBLOCK_PERIOD" description:"block-height interval between superblocks" default:"1440"`
	ProposalMinAmount int64  `long:"proposal-min-amount" env:"GOVD_PROPOSAL_MIN_AMOUNT" description:"minimum proposal payout, base units" default:"1000000000"`
	ProposalFee       int64  `long:"proposal-fee" env:"GOVD_PROPOSAL_FEE" description:"fee paid by a proposal submission transaction, base units" default:"5000000"`
	ProposalCutoff    int32  `long:"proposal-cutoff" env:"GOVD_PROPOSAL_CUTOFF" description:"blocks of lead time a proposal needs before its target superblock" default:"288"`
	VotingCutoff      int32  `long:"voting-cutoff" env:"GOVD_VOTING_CUTOFF" description:"blocks of lead time a vote needs before its proposal's superblock" default:"144"`
	VoteBalance       int64  `long:"vote-balance" env:"GOVD_VOTE_BALANCE" description:"coin amount that rounds up to one whole vote, base units" default:"500000000000"`
	VoteMinUtxoAmount int64  `long:"vote-min-utxo-amount" env:"GOVD_VOTE_MIN_UTXO_AMOUNT" description:"minimum utxo value eligible to vote, base units" default:"100000000"`
	GovernanceBlock   int32  `long:"governance-block" env:"GOVD_GOVERNANCE_BLOCK" description:"first height at which governance records are recognized"`
	MaxOpReturnRelay  int    `long:"max-op-return-relay" env:"GOVD_MAX_OP_RETURN_RELAY" description:"max serialized record size, bytes" default:"4096"`
	VoteInputAmount   int64  `long:"vote-input-amount" env:"GOVD_VOTE_INPUT_AMOUNT" description:"default per-address input size the planner reserves, base units" default:"10000000"`
	SuperblockSubsidy int64  `long:"superblock-subsidy" env:"GOVD_SUPERBLOCK_SUBSIDY" description:"coinbase subsidy paid at every superblock height, base units" default:"5000000000000"`
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
		logger.Fatal("governance daemon failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	chainParams := &chaincfg.MainNetParams
	if cfg.Testnet {
		chainParams = &chaincfg.TestNet3Params
	}

	params := consensus.Params{
		SuperblockPeriod:  cfg.SuperblockPeriod,
		ProposalMinAmount: cfg.ProposalMinAmount,
		ProposalFee:       cfg.ProposalFee,
		ProposalCutoff:    cfg.ProposalCutoff,
		VotingCutoff:      cfg.VotingCutoff,
		VoteBalance:       cfg.VoteBalance,
		VoteMinUtxoAmount: cfg.VoteMinUtxoAmount,
		GovernanceBlock:   cfg.GovernanceBlock,
		MaxOpReturnRelay:  cfg.MaxOpReturnRelay,
		VoteInputAmount:   cfg.VoteInputAmount,
		BlockSubsidy:      func(int32) int64 { return cfg.SuperblockSubsidy },
	}

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init node rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	reader := chainrpc.NewClient(rpcClient, metrics.NewRPC("chain"), cfg.HTTPTimeout)

	st := store.New()
	listener := chain.New(reader, st, params, chainParams, logger, metrics.NewListener(), cfg.Workers)

	if cfg.ClickhouseDSN != "" {
		repo, err := journalclickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewRPC("journal"))
		if err != nil {
			return fmt.Errorf("init journal repository: %w", err)
		}
		sink := journal.NewSink(logger, repo, cfg.JournalFlushSize, cfg.JournalFlushEvery, cfg.JournalRPS)
		sink.Start(ctx)
		defer sink.Stop()
		listener.SetJournal(sink)
	}

	logger.Info("loading governance history", zap.Int32("governance_block", params.GovernanceBlock))
	if err := listener.LoadGovernanceData(ctx); err != nil {
		return fmt.Errorf("load governance data: %w", err)
	}

	server := httpapi.New(cfg.HTTPAddr, st, params, logger)
	go func() {
		if err := server.ListenAndServe(ctx); err != nil {
			logger.Error("query api server failed", zap.Error(err))
		}
	}()

	logger.Info("following chain tip", zap.Duration("poll_interval", cfg.PollInterval))
	if err := listener.Follow(ctx, cfg.PollInterval, nil); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("follow chain: %w", err)
	}
	return nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

// newRPCClient dials the node. HTTPTimeout is not applied here: btcd's
// ConnConfig has no per-call or dial timeout knob, so the bound is enforced
// per-call at the chainrpc.Client wrapper instead (see chainrpc.NewClient).
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

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	return rpcclient.New(cfg, nil)
}
