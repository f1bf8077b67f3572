// Package httpapi exposes a read-only HTTP/JSON view over the governance
// state store and tally engine, the same server-construction and
// graceful-shutdown shape cmd/api-gateway/main.go uses for its REST
// gateway, with the gRPC/grpc-gateway transport swapped for a plain
// gorilla/mux router since there is no generated service here.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/consensus"
	"github.com/blockvote/governance/internal/gov/store"
)

// Server is a read-only query surface over a Store: it derives nothing new
// from the chain and is never consulted by the listener, planner, or
// validator. A rescan from the chain reproduces identical engine state with
// this server absent entirely.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New builds a Server listening on addr, serving params.Params queries
// against st.
func New(addr string, st *store.Store, params consensus.Params, logger *zap.Logger) *Server {
	h := &handler{store: st, params: params, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/proposals", h.listProposals).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}", h.getProposal).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}/votes", h.listVotesFor).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{hash}/tally", h.tally).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           cors.Default().Handler(r),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
		},
		logger: logger,
	}
}

// ListenAndServe runs the server until ctx is done, then shuts it down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down governance query API")
		if err := s.http.Shutdown(context.Background()); err != nil {
			s.logger.Error("failed to shut down governance query API", zap.Error(err))
		}
	}()

	s.logger.Info("starting governance query API", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
