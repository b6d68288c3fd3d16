package quoteapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/market"
	"poolScope/internal/model"
)

const maxConcurrentFetches = 8

// Server serves the quote endpoint consumed by market.Fetcher.
type Server struct {
	upstream *Upstream
	logger   *zap.Logger
	http     *http.Server
}

// NewServer creates the HTTP server listening on addr.
func NewServer(upstream *Upstream, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{upstream: upstream, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc(market.QuotePath, s.handleQuotes).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("quote api listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleQuotes passes a single symbol's chart through unchanged and answers
// several symbols with the normalized map.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))

	if len(symbols) == 1 {
		body, err := s.upstream.Chart(r.Context(), symbols[0])
		if err != nil {
			s.logger.Error("chart fetch failed", zap.String("symbol", symbols[0]), zap.Error(err))
			var upstreamErr *UpstreamError
			if errors.As(err, &upstreamErr) {
				writeJSON(w, upstreamErr.StatusCode, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
		return
	}

	quotes, err := s.fetchAll(r.Context(), symbols)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// fetchAll normalizes every symbol in parallel. Symbols that fail are left
// out; the call fails only when every symbol failed.
func (s *Server) fetchAll(ctx context.Context, symbols []string) (map[string]model.MarketData, error) {
	var (
		mu      sync.Mutex
		quotes  = make(map[string]model.MarketData, len(symbols))
		lastErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			data, err := s.upstream.Quote(gctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
				lastErr = err
				return nil
			}
			quotes[symbol] = data
			return nil
		})
	}
	_ = g.Wait()

	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "poolscope-quotes",
	})
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
