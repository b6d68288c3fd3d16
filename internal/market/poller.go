package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/model"
)

// DefaultPollInterval is the refresh period of a Poller.
const DefaultPollInterval = 15 * time.Second

// Source fetches market data for one symbol.
type Source interface {
	FetchMarketData(ctx context.Context, symbol string) model.MarketData
}

// Ticker is the subset of time.Ticker used by the poller.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// PollState is the current view of a Poller.
type PollState struct {
	Symbol     string
	MarketData model.MarketData
	IsLoading  bool
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval  time.Duration
	Logger    *zap.Logger
	OnUpdate  func(PollState)
	NewTicker func(time.Duration) Ticker
}

// Poller keeps market data for one symbol fresh. It fetches once when the
// symbol is set and then once per interval until the symbol changes or the
// poller is closed. Results of a superseded symbol are dropped.
//
// OnUpdate calls are serialized and may call SetSymbol. They must not call
// Close, which waits for the poll loops to exit.
type Poller struct {
	source    Source
	interval  time.Duration
	logger    *zap.Logger
	onUpdate  func(PollState)
	newTicker func(time.Duration) Ticker

	// deliverMu is held through onUpdate.
	deliverMu sync.Mutex
	runs      sync.WaitGroup

	mu         sync.Mutex
	state      PollState
	generation uint64
	running    bool
	cancel     context.CancelFunc
}

// NewPoller builds a Poller over source.
func NewPoller(source Source, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = newTimeTicker
	}
	return &Poller{
		source:    source,
		interval:  cfg.Interval,
		logger:    cfg.Logger,
		onUpdate:  cfg.OnUpdate,
		newTicker: cfg.NewTicker,
	}
}

// SetSymbol switches the polled symbol. The empty symbol stops polling
// without fetching. The previous poll loop is cancelled and exits on its own.
func (p *Poller) SetSymbol(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && p.state.Symbol == symbol {
		return
	}

	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	generation := p.generation
	p.state = PollState{Symbol: symbol}
	p.running = false
	p.cancel = nil

	if symbol == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	p.state.IsLoading = true
	p.runs.Add(1)
	go p.run(ctx, generation, symbol)
}

// State returns the latest poll state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops polling and waits for every poll loop to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	p.running = false
	p.state.IsLoading = false
	p.cancel = nil
	p.mu.Unlock()

	p.runs.Wait()
}

func (p *Poller) run(ctx context.Context, generation uint64, symbol string) {
	defer p.runs.Done()

	p.poll(ctx, generation, symbol)
	if ctx.Err() != nil {
		return
	}

	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.poll(ctx, generation, symbol)
		}
	}
}

func (p *Poller) poll(ctx context.Context, generation uint64, symbol string) {
	data := p.source.FetchMarketData(ctx, symbol)

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		p.logger.Debug("drop stale market data", zap.String("symbol", symbol), zap.Uint64("generation", generation))
		return
	}
	p.state = PollState{Symbol: symbol, MarketData: data}
	state := p.state
	onUpdate := p.onUpdate
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(state)
	}
}
