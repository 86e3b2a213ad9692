package marketdata

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"quant-trading-bot/internal/types"
)

const maxCandlesPerSymbol = 500

// Stream keeps a rolling in-memory cache of finalized 1m candles and the
// latest trade price per symbol, fed by the exchange kline websocket.
// History for longer timeframes and cold starts falls through to REST.
type Stream struct {
	rest *Binance
	log  *zap.Logger

	mu      sync.RWMutex
	candles map[string][]types.Candle
	last    map[string]float64

	stops []chan struct{}
	dones []chan struct{}
}

func NewStream(rest *Binance) *Stream {
	log, _ := zap.NewProduction()
	return &Stream{
		rest:    rest,
		log:     log,
		candles: make(map[string][]types.Candle),
		last:    make(map[string]float64),
	}
}

func (s *Stream) Start(ctx context.Context, symbols []string) error {
	for _, sym := range symbols {
		sym := sym
		doneC, stopC, err := binance.WsKlineServe(sym, "1m", s.onKline, func(err error) {
			s.log.Warn("kline stream error", zap.String("symbol", sym), zap.Error(err))
		})
		if err != nil {
			s.log.Error("failed to start kline stream", zap.String("symbol", sym), zap.Error(err))
			return err
		}
		s.stops = append(s.stops, stopC)
		s.dones = append(s.dones, doneC)
		s.log.Info("kline stream started", zap.String("symbol", sym))
	}
	return nil
}

// Stop signals every stream to close and waits for their read loops to
// exit so no handler fires after return. Callers without a deadline get
// a bounded wait.
func (s *Stream) Stop(ctx context.Context) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	for _, stopC := range s.stops {
		close(stopC)
	}
	for _, doneC := range s.dones {
		select {
		case <-doneC:
		case <-ctx.Done():
			s.log.Warn("kline stream did not stop before deadline")
		}
	}
	s.stops = nil
	s.dones = nil
	_ = s.log.Sync()
}

func (s *Stream) onKline(event *binance.WsKlineEvent) {
	if event == nil {
		return
	}
	k := event.Kline
	closePx, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		s.log.Warn("unparseable kline close", zap.String("symbol", event.Symbol), zap.String("close", k.Close))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[event.Symbol] = closePx

	if !k.IsFinal {
		return
	}
	o, _ := strconv.ParseFloat(k.Open, 64)
	h, _ := strconv.ParseFloat(k.High, 64)
	l, _ := strconv.ParseFloat(k.Low, 64)
	v, _ := strconv.ParseFloat(k.Volume, 64)
	cs := append(s.candles[event.Symbol], types.Candle{
		Ts:    k.StartTime / 1000,
		Open:  o,
		High:  h,
		Low:   l,
		Close: closePx,
		Vol:   v,
	})
	if len(cs) > maxCandlesPerSymbol {
		cs = cs[len(cs)-maxCandlesPerSymbol:]
	}
	s.candles[event.Symbol] = cs
}

func (s *Stream) Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	if timeframe == "1m" {
		s.mu.RLock()
		cached := s.candles[symbol]
		if len(cached) >= lookback {
			out := make([]types.Candle, lookback)
			copy(out, cached[len(cached)-lookback:])
			s.mu.RUnlock()
			return out, nil
		}
		s.mu.RUnlock()
	}
	return s.rest.Klines(ctx, symbol, timeframe, lookback)
}

func (s *Stream) LastPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	px, ok := s.last[symbol]
	s.mu.RUnlock()
	if ok && px > 0 {
		return px, nil
	}
	return s.rest.LastPrice(ctx, symbol)
}
