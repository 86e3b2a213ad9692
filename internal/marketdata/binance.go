package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"

	"quant-trading-bot/internal/types"
)

// Binance fetches candle history and spot prices over the exchange REST
// API. Stateless; safe for concurrent use.
type Binance struct {
	client *binance.Client
}

func NewBinance(apiKey, secretKey string) *Binance {
	return &Binance{client: binance.NewClient(apiKey, secretKey)}
}

func (b *Binance) Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	raw, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(lookback).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: klines %s %s: %v", ErrDataUnavailable, symbol, timeframe, err)
	}
	cs := make([]types.Candle, 0, len(raw))
	for _, k := range raw {
		c, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed kline for %s: %v", ErrDataUnavailable, symbol, err)
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func (b *Binance) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: price %s: %v", ErrDataUnavailable, symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: no price returned for %s", ErrDataUnavailable, symbol)
	}
	p, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad price for %s: %v", ErrDataUnavailable, symbol, err)
	}
	return p, nil
}

func (b *Binance) Start(ctx context.Context, symbols []string) error { return nil }
func (b *Binance) Stop(ctx context.Context)                          {}

func parseKline(k *binance.Kline) (types.Candle, error) {
	o, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.Candle{}, err
	}
	h, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.Candle{}, err
	}
	l, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.Candle{}, err
	}
	c, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.Candle{}, err
	}
	v, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.Candle{}, err
	}
	return types.Candle{
		Ts:    k.OpenTime / 1000,
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
		Vol:   v,
	}, nil
}
