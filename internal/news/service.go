// Package news scrapes crypto headlines and scores their sentiment so
// the signal prompt can carry recent market context.
package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/store"
)

// Service provides cached headline sentiment per symbol.
type Service struct {
	scraper      *Scraper
	analyzer     *Analyzer
	maxHeadlines int

	mu    sync.RWMutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	sentiment Sentiment
	fetchedAt time.Time
}

func NewService(cfg *store.Config) *Service {
	timeout := time.Duration(cfg.News.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxHeadlines := cfg.News.MaxHeadlines
	if maxHeadlines <= 0 {
		maxHeadlines = 10
	}
	return &Service{
		scraper:      NewScraper(timeout),
		analyzer:     NewAnalyzer(),
		maxHeadlines: maxHeadlines,
		cache:        make(map[string]cacheEntry),
		ttl:          time.Hour,
	}
}

// GetSentiment returns cached sentiment for the symbol, scraping fresh
// headlines when the cache is stale. Scrape failures degrade to a
// neutral result rather than an error.
func (s *Service) GetSentiment(ctx context.Context, symbol string) Sentiment {
	s.mu.RLock()
	entry, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < s.ttl {
		return entry.sentiment
	}

	articles, err := s.scraper.Scrape(ctx, symbol, s.maxHeadlines)
	if err != nil {
		logger.ErrorWithErr(ctx, "Headline fetch failed", err, "symbol", symbol)
		return Sentiment{Symbol: symbol, Label: "NEUTRAL"}
	}
	sentiment := s.analyzer.Aggregate(symbol, articles)

	s.mu.Lock()
	s.cache[symbol] = cacheEntry{sentiment: sentiment, fetchedAt: time.Now()}
	s.mu.Unlock()

	logger.Info(ctx, "Headline sentiment refreshed",
		"symbol", symbol,
		"label", sentiment.Label,
		"score", sentiment.Score,
		"headlines", len(sentiment.Headlines),
	)
	return sentiment
}

// Digest renders the current sentiment as a short prompt fragment.
// Returns "" when there is nothing useful to add.
func (s *Service) Digest(ctx context.Context, symbol string) string {
	sent := s.GetSentiment(ctx, symbol)
	if len(sent.Headlines) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent news sentiment: %s (score %.2f, %d headlines).\n",
		sent.Label, sent.Score, len(sent.Headlines))
	n := len(sent.Headlines)
	if n > 5 {
		n = 5
	}
	for _, h := range sent.Headlines[:n] {
		b.WriteString("- " + h + "\n")
	}
	return b.String()
}

// ClearCache drops all cached sentiment.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cacheEntry)
}
