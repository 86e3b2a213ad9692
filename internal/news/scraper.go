package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"quant-trading-bot/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Article is one scraped headline with optional body text.
type Article struct {
	Title       string
	URL         string
	Content     string
	Source      string
	PublishedAt string
	Symbol      string
}

// Source describes one crypto news site and the selectors that locate
// its headline listings.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced with the search term
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors are the CSS paths for pulling article data out of a listing page.
type Selectors struct {
	Container   string
	Title       string
	URL         string
	Summary     string
	PublishedAt string
}

// Scraper pulls recent headlines for a symbol from a fixed set of sources.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "CoinDesk",
			BaseURL:    "https://www.coindesk.com",
			SearchPath: "/search?s={symbol}",
			Selectors: Selectors{
				Container:   "div.article-card",
				Title:       "a.card-title, h6 a",
				URL:         "a.card-title, h6 a",
				Summary:     "p",
				PublishedAt: "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Cointelegraph",
			BaseURL:    "https://cointelegraph.com",
			SearchPath: "/search?query={symbol}",
			Selectors: Selectors{
				Container:   "article",
				Title:       "a span, h2 a",
				URL:         "a",
				Summary:     "p",
				PublishedAt: "time",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Scrape fetches up to maxArticles headlines for the symbol across all sources.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxArticles int) ([]Article, error) {
	term := searchTerm(symbol)
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []Article
	for _, src := range s.sources {
		articles, err := s.scrapeSource(ctx, src, term, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "News source scrape failed", err, "source", src.Name, "symbol", symbol)
			continue
		}
		all = append(all, articles...)
		time.Sleep(src.RateLimit)
	}

	logger.Info(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, term, symbol string, maxArticles int) ([]Article, error) {
	var articles []Article

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(src.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(src.Selectors.URL, "href")
		if link == "" {
			return
		}
		if !strings.HasPrefix(link, "http") {
			link = src.BaseURL + link
		}
		articles = append(articles, Article{
			Title:       title,
			URL:         link,
			Content:     strings.TrimSpace(e.ChildText(src.Selectors.Summary)),
			Source:      src.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(src.Selectors.PublishedAt)),
			Symbol:      symbol,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", src.Name, "url", r.Request.URL.String())
	})

	searchURL := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.QueryEscape(term))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()

	return articles, nil
}

// FetchBody downloads an article page and extracts its paragraph text.
func (s *Scraper) FetchBody(ctx context.Context, articleURL string) string {
	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	var body string
	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.Body)))
		if err != nil {
			return
		}
		var paras []string
		doc.Find("article p, div.article-body p, div.post-content p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paras = append(paras, text)
			}
		})
		body = strings.Join(paras, "\n\n")
	})

	if err := c.Visit(articleURL); err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch article body", err, "url", articleURL)
		return ""
	}
	return body
}

// searchTerm strips the quote currency from a pair symbol so searches
// get the asset name, e.g. BTCUSDT -> BTC.
func searchTerm(symbol string) string {
	up := strings.ToUpper(symbol)
	for _, quote := range []string{"USDT", "BUSD", "USDC", "USD"} {
		if strings.HasSuffix(up, quote) && len(up) > len(quote) {
			return up[:len(up)-len(quote)]
		}
	}
	return up
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
