// Package scraper retrieves product listings from the IndiaMART search
// interface. It owns the network concerns the ETL core does not: request
// throttling, retries with backoff, and HTML-to-record extraction.
package scraper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/slooze/marketpulse/internal/etl"
	"github.com/slooze/marketpulse/internal/table"
)

// Options configures the scraper.
type Options struct {
	BaseURL    string
	SearchURL  string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// MinDelay/MaxDelay bound the randomized pause between requests.
	MinDelay time.Duration
	MaxDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = "https://www.indiamart.com"
	}
	if o.SearchURL == "" {
		o.SearchURL = "https://www.indiamart.com/search.mp"
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.MinDelay == 0 {
		o.MinDelay = 2 * time.Second
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay + 3*time.Second
	}
	return o
}

// Scraper fetches and extracts marketplace search results.
type Scraper struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
	base    *url.URL
}

// New creates a Scraper. The rate limiter is tuned to the configured
// minimum delay; an additional random pause up to MaxDelay spreads the
// request pattern.
func New(opts Options) (*Scraper, error) {
	opts = opts.withDefaults()

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: parse base url %s", opts.BaseURL)
	}

	return &Scraper{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(opts.MinDelay), 1),
		opts:    opts,
		base:    base,
	}, nil
}

// Card-matching selectors mirror the marketplace's class naming, which
// shifts between renders; the listing-item form is the fallback.
var (
	productCardRe = regexp.MustCompile(`(?i)product.*card`)
	listingItemRe = regexp.MustCompile(`(?i)listing.*item`)
	titleClassRe  = regexp.MustCompile(`(?i)title|name`)
	priceClassRe  = regexp.MustCompile(`(?i)price`)
	companyRe     = regexp.MustCompile(`(?i)company|seller`)
	locationRe    = regexp.MustCompile(`(?i)location|city`)
)

// SearchProducts pages through search results for one query, stopping at
// maxPages or at the first page with no product cards.
func (s *Scraper) SearchProducts(ctx context.Context, query string, maxPages int) ([]map[string]any, error) {
	log := zap.L().With(zap.String("query", query))
	log.Info("scraper: starting search")

	var products []map[string]any
	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("%s?ss=%s&page=%d", s.opts.SearchURL, url.QueryEscape(query), page)

		doc, err := s.fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return products, eris.Wrap(ctx.Err(), "scraper: search cancelled")
			}
			log.Warn("scraper: giving up on page", zap.Int("page", page), zap.Error(err))
			break
		}

		cards := extractCards(doc, query, s.base)
		log.Info("scraper: extracted page", zap.Int("page", page), zap.Int("products", len(cards)))
		if len(cards) == 0 {
			break
		}
		products = append(products, cards...)
	}

	log.Info("scraper: search complete", zap.Int("total", len(products)))
	return products, nil
}

// ScrapeCategories runs SearchProducts per category, preserving category
// order in the result set.
func (s *Scraper) ScrapeCategories(ctx context.Context, categories []string, maxPages int) (*etl.RawSet, error) {
	set := &etl.RawSet{}
	for _, category := range categories {
		products, err := s.SearchProducts(ctx, category, maxPages)
		if err != nil {
			return set, err
		}
		set.Categories = append(set.Categories, etl.RawCategory{Name: category, Records: products})
		zap.L().Info("scraper: category collected",
			zap.String("category", category),
			zap.Int("products", len(products)),
		)
	}
	return set, nil
}

// fetch performs a throttled GET with retries and returns the parsed
// document. Retries use a jittered backoff, growing per attempt.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < s.opts.MaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scraper: rate limiter wait")
		}
		s.pause(ctx)

		doc, err := s.get(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
		zap.L().Warn("scraper: request failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		s.backoff(ctx, attempt)
	}
	return nil, eris.Wrapf(lastErr, "scraper: fetch %s failed after %d attempts", rawURL, s.opts.MaxRetries)
}

func (s *Scraper) get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: create request")
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("scraper: http %d from %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse html")
	}
	return doc, nil
}

// pause sleeps for the random remainder between MinDelay and MaxDelay.
// The limiter already enforced MinDelay.
func (s *Scraper) pause(ctx context.Context) {
	spread := s.opts.MaxDelay - s.opts.MinDelay
	if spread <= 0 {
		return
	}
	sleep(ctx, rand.N(spread))
}

func (s *Scraper) backoff(ctx context.Context, attempt int) {
	d := 5*time.Second + time.Duration(attempt)*5*time.Second
	sleep(ctx, d+rand.N(d/2))
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ExtractCards pulls product records out of a search results page. A card
// yields a record only when it has a product name. Separated from fetching
// so fixture HTML can exercise it directly.
func ExtractCards(doc *goquery.Document, category string) []map[string]any {
	return extractCards(doc, category, nil)
}

func extractCards(doc *goquery.Document, category string, base *url.URL) []map[string]any {
	if base == nil {
		base = defaultBase
	}
	cards := doc.Find("div").FilterFunction(classMatches(productCardRe))
	if cards.Length() == 0 {
		cards = doc.Find("div").FilterFunction(classMatches(listingItemRe))
	}

	var products []map[string]any
	cards.Each(func(_ int, card *goquery.Selection) {
		if p := extractCard(card, category, base); p != nil {
			products = append(products, p)
		}
	})
	return products
}

func classMatches(re *regexp.Regexp) func(int, *goquery.Selection) bool {
	return func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		return re.MatchString(class)
	}
}

func extractCard(card *goquery.Selection, category string, base *url.URL) map[string]any {
	product := map[string]any{
		"category":  category,
		"timestamp": time.Now().Format(table.TimeLayout),
	}

	name := firstText(card.Find("h2,h3,div").FilterFunction(classMatches(titleClassRe)))
	if name == "" {
		return nil
	}
	product["product_name"] = name

	if priceText := firstText(card.Find("span,div").FilterFunction(classMatches(priceClassRe))); priceText != "" {
		product["price_raw"] = priceText
		if f, ok := etl.CoercePrice(priceText); ok {
			product["price"] = f
		} else {
			product["price"] = nil
		}
	}

	if company := firstText(card.Find("div,span").FilterFunction(classMatches(companyRe))); company != "" {
		product["company_name"] = company
	}
	if location := firstText(card.Find("span,div").FilterFunction(classMatches(locationRe))); location != "" {
		product["location"] = location
	}

	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		product["product_url"] = resolveURL(base, href)
	}
	if src, ok := card.Find("img").First().Attr("src"); ok && src != "" {
		product["image_url"] = src
	}

	return product
}

func firstText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

var defaultBase, _ = url.Parse("https://www.indiamart.com")

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
