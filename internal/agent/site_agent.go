package agent

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/pricewatch/internal/config"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/fetcher"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// Fetcher is the fetch capability a SiteAgent depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SiteAgent scrapes one store using its configured CSS selectors. All page
// requests go through the rate-limited fetcher; an additional politeness
// delay separates listing pages.
type SiteAgent struct {
	cfg     config.StoreConfig
	fetcher Fetcher
	log     logger.Interface
}

// NewSiteAgent creates a selector-driven agent for the given store.
func NewSiteAgent(cfg config.StoreConfig, f Fetcher, log logger.Interface) *SiteAgent {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = config.DefaultMaxPages
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = config.DefaultPageDelay
	}
	return &SiteAgent{
		cfg:     cfg,
		fetcher: f,
		log:     log.WithStore(cfg.ID),
	}
}

// NewSiteAgentWithFetcher builds a SiteAgent owning a fresh rate-limited
// fetcher, so request budgets stay per-agent.
func NewSiteAgentWithFetcher(store config.StoreConfig, fc fetcher.Config, log logger.Interface) *SiteAgent {
	return NewSiteAgent(store, fetcher.New(fc, log), log)
}

// Name identifies the agent for job bookkeeping.
func (a *SiteAgent) Name() string {
	if a.cfg.Name != "" {
		return a.cfg.Name
	}
	return a.cfg.ID
}

// StoreID is the store this agent scrapes.
func (a *SiteAgent) StoreID() string {
	return a.cfg.ID
}

// Listings paginates through the store's listing pages until no next page
// remains or the page ceiling is reached.
func (a *SiteAgent) Listings(ctx context.Context) ([]domain.RawListing, error) {
	var listings []domain.RawListing

	pageURL := a.cfg.StartURL
	for page := 1; page <= a.cfg.MaxPages && pageURL != ""; page++ {
		if page > 1 {
			if err := sleepContext(ctx, a.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		body, fetchErr := a.fetcher.Fetch(ctx, pageURL)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, fetchErr)
		}

		pageListings, nextURL, parseErr := a.parsePage(pageURL, body)
		if parseErr != nil {
			return nil, fmt.Errorf("parse page %d: %w", page, parseErr)
		}

		a.log.Debug("parsed listing page",
			"page", page,
			"url", pageURL,
			"listings", len(pageListings),
		)

		listings = append(listings, pageListings...)
		pageURL = nextURL
	}

	a.log.Info("scrape finished", "listings", len(listings))
	return listings, nil
}

// parsePage extracts listings and the next-page URL from one page body.
func (a *SiteAgent) parsePage(pageURL, body string) ([]domain.RawListing, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse page url: %w", err)
	}

	sel := a.cfg.Selectors
	now := time.Now()

	var listings []domain.RawListing
	doc.Find(sel.Listing).Each(func(_ int, card *goquery.Selection) {
		listing := domain.RawListing{
			Name:          text(card, sel.Name),
			Brand:         text(card, sel.Brand),
			RawPrice:      text(card, sel.Price),
			Category:      text(card, sel.Category),
			SourceStoreID: a.cfg.ID,
			InStock:       sel.OutOfStock == "" || card.Find(sel.OutOfStock).Length() == 0,
			ObservedAt:    now,
		}

		if href, ok := attr(card, sel.Link, "href"); ok {
			listing.URL = resolveURL(base, href)
		}
		if src, ok := attr(card, sel.Image, "src"); ok {
			listing.ImageURL = resolveURL(base, src)
		}

		// Malformed cards are skipped, not fatal; the pipeline validates
		// the rest.
		if listing.Name == "" && listing.URL == "" {
			return
		}
		listings = append(listings, listing)
	})

	next := ""
	if sel.NextPage != "" {
		if href, ok := attr(doc.Selection, sel.NextPage, "href"); ok {
			next = resolveURL(base, href)
		}
	}

	return listings, next, nil
}

// text returns the trimmed text of the first element matched by selector.
func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// attr returns the named attribute of the first element matched by selector.
func attr(s *goquery.Selection, selector, name string) (string, bool) {
	if selector == "" {
		return "", false
	}
	return s.Find(selector).First().Attr(name)
}

// resolveURL resolves href against the page base URL.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// sleepContext sleeps for d or returns the context error if cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
