package pulse

import (
	"context"
	"fmt"
	"log"

	"pulse-job-scraper/internal/browser"
	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/models"
	"pulse-job-scraper/internal/scraper"
)

// Source is the live batch: render the listing, extract candidates, then enrich
// each from its detail page, all in one browser session.
type Source struct {
	cfg    *config.Config
	logger *log.Logger
}

func NewSource(cfg *config.Config, logger *log.Logger) *Source {
	return &Source{cfg: cfg, logger: logger}
}

func (s *Source) Name() models.BatchSource { return models.SourceLive }

func (s *Source) Batch(ctx context.Context) ([]models.JobRecord, error) {
	listingURL := s.cfg.Tenant.ListingURL
	s.logger.Printf("🚀 Starting scrape for %s at %s", s.cfg.Tenant.Name, listingURL)

	cookies, err := browser.LoadCookies(s.cfg.Render.CookiesFile)
	if err != nil {
		s.logger.Printf("⚠️ Ignoring cookies: %v", err)
		cookies = nil
	}

	headless := true
	if s.cfg.Render.Headless != nil {
		headless = *s.cfg.Render.Headless
	}
	pm, err := browser.NewPlaywright(ctx, browser.Options{
		Headless:  headless,
		UserAgent: s.cfg.Render.UserAgent,
		Cookies:   cookies,
	})
	if err != nil {
		return nil, &scraper.NavigationError{URL: listingURL, Err: err}
	}
	defer pm.Close()

	browserCtx, err := pm.NewContext()
	if err != nil {
		return nil, &scraper.NavigationError{URL: listingURL, Err: err}
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, &scraper.NavigationError{URL: listingURL, Err: fmt.Errorf("could not create page: %w", err)}
	}
	defer page.Close()

	rr, err := NewRenderer(s.cfg.Render, s.logger).Render(ctx, page, listingURL)
	if err != nil {
		return nil, err
	}

	records, err := NewExtractor(s.cfg.Tenant, s.cfg.Detail.MaxJobs, s.logger).Extract(rr)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("📋 %d candidates from listing", len(records))

	open := func() (DetailPage, error) {
		p, err := browserCtx.NewPage()
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	NewDetailFetcher(s.cfg.Detail, s.cfg.Render.PollInterval, s.logger).FetchAll(ctx, open, records)
	return records, nil
}
