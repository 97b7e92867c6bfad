package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pulse-job-scraper/internal/browser"
	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/scraper"
	"pulse-job-scraper/utils"

	"github.com/playwright-community/playwright-go"
)

// Page is the part of playwright.Page the renderer drives.
type Page interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
	Content() (string, error)
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
}

// RenderResult is the post-hydration state of the listing page.
type RenderResult struct {
	URL          string
	CardSelector string
	// Structured holds the hydrated component state, empty when it was unreadable.
	Structured []listingEntry
	// StructuredErr records why Structured is empty, for logging only.
	StructuredErr error
	// HTML is the rendered DOM snapshot taken after scrolling.
	HTML string
}

const (
	triggerLoadScript = "() => { if (typeof load === 'function') { load(); return true; } return false; }"
	countCardsScript  = "(sel) => document.querySelectorAll(sel).length"

	structuredScript = `([container, cardSel]) => {
	const el = document.querySelector(container);
	const vm = el && el.__vue__;
	if (!vm || !Array.isArray(vm.jobs) || vm.jobs.length === 0) return "[]";
	const cards = Array.from(document.querySelectorAll(cardSel));
	return JSON.stringify(vm.jobs.map((job, i) => {
		const info = job.JobInfo || {};
		const card = cards[i];
		const anchor = card ? card.querySelector('a[href*="/Pulse/jobs/job/"]') : null;
		const href = anchor ? anchor.href : "";
		const slug = href ? (href.split("?")[0].split("/").filter(Boolean).pop() || "") : "";
		return {
			linkId: job.LinkId ?? null,
			title: info.Title ?? null,
			closingDate: info.ClosingDate ?? null,
			compensation: info.Compensation ?? null,
			location: info.Location ?? null,
			department: info.Department ?? null,
			employmentType: info.EmploymentType ?? null,
			workArrangement: info.WorkArrangement ?? null,
			jobRef: info.JobRef ?? null,
			detailHref: href,
			domHref: href,
			slug: slug,
		};
	}));
}`
)

// Renderer loads the listing page, waits for client-side hydration and captures
// everything the extractor needs in one RenderResult.
type Renderer struct {
	cfg         config.Render
	screenshots *utils.ScreenShotDebugger
	logger      *log.Logger
}

func NewRenderer(cfg config.Render, logger *log.Logger) *Renderer {
	return &Renderer{
		cfg:         cfg,
		screenshots: utils.NewScreenShotDebugger(cfg.ScreenshotDir, logger),
		logger:      logger,
	}
}

// Render navigates to url and returns the hydrated page state. Failures are typed:
// *scraper.NavigationError when the page never loads, *scraper.RenderTimeoutError
// when fewer than MinCardThreshold cards appear in time.
func (r *Renderer) Render(ctx context.Context, page Page, url string) (*RenderResult, error) {
	r.logger.Printf("🌐 Navigating to %s", url)
	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   pageTimeout(r.cfg.NavigationTimeout),
	})
	if err != nil {
		r.capture(page, "pulse-navigation", "🚨 Navigation failed")
		return nil, &scraper.NavigationError{URL: url, Err: err}
	}
	if resp != nil && resp.Status() >= 400 {
		r.capture(page, "pulse-navigation", "🚨 Listing page returned an error status")
		return nil, &scraper.NavigationError{URL: url, Err: fmt.Errorf("http status %d", resp.Status())}
	}

	if triggered, err := page.Evaluate(triggerLoadScript); err != nil {
		r.logger.Printf("⚠️ Could not trigger load(): %v", err)
	} else if ok, _ := triggered.(bool); ok {
		r.logger.Println("🔄 Triggered client-side load()")
	}

	found, err := r.waitForCards(ctx, page)
	if err != nil {
		if errors.Is(err, browser.ErrWaitTimeout) {
			r.capture(page, "pulse-hydration", fmt.Sprintf("🚨 Only %d listing cards after %s", found, r.cfg.HydrationTimeout))
			return nil, &scraper.RenderTimeoutError{URL: url, Found: found, Want: r.cfg.MinCardThreshold, Timeout: r.cfg.HydrationTimeout}
		}
		return nil, &scraper.NavigationError{URL: url, Err: err}
	}
	r.logger.Printf("✅ %d listing cards hydrated", found)

	err = browser.ScrollToBottom(ctx, page, r.cfg.ScrollPasses, r.cfg.ScrollDelay, func(pass int) {
		if pass == r.cfg.ScrollPasses || pass%5 == 0 {
			r.logger.Printf("   Scroll %d/%d complete", pass, r.cfg.ScrollPasses)
		}
	})
	if err != nil {
		return nil, &scraper.NavigationError{URL: url, Err: fmt.Errorf("scroll: %w", err)}
	}

	result := &RenderResult{URL: url, CardSelector: r.cfg.CardSelector}
	result.Structured, result.StructuredErr = r.readStructured(page)
	if result.StructuredErr != nil {
		r.logger.Printf("⚠️ Hydrated state unavailable: %v", result.StructuredErr)
	} else {
		r.logger.Printf("📦 Hydrated state: %d jobs", len(result.Structured))
	}

	html, err := page.Content()
	if err != nil {
		return nil, &scraper.NavigationError{URL: url, Err: fmt.Errorf("read page content: %w", err)}
	}
	result.HTML = html
	return result, nil
}

func (r *Renderer) waitForCards(ctx context.Context, page Page) (int, error) {
	found := 0
	err := browser.Poll(ctx, r.cfg.HydrationTimeout, r.cfg.PollInterval, func() (bool, error) {
		v, err := page.Evaluate(countCardsScript, r.cfg.CardSelector)
		if err != nil {
			return false, err
		}
		found = toInt(v)
		return found >= r.cfg.MinCardThreshold, nil
	})
	return found, err
}

func (r *Renderer) readStructured(page Page) ([]listingEntry, error) {
	v, err := page.Evaluate(structuredScript, []string{r.cfg.DataContainer, r.cfg.CardSelector})
	if err != nil {
		return nil, err
	}
	raw, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected hydrated state type %T", v)
	}
	var entries []listingEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode hydrated state: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("no jobs in hydrated state")
	}
	return entries, nil
}

func (r *Renderer) capture(page Page, name, message string) {
	_, _ = r.screenshots.CaptureAndLog(page, name, message)
}

// toInt converts a number returned by page.Evaluate.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// pageTimeout converts a duration into the millisecond float playwright expects.
func pageTimeout(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
