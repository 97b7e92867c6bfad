package pulse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"pulse-job-scraper/internal/browser"
	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/filter"
	"pulse-job-scraper/internal/models"
	"pulse-job-scraper/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/time/rate"
)

const (
	maxDescription  = 5000
	maxRequirements = 10
	maxKeyCriteria  = 5
)

var (
	detailSelectors = []string{".job-description", ".role-overview", ".jobSummary", "article", "main", ".job-detail", ".job-details"}
	expandPatterns  = []string{"view more", "show more", "see more", "read more", "expand"}

	requirementHeadings = []string{"requirements", "skills", "responsibilities", "experience"}
	criteriaHeadings    = []string{"key selection criteria"}
	benefitHeadings     = []string{"benefits", "perks", "what we offer"}

	moneyRegex = regexp.MustCompile(`\$|\d{1,3},\d{3}|\d{4,}`)
)

const (
	detailReadyScript = "(sels) => sels.some(s => document.querySelector(s) !== null)"
	bodyTextScript    = "() => document.body ? document.body.innerText : ''"

	// Only in-page toggles are clicked; real links would navigate away.
	expandScript = `(patterns) => {
	const re = new RegExp(patterns.join("|"), "i");
	let clicked = 0;
	document.querySelectorAll("button, [role=button], a").forEach(el => {
		if (el.tagName === "A") {
			const href = (el.getAttribute("href") || "").trim();
			if (href !== "" && href !== "#" && !href.startsWith("javascript:")) return;
		}
		if (!re.test((el.innerText || "").trim())) return;
		try { el.click(); clicked++; } catch (e) {}
	});
	return clicked;
}`
)

// Detail holds the extended fields read from one detail page.
type Detail struct {
	Description             string
	Requirements            []string
	KeyCriteria             []string
	ApplicationInstructions string
	ContactInfo             string
	BandLevel               string
	Benefits                string
	Attachments             []string
	NumPositions            int
	EEOStatement            string
	PostedDate              string
	// Text is the visible body text, kept for label fallbacks.
	Text string
}

// ParseDetail extracts the extended fields from a rendered detail page. bodyText is
// the page's visible text; when empty it is derived from rawHTML.
func ParseDetail(rawHTML, bodyText, pageURL string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Detail{}, fmt.Errorf("parse detail html: %w", err)
	}

	text := strings.TrimSpace(bodyText)
	if text == "" {
		text = selectionText(doc.Find("body"))
	}

	d := Detail{
		Description:             describe(doc, text),
		Requirements:            limit(sectionBullets(doc, requirementHeadings), maxRequirements),
		KeyCriteria:             limit(sectionBullets(doc, criteriaHeadings), maxKeyCriteria),
		ApplicationInstructions: extractApplicationInstructions(text),
		ContactInfo:             extractContactInfo(text),
		BandLevel:               extractBandLevel(text),
		Attachments:             attachments(doc, pageURL),
		NumPositions:            extractNumPositions(text),
		EEOStatement:            extractEEO(text),
		PostedDate:              extractPostedDate(text),
		Text:                    text,
	}
	if benefits := sectionBullets(doc, benefitHeadings); len(benefits) > 0 {
		d.Benefits = strings.Join(benefits, models.ListSeparator)
	} else {
		d.Benefits = extractSuperannuation(text)
	}
	return d, nil
}

// ApplyDetail copies d onto rec, fills listing gaps from labelled detail text and
// recomputes the derived fields.
func ApplyDetail(rec *models.JobRecord, d Detail) {
	rec.Description = d.Description
	rec.Requirements = d.Requirements
	rec.KeyCriteria = d.KeyCriteria
	rec.ApplicationInstructions = d.ApplicationInstructions
	rec.ContactInfo = d.ContactInfo
	rec.BandLevelSnippet = d.BandLevel
	rec.Benefits = d.Benefits
	rec.Attachments = d.Attachments
	rec.NumPositions = d.NumPositions
	rec.EEOStatement = d.EEOStatement
	rec.PostedDate = d.PostedDate

	if rec.Salary == "" && d.Text != "" {
		raw := extractLabelValue(d.Text, "salary", "remuneration", "classification", "band", "pay rate")
		if salary, salaryType := parseSalary(raw); salary != "" && moneyRegex.MatchString(salary) {
			rec.Salary, rec.SalaryType = salary, salaryType
		}
	}
	if rec.ClosingDate == "" && d.Text != "" {
		raw := extractLabelValue(d.Text, "closing date", "applications close", "applications closing", "closes")
		if raw != "" {
			rec.ClosingDate = filter.ParseDate(raw)
			if t := parseClosingTime(raw); t != "" {
				rec.ClosingTime = t
			}
		}
	}

	rec.JobCategory = inferJobCategory(rec.Department, rec.BandLevelSnippet)
	rec.Finalize(rec.TenantID, rec.Council)
}

func describe(doc *goquery.Document, text string) string {
	joined := strings.Join(detailSelectors, ", ")
	var parts []string
	doc.Find(joined).Each(func(_ int, s *goquery.Selection) {
		// nested matches (article inside main) would repeat the same text
		if s.ParentsFiltered(joined).Length() > 0 {
			return
		}
		if t := collapse(selectionText(s)); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 && text != "" {
		parts = append(parts, collapse(text))
	}
	return truncateRunes(strings.TrimSpace(strings.Join(parts, " ")), maxDescription)
}

// sectionBullets returns list items of the first list following any heading whose
// text contains one of keywords.
func sectionBullets(doc *goquery.Document, keywords []string) []string {
	var items []string
	doc.Find("h1, h2, h3, h4, h5, strong, p").Each(func(_ int, heading *goquery.Selection) {
		text := strings.ToLower(collapse(heading.Text()))
		if text == "" {
			return
		}
		for _, keyword := range keywords {
			if !strings.Contains(text, keyword) {
				continue
			}
			heading.NextAllFiltered("ul, ol").First().Find("li").Each(func(_ int, li *goquery.Selection) {
				items = append(items, li.Text())
			})
		}
	})
	return dedupe(items)
}

func attachments(doc *goquery.Document, pageURL string) []string {
	base, _ := url.Parse(pageURL)
	var out []string
	doc.Find(`a[href*=".pdf"]`).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		out = append(out, ref.String())
	})
	return dedupe(out)
}

// DetailPage is the part of playwright.Page the detail fetcher drives.
type DetailPage interface {
	Page
	Close(options ...playwright.PageCloseOptions) error
}

// PageOpener opens a fresh tab in the run's browser context.
type PageOpener func() (DetailPage, error)

// DetailFetcher visits detail pages one at a time, throttled to the configured rate.
type DetailFetcher struct {
	cfg          config.Detail
	pollInterval time.Duration
	limiter      *rate.Limiter
	logger       *log.Logger
}

func NewDetailFetcher(cfg config.Detail, pollInterval time.Duration, logger *log.Logger) *DetailFetcher {
	return &DetailFetcher{
		cfg:          cfg,
		pollInterval: pollInterval,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:       logger,
	}
}

// FetchAll enriches records in place. A failed detail page leaves its record with
// listing-level fields only.
func (f *DetailFetcher) FetchAll(ctx context.Context, open PageOpener, records []models.JobRecord) {
	failed := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			f.logger.Printf("⚠️ Detail stage stopped after %d/%d records: %v", i, len(records), err)
			return
		}
		if err := f.Fetch(ctx, open, &records[i]); err != nil {
			failed++
			f.logger.Printf("⚠️ %v", err)
			continue
		}
		f.logger.Printf("   Added job: %s (Ref: %s)", records[i].Title, records[i].ReferenceNumber)
	}
	f.logger.Printf("📄 Detail pages: %d ok, %d failed", len(records)-failed, failed)
}

// Fetch loads one detail page and applies its fields to rec.
func (f *DetailFetcher) Fetch(ctx context.Context, open PageOpener, rec *models.JobRecord) error {
	target := rec.SourceURL
	fail := func(err error) error { return &scraper.DetailFetchError{URL: target, Err: err} }

	if !validDetailURL(target) {
		return fail(errors.New("detail URL missing or invalid"))
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	page, err := open()
	if err != nil {
		return fail(fmt.Errorf("open page: %w", err))
	}
	defer page.Close()

	resp, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   pageTimeout(f.cfg.Timeout),
	})
	if err != nil {
		return fail(err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fail(fmt.Errorf("http status %d", resp.Status()))
	}

	err = browser.Poll(ctx, f.cfg.Timeout, f.pollInterval, func() (bool, error) {
		v, err := page.Evaluate(detailReadyScript, detailSelectors)
		if err != nil {
			return false, err
		}
		ready, _ := v.(bool)
		return ready, nil
	})
	if err != nil {
		return fail(fmt.Errorf("waiting for detail content: %w", err))
	}

	if v, err := page.Evaluate(expandScript, expandPatterns); err == nil && toInt(v) > 0 {
		_ = browser.Sleep(ctx, 300*time.Millisecond)
	}

	html, err := page.Content()
	if err != nil {
		return fail(fmt.Errorf("read content: %w", err))
	}
	text := ""
	if v, err := page.Evaluate(bodyTextScript); err == nil {
		text, _ = v.(string)
	}

	d, err := ParseDetail(html, text, target)
	if err != nil {
		return fail(err)
	}
	ApplyDetail(rec, d)
	return nil
}
