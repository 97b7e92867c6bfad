package pulse

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/filter"
	"pulse-job-scraper/internal/models"
	"pulse-job-scraper/internal/scraper"

	"github.com/PuerkitoBio/goquery"
)

// flexString accepts JSON strings, numbers, booleans and null. Hydrated page state
// is loosely typed (LinkId is sometimes numeric).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = flexString(strings.Trim(string(b), `"`))
	return nil
}

func (f flexString) String() string { return string(f) }

// listingEntry holds the raw listing-level values of one card, whichever strategy produced it.
type listingEntry struct {
	LinkID          flexString `json:"linkId"`
	Title           flexString `json:"title"`
	ClosingDate     flexString `json:"closingDate"`
	Compensation    flexString `json:"compensation"`
	Location        flexString `json:"location"`
	Department      flexString `json:"department"`
	EmploymentType  flexString `json:"employmentType"`
	WorkArrangement flexString `json:"workArrangement"`
	JobRef          flexString `json:"jobRef"`
	DetailHref      flexString `json:"detailHref"`
	DomHref         flexString `json:"domHref"`
	URL             flexString `json:"url"`
	Slug            flexString `json:"slug"`
}

// ListingStrategy is one way of reading listing entries out of a render.
type ListingStrategy interface {
	Name() string
	// Available is the capability probe: can this strategy read rr at all?
	Available(rr *RenderResult) bool
	Entries(rr *RenderResult) ([]listingEntry, error)
}

// structuredStrategy reads the hydrated component state captured in the page.
type structuredStrategy struct{}

func (structuredStrategy) Name() string { return "structured" }

func (structuredStrategy) Available(rr *RenderResult) bool {
	for _, e := range rr.Structured {
		if cleanTitle(e.Title.String()) != "" {
			return true
		}
	}
	return false
}

func (structuredStrategy) Entries(rr *RenderResult) ([]listingEntry, error) {
	return rr.Structured, nil
}

// domStrategy parses the card rows of the rendered HTML snapshot.
type domStrategy struct{}

func (domStrategy) Name() string { return "dom" }

func (domStrategy) Available(rr *RenderResult) bool {
	return strings.TrimSpace(rr.HTML) != ""
}

func (domStrategy) Entries(rr *RenderResult) ([]listingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rr.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}

	selector := rr.CardSelector
	if selector == "" {
		selector = ".row.card-row"
	}

	var entries []listingEntry
	doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
		entries = append(entries, cardEntry(card, rr.URL))
	})
	return entries, nil
}

func cardEntry(card *goquery.Selection, pageURL string) listingEntry {
	title := ""
	card.Find(".job-title span, .job-title a, .job-title").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title = collapse(s.Text())
		return title == ""
	})

	href, _ := card.Find(`a[href*="/Pulse/jobs/job/"]`).First().Attr("href")
	abs := absoluteURL(pageURL, href)

	linkID := linkIDFromURL(abs)
	if linkID == "" {
		linkID = "unknown"
	}
	slug := ""
	if abs != "" {
		path := strings.Split(abs, "?")[0]
		parts := strings.Split(strings.Trim(path, "/"), "/")
		slug = parts[len(parts)-1]
	}

	rowText := selectionText(card)
	return listingEntry{
		LinkID:         flexString(linkID),
		Title:          flexString(title),
		ClosingDate:    flexString(extractLabelValue(rowText, "closing date")),
		Compensation:   flexString(extractLabelValue(rowText, "compensation")),
		Location:       flexString(extractLabelValue(rowText, "location")),
		Department:     flexString(extractLabelValue(rowText, "department")),
		EmploymentType: flexString(extractLabelValue(rowText, "employment type")),
		JobRef:         flexString(linkID),
		DetailHref:     flexString(abs),
		DomHref:        flexString(abs),
		Slug:           flexString(slug),
	}
}

// Extractor turns a RenderResult into candidate records with listing-level fields set.
type Extractor struct {
	strategies []ListingStrategy
	tenant     config.Tenant
	maxJobs    int
	logger     *log.Logger
}

func NewExtractor(tenant config.Tenant, maxJobs int, logger *log.Logger) *Extractor {
	return &Extractor{
		strategies: []ListingStrategy{structuredStrategy{}, domStrategy{}},
		tenant:     tenant,
		maxJobs:    maxJobs,
		logger:     logger,
	}
}

// Extract probes the strategies in order and uses the first one that yields at
// least one usable record. Entries missing a title or detail URL are dropped and
// logged; the run fails only when no strategy produces a record.
func (e *Extractor) Extract(rr *RenderResult) ([]models.JobRecord, error) {
	for _, s := range e.strategies {
		if !s.Available(rr) {
			continue
		}
		entries, err := s.Entries(rr)
		if err != nil {
			e.logger.Printf("⚠️ %s extraction failed: %v", s.Name(), err)
			continue
		}
		if len(entries) == 0 {
			e.logger.Printf("⚠️ %s extraction found no entries", s.Name())
			continue
		}
		e.logger.Printf("📦 %s extraction: %d entries", s.Name(), len(entries))

		records := e.build(entries)
		if len(records) == 0 {
			e.logger.Printf("⚠️ %s extraction: all %d entries were unusable", s.Name(), len(entries))
			continue
		}
		return records, nil
	}
	return nil, &scraper.ExtractionError{Reason: "no usable listing entries in rendered page", Fatal: true}
}

func (e *Extractor) build(entries []listingEntry) []models.JobRecord {
	var records []models.JobRecord
	for i, entry := range entries {
		if e.maxJobs > 0 && len(records) >= e.maxJobs {
			e.logger.Printf("ℹ️ Reached max_jobs=%d, ignoring %d remaining entries", e.maxJobs, len(entries)-i)
			break
		}
		rec, err := buildRecord(i, entry, e.tenant)
		if err != nil {
			e.logger.Printf("⚠️ %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func buildRecord(index int, e listingEntry, tenant config.Tenant) (models.JobRecord, error) {
	title := cleanTitle(e.Title.String())
	if title == "" {
		return models.JobRecord{}, &scraper.ExtractionError{Index: index, Reason: "missing title"}
	}
	detailURL := resolveDetailURL(e, tenant.ListingURL)
	if !validDetailURL(detailURL) {
		return models.JobRecord{}, &scraper.ExtractionError{Index: index, Reason: fmt.Sprintf("%q has no usable detail URL", title)}
	}

	ref := cleanText(e.JobRef.String())
	if ref == "" || strings.EqualFold(ref, "unknown") {
		ref = cleanText(e.LinkID.String())
	}
	if strings.EqualFold(ref, "unknown") {
		ref = ""
	}

	closingRaw := cleanText(e.ClosingDate.String())
	salary, salaryType := parseSalary(e.Compensation.String())
	department := cleanDepartment(e.Department.String())

	rec := models.JobRecord{
		Title:           title,
		SourceURL:       detailURL,
		ReferenceNumber: ref,
		ClosingDate:     filter.ParseDate(closingRaw),
		ClosingTime:     parseClosingTime(closingRaw),
		Salary:          salary,
		SalaryType:      salaryType,
		Location:        cleanLocation(e.Location.String()),
		EmploymentType:  normalizeEmploymentType(e.EmploymentType.String()),
		WorkArrangement: extractWorkArrangement(e.EmploymentType.String(), e.WorkArrangement.String()),
		Department:      department,
		JobCategory:     inferJobCategory(department, ""),
	}
	rec.Finalize(tenant.ID, tenant.Name)
	return rec, nil
}
