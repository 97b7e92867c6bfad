package pulse

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testListingURL = "https://ballarat.pulsesoftware.com/Pulse/jobs"

const listingHTML = `<html><body>
<div id="ctl00_ctl00_BodyContainer_BodyContainer_ctl00_JobsList">
  <div class="row card-row">
    <div class="job-title"><a href="/Pulse/jobs/job/101/senior-planner?source=public"><span>Senior Planner</span></a></div>
    <div>Closing date: 15 March 2024 11:59 PM</div>
    <div>Compensation: $90,000 - $100,000 per annum</div>
    <div>Location: Ballarat Central</div>
    <div>Department: Development and Growth</div>
    <div>Employment type: Permanent Full Time (Hybrid)</div>
  </div>
  <div class="row card-row">
    <div class="job-title"><span>Casual Lifeguard</span></div>
    <div>Location: Eureka Pool</div>
  </div>
  <div class="row card-row">
    <div class="job-title"></div>
    <div>Location: Nowhere</div>
  </div>
</div>
</body></html>`

const structuredJSON = `[{
  "linkId": 101,
  "title": "Senior Planner",
  "closingDate": "15 March 2024 11:59 PM",
  "compensation": "$90,000 - $100,000 per annum",
  "location": "Ballarat Central",
  "department": "Development and Growth",
  "employmentType": "Permanent Full Time (Hybrid)",
  "workArrangement": null,
  "jobRef": null,
  "detailHref": "https://ballarat.pulsesoftware.com/Pulse/jobs/job/101/senior-planner?source=public",
  "domHref": "https://ballarat.pulsesoftware.com/Pulse/jobs/job/101/senior-planner?source=public",
  "slug": "senior-planner"
}]`

func testTenant() config.Tenant {
	return config.Tenant{ID: "ballarat", Name: "City of Ballarat", ListingURL: testListingURL}
}

func structuredEntries(t *testing.T) []listingEntry {
	var entries []listingEntry
	require.NoError(t, json.Unmarshal([]byte(structuredJSON), &entries))
	return entries
}

func TestExtract_DOMStrategy(t *testing.T) {
	var logs bytes.Buffer
	ex := NewExtractor(testTenant(), 20, log.New(&logs, "", 0))

	records, err := ex.Extract(&RenderResult{URL: testListingURL, HTML: listingHTML})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Senior Planner", rec.Title)
	assert.Equal(t, "https://ballarat.pulsesoftware.com/Pulse/jobs/job/101/senior-planner?source=public", rec.SourceURL)
	assert.Equal(t, "101", rec.ReferenceNumber)
	assert.Equal(t, "2024-03-15", rec.ClosingDate)
	assert.Equal(t, "11:59 PM", rec.ClosingTime)
	assert.Equal(t, "$90,000 - $100,000", rec.Salary)
	assert.Equal(t, "per annum", rec.SalaryType)
	assert.Equal(t, "Ballarat Central", rec.Location)
	assert.Equal(t, "Full Time", rec.EmploymentType)
	assert.Equal(t, "Hybrid", rec.WorkArrangement)
	assert.Equal(t, "Planning & Development", rec.JobCategory)
	assert.Equal(t, "ballarat", rec.TenantID)
	assert.Equal(t, "City of Ballarat", rec.Council)
	assert.NotEmpty(t, rec.ID)

	assert.Contains(t, logs.String(), "dom extraction")
	assert.Contains(t, logs.String(), `"Casual Lifeguard" has no usable detail URL`)
	assert.Contains(t, logs.String(), "missing title")
}

func TestExtract_StrategiesProduceSameRecord(t *testing.T) {
	ex := NewExtractor(testTenant(), 20, discardLogger())

	fromDOM, err := ex.Extract(&RenderResult{URL: testListingURL, HTML: listingHTML})
	require.NoError(t, err)

	var logs bytes.Buffer
	ex = NewExtractor(testTenant(), 20, log.New(&logs, "", 0))
	fromState, err := ex.Extract(&RenderResult{URL: testListingURL, HTML: listingHTML, Structured: structuredEntries(t)})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "structured extraction")

	require.Len(t, fromState, 1)
	assert.Equal(t, fromDOM[0], fromState[0])
}

func TestExtract_StructuredWithoutTitlesFallsBackToDOM(t *testing.T) {
	var logs bytes.Buffer
	ex := NewExtractor(testTenant(), 20, log.New(&logs, "", 0))

	rr := &RenderResult{
		URL:        testListingURL,
		HTML:       listingHTML,
		Structured: []listingEntry{{LinkID: "7"}},
	}
	records, err := ex.Extract(rr)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, logs.String(), "dom extraction")
}

func TestExtract_StructuredWithoutURLsFallsBackToDOM(t *testing.T) {
	var logs bytes.Buffer
	ex := NewExtractor(testTenant(), 20, log.New(&logs, "", 0))

	rr := &RenderResult{
		URL:  testListingURL,
		HTML: listingHTML,
		Structured: []listingEntry{
			{Title: "Senior Planner"},
			{Title: "Lifeguard"},
		},
	}
	records, err := ex.Extract(rr)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].SourceURL, "/Pulse/jobs/job/101/")
	assert.Contains(t, logs.String(), "structured extraction: all 2 entries were unusable")
	assert.Contains(t, logs.String(), "dom extraction")
}

func TestExtract_NothingUsableIsFatal(t *testing.T) {
	ex := NewExtractor(testTenant(), 20, discardLogger())

	tests := []struct {
		name string
		rr   *RenderResult
	}{
		{"empty render", &RenderResult{URL: testListingURL}},
		{"no cards", &RenderResult{URL: testListingURL, HTML: "<html><body><p>Most likely causes:</p></body></html>"}},
		{"only unusable cards", &RenderResult{URL: testListingURL, HTML: `<div class="row card-row"><div class="job-title">Orphan</div></div>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.Extract(tt.rr)
			require.Error(t, err)

			var exErr *scraper.ExtractionError
			require.True(t, errors.As(err, &exErr))
			assert.True(t, exErr.Fatal)
			assert.True(t, scraper.IsFallbackEligible(err))
		})
	}
}

func TestExtract_MaxJobs(t *testing.T) {
	entries := []listingEntry{
		{LinkID: "1", Title: "One"},
		{LinkID: "2", Title: "Two"},
		{LinkID: "3", Title: "Three"},
	}
	ex := NewExtractor(testTenant(), 2, discardLogger())

	records, err := ex.Extract(&RenderResult{URL: testListingURL, Structured: entries})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "One", records[0].Title)
	assert.Equal(t, testListingURL+"/job/2/two?source=public", records[1].SourceURL)
}

func TestFlexString(t *testing.T) {
	var entries []listingEntry
	err := json.Unmarshal([]byte(`[{"linkId": 42, "title": null, "slug": "x", "jobRef": true}]`), &entries)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "42", entries[0].LinkID.String())
	assert.Equal(t, "", entries[0].Title.String())
	assert.Equal(t, "x", entries[0].Slug.String())
	assert.Equal(t, "true", entries[0].JobRef.String())
}
