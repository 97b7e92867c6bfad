package pulse

import (
	"context"
	"errors"
	"testing"
	"time"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/scraper"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderConfig(t *testing.T) config.Render {
	return config.Render{
		MinCardThreshold:  3,
		HydrationTimeout:  200 * time.Millisecond,
		PollInterval:      10 * time.Millisecond,
		ScrollPasses:      2,
		NavigationTimeout: time.Second,
		ScreenshotDir:     t.TempDir(),
		CardSelector:      ".row.card-row",
		DataContainer:     "#ctl00_ctl00_BodyContainer_BodyContainer_ctl00_JobsList",
	}
}

func TestRender_WaitsForHydration(t *testing.T) {
	page := &fakePage{
		cardCounts: []int{0, 1, 3},
		structured: structuredJSON,
		html:       listingHTML,
	}
	r := NewRenderer(testRenderConfig(t), discardLogger())

	rr, err := r.Render(context.Background(), page, testListingURL)
	require.NoError(t, err)

	assert.Equal(t, []string{testListingURL}, page.gotoURLs)
	assert.Equal(t, listingHTML, rr.HTML)
	assert.NoError(t, rr.StructuredErr)
	require.Len(t, rr.Structured, 1)
	assert.Equal(t, "101", rr.Structured[0].LinkID.String())
	assert.Equal(t, 0, page.screenshots)
}

func TestRender_UnreadableStateKeepsSnapshot(t *testing.T) {
	page := &fakePage{
		cardCounts: []int{5},
		structured: errors.New("Cannot read properties of null (reading '__vue__')"),
		html:       listingHTML,
	}
	r := NewRenderer(testRenderConfig(t), discardLogger())

	rr, err := r.Render(context.Background(), page, testListingURL)
	require.NoError(t, err)
	assert.Error(t, rr.StructuredErr)
	assert.Empty(t, rr.Structured)

	records, err := NewExtractor(testTenant(), 20, discardLogger()).Extract(rr)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRender_HydrationTimeout(t *testing.T) {
	page := &fakePage{cardCounts: []int{1}, html: listingHTML}
	r := NewRenderer(testRenderConfig(t), discardLogger())

	start := time.Now()
	_, err := r.Render(context.Background(), page, testListingURL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var timeoutErr *scraper.RenderTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 1, timeoutErr.Found)
	assert.Equal(t, 3, timeoutErr.Want)
	assert.True(t, scraper.IsFallbackEligible(err))
	assert.Equal(t, 1, page.screenshots)
}

func TestRender_NavigationFailure(t *testing.T) {
	page := &fakePage{gotoErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	r := NewRenderer(testRenderConfig(t), discardLogger())

	_, err := r.Render(context.Background(), page, testListingURL)
	require.Error(t, err)

	var navErr *scraper.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, testListingURL, navErr.URL)
	assert.True(t, scraper.IsFallbackEligible(err))
}

// helper start headless browser; skips when no driver is installed
func setupPlaywright(t *testing.T) (*playwright.Playwright, playwright.Browser, playwright.Page) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright driver not available: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skipf("chromium not available: %v", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return pw, browser, page
}

const hydratingListingHTML = `<html><body>
<div id="ctl00_ctl00_BodyContainer_BodyContainer_ctl00_JobsList"></div>
<script>
function load() {
  setTimeout(function () {
    var list = document.getElementById("ctl00_ctl00_BodyContainer_BodyContainer_ctl00_JobsList");
    var jobs = [];
    for (var i = 1; i <= 3; i++) {
      var row = document.createElement("div");
      row.className = "row card-row";
      row.innerHTML = '<div class="job-title"><a href="/Pulse/jobs/job/' + i + '/role-' + i + '?source=public"><span>Role ' + i + '</span></a></div>' +
        '<div>Closing date: 1' + i + ' March 2024</div><div>Location: Ballarat</div>';
      list.appendChild(row);
      jobs.push({ LinkId: i, JobInfo: { Title: "Role " + i, ClosingDate: "1" + i + " March 2024", Location: "Ballarat" } });
    }
    list.__vue__ = { jobs: jobs };
  }, 100);
}
</script>
</body></html>`

func TestRender_Browser(t *testing.T) {
	pw, browser, page := setupPlaywright(t)
	defer pw.Stop()
	defer browser.Close()

	//route every request back to the mock listing
	err := page.Route("**/*", func(route playwright.Route) {
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        hydratingListingHTML,
		})
	})
	require.NoError(t, err)

	cfg := testRenderConfig(t)
	cfg.HydrationTimeout = 5 * time.Second
	cfg.NavigationTimeout = 10 * time.Second
	rr, err := NewRenderer(cfg, discardLogger()).Render(context.Background(), page, testListingURL)
	require.NoError(t, err)
	require.Len(t, rr.Structured, 3)

	records, err := NewExtractor(testTenant(), 20, discardLogger()).Extract(rr)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Role 2", records[1].Title)
	assert.Equal(t, "2024-03-12", records[1].ClosingDate)
	assert.Equal(t, "https://ballarat.pulsesoftware.com/Pulse/jobs/job/2/role-2?source=public", records[1].SourceURL)
}
