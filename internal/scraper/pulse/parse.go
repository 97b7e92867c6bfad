package pulse

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pulse-job-scraper/internal/filter"
)

var (
	closingTimeRegex  = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*(?:am|pm))`)
	salaryRangeRegex  = regexp.MustCompile(`(?i)\$?\d[\d,]*(?:\.\d+)?k?(?:\s*-\s*\$?\d[\d,]*(?:\.\d+)?k?)?`)
	salaryTypeRegex   = regexp.MustCompile(`(?i)\b(pa|per annum|ph|p/h|per hour)\b`)
	locationCutRegex  = regexp.MustCompile(`(?i)\b(?:department|compensation|employment type)\b`)
	slugStripRegex    = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	slugDashRegex     = regexp.MustCompile(`-{2,}`)
	bandLevelRegex    = regexp.MustCompile(`(?i)\b(?:band|level)\s*([1-8][a-z]?)\b`)
	bandValidRegex    = regexp.MustCompile(`^[1-8][A-Z]?$`)
	applyRegex        = regexp.MustCompile(`(?i)(apply[\s\S]{0,120})`)
	emailRegex        = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRegex        = regexp.MustCompile(`\b\d{2,4}[-\s]?\d{3}[-\s]?\d{3,4}\b`)
	positionsRegex    = regexp.MustCompile(`(?i)(\d+)\s+positions?`)
	eeoRegex          = regexp.MustCompile(`(?i)(equal opportunity[\s\S]{0,120})`)
	diverseRegex      = regexp.MustCompile(`(?i)(diverse[\s\S]{0,120})`)
	superRegex        = regexp.MustCompile(`(?i)(11\.?\d?%\s*super.*)`)
	isoDateTextRegex  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	detailLinkIDRegex = regexp.MustCompile(`(?i)job/([^/]+)/`)
)

var employmentTypes = []struct {
	key, value string
}{
	{"fixed term", "Full Time"},
	{"temporary", "Full Time"},
	{"ongoing", "Full Time"},
	{"permanent", "Full Time"},
	{"perm", "Full Time"},
	{"casual", "Casual"},
	{"volunteer", "Volunteer"},
	{"part time", "Part Time"},
}

var departmentReplacements = map[*regexp.Regexp]string{
	regexp.MustCompile(`(?i)\benviro\b`): "Environment",
}

var jobCategories = []struct {
	key, value string
}{
	{"economy and experience", "Arts & Culture"},
	{"infrastructure", "Infrastructure & Engineering"},
	{"community wellbeing", "Community Services"},
	{"development", "Planning & Development"},
}

func parseClosingTime(text string) string {
	if m := closingTimeRegex.FindStringSubmatch(cleanText(text)); m != nil {
		return strings.ToUpper(collapse(m[1]))
	}
	return ""
}

// parseSalary returns the salary figure or range and its period ("per annum", "per hour").
func parseSalary(raw string) (string, string) {
	text := cleanText(raw)
	if text == "" {
		return "", ""
	}
	salary := salaryRangeRegex.FindString(text)
	if salary == "" {
		return "", ""
	}
	salary = collapse(salary)

	salaryType := ""
	if m := salaryTypeRegex.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "pa", "per annum":
			salaryType = "per annum"
		case "ph", "p/h", "per hour":
			salaryType = "per hour"
		}
	}
	return salary, salaryType
}

func cleanLocation(raw string) string {
	line := firstLine(cleanText(raw))
	if loc := locationCutRegex.FindStringIndex(line); loc != nil {
		line = line[:loc[0]]
	}
	return strings.TrimRight(strings.TrimSpace(line), ",;- ")
}

func normalizeEmploymentType(raw string) string {
	first := firstLine(cleanText(raw))
	if first == "" {
		return ""
	}
	lowered := strings.ToLower(first)
	for _, et := range employmentTypes {
		if strings.Contains(lowered, et.key) {
			return et.value
		}
	}
	return titleCase(first)
}

func extractWorkArrangement(parts ...string) string {
	combined := strings.ToLower(strings.Join(parts, " "))
	for _, option := range []string{"hybrid", "remote", "flexible", "onsite"} {
		if strings.Contains(combined, option) {
			return titleCase(option)
		}
	}
	return ""
}

func cleanDepartment(raw string) string {
	line := firstLine(cleanText(raw))
	for re, proper := range departmentReplacements {
		line = re.ReplaceAllString(line, proper)
	}
	return strings.TrimSpace(line)
}

func inferJobCategory(department, band string) string {
	if department != "" {
		lowered := strings.ToLower(department)
		for _, c := range jobCategories {
			if strings.Contains(lowered, c.key) {
				return c.value
			}
		}
	}
	if band != "" {
		digit, err := strconv.Atoi(band[:1])
		if err == nil {
			switch {
			case digit <= 3:
				return "Entry Level"
			case digit <= 5:
				return "Mid Level"
			default:
				return "Senior Leadership"
			}
		}
	}
	return ""
}

// slugTitle turns a job title into the URL slug Pulse uses: "Senior Planner (FT)" -> "senior-planner-ft".
func slugTitle(title string) string {
	s := slugStripRegex.ReplaceAllString(foldDiacritics(title), "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	return slugDashRegex.ReplaceAllString(s, "-")
}

// resolveDetailURL picks the absolute detail URL for a listing entry: explicit
// hrefs first, then the Pulse /job/<linkId>/<slug> route, then the raw DOM href.
func resolveDetailURL(e listingEntry, listingURL string) string {
	for _, candidate := range []string{e.DetailHref.String(), e.URL.String()} {
		if abs := absoluteURL(listingURL, candidate); abs != "" {
			return abs
		}
	}

	linkID := cleanText(e.LinkID.String())
	if linkID != "" && !strings.EqualFold(linkID, "unknown") {
		slug := slugTitle(e.Slug.String())
		if slug == "" {
			slug = slugTitle(e.Title.String())
		}
		if slug == "" {
			slug = "role"
		}
		return strings.TrimRight(listingURL, "/") + "/job/" + url.PathEscape(linkID) + "/" + slug + "?source=public"
	}

	return absoluteURL(listingURL, e.DomHref.String())
}

func absoluteURL(base, href string) string {
	href = cleanText(href)
	if href == "" || isErrorText(href) {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

func validDetailURL(u string) bool {
	return u != "" && !strings.Contains(strings.ToLower(u), "unknown")
}

func linkIDFromURL(u string) string {
	if m := detailLinkIDRegex.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

func extractApplicationInstructions(text string) string {
	if m := applyRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractContactInfo(text string) string {
	seen := map[string]bool{}
	for _, e := range emailRegex.FindAllString(text, -1) {
		seen[e] = true
	}
	for _, p := range phoneRegex.FindAllString(text, -1) {
		seen[p] = true
	}
	if len(seen) == 0 {
		return ""
	}
	contacts := make([]string, 0, len(seen))
	for c := range seen {
		contacts = append(contacts, c)
	}
	sort.Strings(contacts)
	return strings.Join(contacts, " | ")
}

func extractBandLevel(text string) string {
	m := bandLevelRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	band := strings.ToUpper(m[1])
	if !bandValidRegex.MatchString(band) {
		return ""
	}
	return band
}

func extractNumPositions(text string) int {
	if m := positionsRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			return n
		}
	}
	return 1
}

func extractEEO(text string) string {
	if m := eeoRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := diverseRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractPostedDate(text string) string {
	if m := isoDateTextRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if v := extractLabelValue(text, "posted", "date posted", "advertised"); v != "" {
		return filter.ParseDate(v)
	}
	return ""
}

func extractSuperannuation(text string) string {
	if m := superRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractLabelValue returns the rest of the line after the first matching "Label:" in text.
func extractLabelValue(text string, labels ...string) string {
	for _, label := range labels {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*(?:[:\-]\s*|\s+)([^\n\r]+)`)
		if m := re.FindStringSubmatch(text); m != nil {
			if v := cleanText(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}
