package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pulse-job-scraper/internal/models"
)

const isoLayout = "2006-01-02"

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`

var (
	isoDateRegex = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	// the year may be 2 digits; it must not be the hour of a trailing "11:59"
	dayMonthRegex   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[\s\-./]+` + monthPattern + `[\s,.\-/]+(\d{4}|\d{2})(?:$|[^\d:])`)
	monthDayRegex   = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	yearFirstRegex  = regexp.MustCompile(`\b(\d{4})[/.](\d{1,2})[/.](\d{1,2})\b`)
	numericDayRegex = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})(?:$|[^\d:])`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate finds a calendar date in free text and returns it as YYYY-MM-DD.
// Unparseable or open-ended ("ongoing") text yields "".
func ParseDate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	//Case 1: ISO "2024-09-05" or "2024-09-05T..."
	if m := isoDateRegex.FindStringSubmatch(text); m != nil {
		if _, err := time.Parse(isoLayout, m[1]); err == nil {
			return m[1]
		}
	}

	if strings.Contains(strings.ToLower(text), "ongoing") {
		return ""
	}

	//Case 2: "5 September 2024", "Friday, 5th Sep 2024"
	if m := dayMonthRegex.FindStringSubmatch(text); m != nil {
		if d, ok := buildDate(m[3], m[2], m[1]); ok {
			return d
		}
	}

	//Case 3: "September 5, 2024"
	if m := monthDayRegex.FindStringSubmatch(text); m != nil {
		if d, ok := buildDate(m[3], m[1], m[2]); ok {
			return d
		}
	}

	//Case 4: "2024/03/20", "2024.03.20"
	if m := yearFirstRegex.FindStringSubmatch(text); m != nil {
		if d, ok := numericDate(m[1], m[2], m[3]); ok {
			return d
		}
	}

	//Case 5: dd/mm/yyyy, dd.mm.yy, dd-mm-yyyy (Australian order)
	if m := numericDayRegex.FindStringSubmatch(text); m != nil {
		if d, ok := numericDate(m[3], m[2], m[1]); ok {
			return d
		}
	}

	return ""
}

func buildDate(yearStr, monthStr, dayStr string) (string, bool) {
	key := strings.ToLower(monthStr)
	if len(key) < 3 {
		return "", false
	}
	month, ok := months[key[:3]]
	if !ok {
		return "", false
	}
	year := fullYear(yearStr)
	day, _ := strconv.Atoi(dayStr)
	if !valid(year, month, day) {
		return "", false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(isoLayout), true
}

func numericDate(yearStr, monthStr, dayStr string) (string, bool) {
	year := fullYear(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if !valid(year, time.Month(month), day) {
		return "", false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(isoLayout), true
}

// fullYear reads "24" as 2024.
func fullYear(s string) int {
	year, _ := strconv.Atoi(s)
	if len(s) == 2 {
		year += 2000
	}
	return year
}

func valid(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == month
}

// ReferenceTime is the instant a record is ranked by in the feed:
// its closing date when known, otherwise when it was last seen.
func ReferenceTime(job models.JobRecord) time.Time {
	if job.ClosingDate != "" {
		if t, err := time.Parse(isoLayout, job.ClosingDate); err == nil {
			return t
		}
	}
	return job.LastSeen
}

// IsWithinWindow reports whether ref is not older than window before now.
// Future dates (a job that has not closed yet) are within the window.
func IsWithinWindow(ref, now time.Time, window time.Duration) bool {
	if ref.IsZero() {
		return false
	}
	return !ref.Before(now.Add(-window))
}

// RecentJobs returns the records inside the window, most recent reference first.
// Ties keep dataset order.
func RecentJobs(jobs []models.JobRecord, now time.Time, window time.Duration) []models.JobRecord {
	recent := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if IsWithinWindow(ReferenceTime(job), now, window) {
			recent = append(recent, job)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return ReferenceTime(recent[i]).After(ReferenceTime(recent[j]))
	})
	return recent
}
