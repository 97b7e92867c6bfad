package models

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	linkIDRegex = regexp.MustCompile(`(?i)/job/([^/?#]+)/`)

	compositeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pulse-job-scraper/composite"))
)

// DeriveID returns a stable id for a posting. The source URL is preferred, keyed on
// the Pulse link id so a retitled slug keeps its identity; otherwise the
// council, title and closing date composite is used.
func DeriveID(sourceURL, council, title, closingDate string) string {
	if key := canonicalURL(sourceURL); key != "" {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
	}
	composite := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(council),
		strings.TrimSpace(title),
		strings.TrimSpace(closingDate),
	}, "|"))
	return uuid.NewSHA1(compositeNamespace, []byte(composite)).String()
}

func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if m := linkIDRegex.FindStringSubmatch(u.Path); m != nil {
		return host + "/job/" + strings.ToLower(m[1])
	}
	return host + strings.TrimRight(u.Path, "/")
}

// Parse flag names recorded on each JobRecord.
const (
	FlagInvalidURL         = "invalid_url"
	FlagMissingSalary      = "missing_salary"
	FlagMissingBenefits    = "missing_benefits"
	FlagNoAttachments      = "no_attachments"
	FlagMissingKeyCriteria = "missing_key_criteria"
	FlagBandError          = "scraping_error_band"
)

// BuildParseFlags lists the quality problems of a record.
func BuildParseFlags(j JobRecord) []string {
	flags := []string{}
	if j.SourceURL == "" || strings.Contains(strings.ToLower(j.SourceURL), "unknown") {
		flags = append(flags, FlagInvalidURL)
	}
	if j.Salary == "" {
		flags = append(flags, FlagMissingSalary)
	}
	if j.Benefits == "" {
		flags = append(flags, FlagMissingBenefits)
	}
	if len(j.Attachments) == 0 {
		flags = append(flags, FlagNoAttachments)
	}
	if len(j.KeyCriteria) == 0 {
		flags = append(flags, FlagMissingKeyCriteria)
	}
	if j.BandLevelSnippet == "" {
		flags = append(flags, FlagBandError)
	}
	return flags
}

// Finalize fills identity and tenancy defaults and recomputes parse flags.
// Live and fixture records both pass through it so they share one shape.
func (j *JobRecord) Finalize(tenantID, council string) {
	if j.TenantID == "" {
		j.TenantID = tenantID
	}
	if j.Council == "" {
		j.Council = council
	}
	if j.ID == "" {
		j.ID = DeriveID(j.SourceURL, j.Council, j.Title, j.ClosingDate)
	}
	j.Normalize()
	j.ParseFlags = BuildParseFlags(*j)
}
