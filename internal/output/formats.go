package output

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/filter"
	"pulse-job-scraper/internal/models"
)

const feedDescriptionLimit = 200

// renderJSON writes the public dataset: a bare array of records, never null.
func renderJSON(w io.Writer, ds models.Dataset) error {
	jobs := ds.Jobs
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jobs)
}

func renderMeta(w io.Writer, ds models.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds.Meta)
}

// renderCSV writes one column per record field, lists joined with models.ListSeparator.
func renderCSV(w io.Writer, ds models.Dataset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.Columns()); err != nil {
		return err
	}
	for _, job := range ds.Jobs {
		if err := writer.Write(job.Values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// renderXML writes <jobs><job>...</job></jobs> with one element per field; list
// fields hold <item> children.
func renderXML(w io.Writer, ds models.Dataset) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "jobs"}, Attr: []xml.Attr{
		{Name: xml.Name{Local: "tenantId"}, Value: ds.Meta.TenantID},
		{Name: xml.Name{Local: "count"}, Value: fmt.Sprint(len(ds.Jobs))},
	}}
	if !ds.Meta.LastRun.IsZero() {
		root.Attr = append(root.Attr, xml.Attr{Name: xml.Name{Local: "lastRun"}, Value: ds.Meta.LastRun.UTC().Format(time.RFC3339)})
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	cols := models.Columns()
	for _, job := range ds.Jobs {
		if err := encodeJob(enc, cols, job); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeJob(enc *xml.Encoder, cols []string, job models.JobRecord) error {
	start := xml.StartElement{Name: xml.Name{Local: "job"}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	values := job.Values()
	v := reflect.ValueOf(job)
	for i, col := range cols {
		el := xml.StartElement{Name: xml.Name{Local: col}}
		if list, ok := v.Field(i).Interface().([]string); ok {
			items := struct {
				Item []string `xml:"item"`
			}{Item: list}
			if err := enc.EncodeElement(items, el); err != nil {
				return err
			}
			continue
		}
		if err := enc.EncodeElement(values[i], el); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	PubDate       string    `xml:"pubDate"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	Category    string  `xml:"category,omitempty"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// feedRenderer returns the RSS renderer for records inside the window ending at now.
func feedRenderer(feed config.Feed, tenant config.Tenant, now time.Time) func(io.Writer, models.Dataset) error {
	return func(w io.Writer, ds models.Dataset) error {
		stamp := now.UTC().Format(time.RFC1123Z)
		doc := rssDocument{
			Version: "2.0",
			Channel: rssChannel{
				Title:         feed.Title,
				Link:          feed.Link,
				Description:   feed.Description,
				PubDate:       stamp,
				LastBuildDate: stamp,
			},
		}
		for _, job := range filter.RecentJobs(ds.Jobs, now, feed.Window) {
			doc.Channel.Items = append(doc.Channel.Items, feedItem(job, tenant))
		}

		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
}

func feedItem(job models.JobRecord, tenant config.Tenant) rssItem {
	council := job.Council
	if council == "" {
		council = tenant.Name
	}
	return rssItem{
		Title:       council + " - " + job.Title,
		Link:        job.SourceURL,
		Description: summarize(job.Description),
		PubDate:     filter.ReferenceTime(job).UTC().Format(time.RFC1123Z),
		Category:    council,
		GUID:        rssGUID{IsPermaLink: "false", Value: job.ID},
	}
}

func summarize(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	r := []rune(description)
	if len(r) > feedDescriptionLimit {
		r = r[:feedDescriptionLimit]
	}
	return string(r) + "..."
}
