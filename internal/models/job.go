package models

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// JobRecord is one job posting as persisted in the dataset. The JSON shape is read
// directly by the static viewer, so tags must stay stable.
type JobRecord struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	TenantID                string    `json:"tenantId"`
	Council                 string    `json:"council"`
	SourceURL               string    `json:"sourceUrl"`
	ReferenceNumber         string    `json:"referenceNumber"`
	ClosingDate             string    `json:"closingDate"`
	ClosingTime             string    `json:"closingTime"`
	PostedDate              string    `json:"postedDate"`
	Salary                  string    `json:"salary"`
	SalaryType              string    `json:"salaryType"`
	Location                string    `json:"location"`
	EmploymentType          string    `json:"employmentType"`
	WorkArrangement         string    `json:"workArrangement"`
	Department              string    `json:"department"`
	JobCategory             string    `json:"jobCategory"`
	BandLevelSnippet        string    `json:"bandLevelSnippet"`
	Description             string    `json:"description"`
	Requirements            []string  `json:"requirements"`
	KeyCriteria             []string  `json:"keyCriteria"`
	ApplicationInstructions string    `json:"applicationInstructions"`
	ContactInfo             string    `json:"contactInfo"`
	Benefits                string    `json:"benefits"`
	Attachments             []string  `json:"attachments"`
	NumPositions            int       `json:"numPositions"`
	EEOStatement            string    `json:"eeoStatement"`
	ParseFlags              []string  `json:"parseFlags"`
	FirstSeen               time.Time `json:"firstSeen"`
	LastSeen                time.Time `json:"lastSeen"`
}

// ListSeparator joins list fields in flat formats.
const ListSeparator = "; "

// Normalize replaces nil lists with empty ones so every JSON key carries a value
// of the same type, and clamps NumPositions to at least one.
func (j *JobRecord) Normalize() {
	if j.Requirements == nil {
		j.Requirements = []string{}
	}
	if j.KeyCriteria == nil {
		j.KeyCriteria = []string{}
	}
	if j.Attachments == nil {
		j.Attachments = []string{}
	}
	if j.ParseFlags == nil {
		j.ParseFlags = []string{}
	}
	if j.NumPositions < 1 {
		j.NumPositions = 1
	}
}

// Clone returns a deep copy so callers can mutate lists without aliasing.
func (j JobRecord) Clone() JobRecord {
	c := j
	c.Requirements = append([]string(nil), j.Requirements...)
	c.KeyCriteria = append([]string(nil), j.KeyCriteria...)
	c.Attachments = append([]string(nil), j.Attachments...)
	c.ParseFlags = append([]string(nil), j.ParseFlags...)
	c.Normalize()
	return c
}

// Columns lists the JSON field names of JobRecord in declaration order.
// CSV headers and XML elements are derived from it so every format carries the same fields.
func Columns() []string {
	t := reflect.TypeOf(JobRecord{})
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		cols = append(cols, jsonName(t.Field(i)))
	}
	return cols
}

// Values renders every field as text, in Columns order.
func (j JobRecord) Values() []string {
	v := reflect.ValueOf(j)
	out := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		out = append(out, formatValue(v.Field(i)))
	}
	return out
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func formatValue(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case []string:
		return strings.Join(x, ListSeparator)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}
