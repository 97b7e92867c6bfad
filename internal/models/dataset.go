package models

import "time"

type BatchSource string

const (
	SourceLive    BatchSource = "live"
	SourceFixture BatchSource = "fixture"
)

// RunMeta is persisted next to the public JSON array.
type RunMeta struct {
	LastRun     time.Time   `json:"lastRun"`
	TenantID    string      `json:"tenantId"`
	Source      BatchSource `json:"source"`
	RecordCount int         `json:"recordCount"`
}

// Dataset is the ordered record collection plus the metadata of the run that wrote it.
type Dataset struct {
	Meta RunMeta
	Jobs []JobRecord
}
