// Replay a saved batch instead of rendering the live listing
// Used on render failure or when a fixture is forced from the CLI

package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/models"
)

// Source loads one batch from a fixture file. It satisfies scraper.Source.
type Source struct {
	path   string
	tenant config.Tenant
	logger *log.Logger
}

func NewSource(path string, tenant config.Tenant, logger *log.Logger) *Source {
	return &Source{path: path, tenant: tenant, logger: logger}
}

func (s *Source) Name() models.BatchSource { return models.SourceFixture }

func (s *Source) Path() string { return s.path }

func (s *Source) Batch(ctx context.Context) ([]models.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, dropped, err := Load(s.path, s.tenant)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.logger.Printf("⚠️ Fixture %s: dropped %d records without a title", s.path, dropped)
	}
	s.logger.Printf("📂 Loaded %d jobs from fixture %s", len(records), s.path)
	return records, nil
}

// Load reads a fixture file holding either a bare array of records or an object
// with a "jobs" array. Records are finalized exactly like live ones; records
// without a title are dropped and counted.
func Load(path string, tenant config.Tenant) ([]models.JobRecord, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read fixture: %w", err)
	}

	raw, err := decode(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	records := make([]models.JobRecord, 0, len(raw))
	dropped := 0
	for _, rec := range raw {
		rec.Title = strings.TrimSpace(rec.Title)
		if rec.Title == "" {
			dropped++
			continue
		}
		rec.Finalize(tenant.ID, tenant.Name)
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, dropped, fmt.Errorf("fixture %s holds no usable records", path)
	}
	return records, dropped, nil
}

func decode(data []byte) ([]models.JobRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}

	if data[0] == '[' {
		var records []models.JobRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var wrapped struct {
		Jobs []models.JobRecord `json:"jobs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Jobs == nil {
		return nil, errors.New(`object fixture without a "jobs" array`)
	}
	return wrapped.Jobs, nil
}
