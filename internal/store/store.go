package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/models"
)

// Paths locates the persisted dataset inside the output directory.
type Paths struct {
	Dataset string
	Meta    string
}

func PathsFor(o config.Output) Paths {
	return Paths{
		Dataset: filepath.Join(o.Dir, o.JSONFile),
		Meta:    filepath.Join(o.Dir, o.MetaFile),
	}
}

// Load reads the dataset written by the previous run. A missing dataset is an
// empty one; a missing metadata sidecar leaves Meta zero.
func Load(p Paths) (models.Dataset, error) {
	var ds models.Dataset

	data, err := os.ReadFile(p.Dataset)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ds, nil
	case err != nil:
		return ds, fmt.Errorf("read dataset: %w", err)
	}

	if err := json.Unmarshal(data, &ds.Jobs); err != nil {
		return ds, fmt.Errorf("parse dataset %s: %w", p.Dataset, err)
	}
	for i := range ds.Jobs {
		ds.Jobs[i].Normalize()
	}

	meta, err := os.ReadFile(p.Meta)
	switch {
	case errors.Is(err, os.ErrNotExist):
		ds.Meta.RecordCount = len(ds.Jobs)
		return ds, nil
	case err != nil:
		return ds, fmt.Errorf("read dataset metadata: %w", err)
	}
	if err := json.Unmarshal(meta, &ds.Meta); err != nil {
		return ds, fmt.Errorf("parse dataset metadata %s: %w", p.Meta, err)
	}
	return ds, nil
}
