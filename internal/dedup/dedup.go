package dedup

import (
	"log"
	"reflect"
	"time"

	"pulse-job-scraper/internal/models"
)

// Stats counts what one merge did to the dataset.
type Stats struct {
	Inserted int // ids first seen in this run
	Updated  int // ids seen again, fields overwritten
	Changed  int // subset of Updated whose content differs from the stored record
	Retained int // ids absent from this run, kept as they were
	Pruned   int // ids dropped by the retention policy
}

// Reconciler merges a new batch into the persisted dataset, keyed by record id.
type Reconciler struct {
	// pruneAfter drops absent records whose lastSeen is older than now-pruneAfter.
	// Zero keeps them forever.
	pruneAfter time.Duration
	logger     *log.Logger
}

func NewReconciler(pruneAfter time.Duration, logger *log.Logger) *Reconciler {
	return &Reconciler{pruneAfter: pruneAfter, logger: logger}
}

// Merge returns the updated dataset. Existing order is kept, new ids are appended in
// batch order. A recurring id takes every field from the batch except firstSeen;
// lastSeen becomes now. When the batch holds the same id twice the later entry wins.
// Merging the same batch again at the same now yields the same dataset.
func (r *Reconciler) Merge(existing models.Dataset, batch []models.JobRecord, now time.Time) (models.Dataset, Stats) {
	now = now.UTC().Truncate(time.Second)
	var stats Stats

	incoming, order := indexBatch(batch)

	jobs := make([]models.JobRecord, 0, len(existing.Jobs)+len(order))
	kept := make(map[string]bool, len(existing.Jobs))
	for _, old := range existing.Jobs {
		if kept[old.ID] {
			r.logger.Printf("⚠️ Duplicate id %s in stored dataset, keeping the first", old.ID)
			continue
		}

		fresh, ok := incoming[old.ID]
		if !ok {
			if r.expired(old, now) {
				stats.Pruned++
				continue
			}
			kept[old.ID] = true
			stats.Retained++
			jobs = append(jobs, old.Clone())
			continue
		}

		merged := fresh.Clone()
		merged.FirstSeen = old.FirstSeen
		if merged.FirstSeen.IsZero() {
			merged.FirstSeen = now
		}
		merged.LastSeen = now
		if !sameContent(old, merged) {
			stats.Changed++
		}
		stats.Updated++
		kept[old.ID] = true
		jobs = append(jobs, merged)
	}

	for _, id := range order {
		if kept[id] {
			continue
		}
		rec := incoming[id].Clone()
		rec.FirstSeen = now
		rec.LastSeen = now
		kept[id] = true
		stats.Inserted++
		jobs = append(jobs, rec)
	}

	meta := existing.Meta
	meta.LastRun = now
	meta.RecordCount = len(jobs)

	r.logger.Printf("🔁 Reconciled: %d new, %d updated (%d changed), %d retained, %d pruned, %d total",
		stats.Inserted, stats.Updated, stats.Changed, stats.Retained, stats.Pruned, len(jobs))
	return models.Dataset{Meta: meta, Jobs: jobs}, stats
}

func (r *Reconciler) expired(rec models.JobRecord, now time.Time) bool {
	if r.pruneAfter <= 0 || rec.LastSeen.IsZero() {
		return false
	}
	return rec.LastSeen.Before(now.Add(-r.pruneAfter))
}

// indexBatch maps id to the last record carrying it and lists ids in first-seen order.
func indexBatch(batch []models.JobRecord) (map[string]models.JobRecord, []string) {
	byID := make(map[string]models.JobRecord, len(batch))
	order := make([]string, 0, len(batch))
	for _, rec := range batch {
		if rec.ID == "" {
			continue
		}
		if _, seen := byID[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		byID[rec.ID] = rec
	}
	return byID, order
}

// sameContent compares two records ignoring their seen timestamps.
func sameContent(a, b models.JobRecord) bool {
	a, b = a.Clone(), b.Clone()
	a.FirstSeen, a.LastSeen = time.Time{}, time.Time{}
	b.FirstSeen, b.LastSeen = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}
