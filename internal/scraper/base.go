// Define the contract every batch source satisfies
// Live render and fixture replay both produce one batch of records

package scraper

import (
	"context"

	"pulse-job-scraper/internal/models"
)

// Source produces one batch of candidate records for the reconciler.
type Source interface {
	//Batch returns the records of this run
	Batch(ctx context.Context) ([]models.JobRecord, error)

	//Name is the source label used in logs and run metadata
	Name() models.BatchSource
}
