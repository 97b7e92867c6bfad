package output

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/filter"
	"pulse-job-scraper/internal/models"

	"golang.org/x/sync/errgroup"
)

// EmitError is any failure while writing outputs. When it is returned no output
// file has been changed.
type EmitError struct {
	File string
	Err  error
}

func (e *EmitError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("emit failed: %v", e.Err)
	}
	return fmt.Sprintf("emit %s failed: %v", e.File, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// Summary describes a committed output set.
type Summary struct {
	Records   int
	FeedItems int
	Files     []string
}

type format struct {
	name   string
	file   string
	render func(io.Writer, models.Dataset) error
}

// Emitter writes the dataset in every output format and swaps the whole set into
// place together.
type Emitter struct {
	out    config.Output
	feed   config.Feed
	tenant config.Tenant
	logger *log.Logger

	// rename and extra let tests inject commit and render failures.
	rename func(oldpath, newpath string) error
	extra  []format
}

func NewEmitter(cfg *config.Config, logger *log.Logger) *Emitter {
	return &Emitter{
		out:    cfg.Output,
		feed:   cfg.Feed,
		tenant: cfg.Tenant,
		logger: logger,
		rename: os.Rename,
	}
}

func (e *Emitter) formats(now time.Time) []format {
	formats := []format{
		{name: "json", file: e.out.JSONFile, render: renderJSON},
		{name: "csv", file: e.out.CSVFile, render: renderCSV},
		{name: "xml", file: e.out.XMLFile, render: renderXML},
		{name: "rss", file: e.out.FeedFile, render: feedRenderer(e.feed, e.tenant, now)},
		{name: "meta", file: e.out.MetaFile, render: renderMeta},
	}
	return append(formats, e.extra...)
}

// Emit renders every format to temp files concurrently, then commits them. Any
// failure leaves the previous outputs untouched and returns *EmitError.
func (e *Emitter) Emit(ctx context.Context, ds models.Dataset, now time.Time) (Summary, error) {
	if err := os.MkdirAll(e.out.Dir, 0o755); err != nil {
		return Summary{}, &EmitError{File: e.out.Dir, Err: err}
	}

	formats := e.formats(now)
	files := make([]staged, len(formats))

	g, _ := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			target := filepath.Join(e.out.Dir, f.file)
			s, err := stage(target, func(w io.Writer) error { return f.render(w, ds) })
			if err != nil {
				return &EmitError{File: target, Err: fmt.Errorf("render %s: %w", f.name, err)}
			}
			files[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		discard(stagedOnly(files))
		e.logger.Printf("❌ Output rendering failed, previous files kept: %v", err)
		return Summary{}, err
	}

	if err := ctx.Err(); err != nil {
		discard(files)
		return Summary{}, &EmitError{Err: err}
	}

	if err := commit(files, e.rename); err != nil {
		e.logger.Printf("❌ Output commit failed, previous files restored: %v", err)
		return Summary{}, &EmitError{Err: err}
	}

	summary := Summary{
		Records:   len(ds.Jobs),
		FeedItems: len(filter.RecentJobs(ds.Jobs, now, e.feed.Window)),
	}
	for _, s := range files {
		summary.Files = append(summary.Files, s.target)
	}
	e.logger.Printf("💾 Wrote %d records (%d in feed) to %s", summary.Records, summary.FeedItems, e.out.Dir)
	return summary, nil
}

func stagedOnly(files []staged) []staged {
	out := files[:0:0]
	for _, s := range files {
		if s.tmp != "" {
			out = append(out, s)
		}
	}
	return out
}
