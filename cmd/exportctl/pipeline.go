package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"arefa/internal/export/archive"
	"arefa/internal/export/batch"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	"arefa/internal/registry/sheets"
)

type record interface {
	filter.Record
	sheets.Record
}

// pipeline runs the export stages locally over records fetched from the
// server: filter, plan, then render and archive one lot.
type pipeline[T record] struct {
	profile   sheets.Profile
	records   []T
	batchSize int
	renderer  archive.Renderer
	photos    archive.PhotoFetcher
	stdout    io.Writer
}

func (p *pipeline[T]) listing(c filter.Criteria) (*batch.Listing[T], error) {
	if err := p.profile.ValidateCriteria(c); err != nil {
		return nil, err
	}
	l := batch.NewListing[T](p.batchSize)
	l.SetRecords(p.records)
	l.SetCriteria(c)
	return l, nil
}

func (p *pipeline[T]) plan(c filter.Criteria) error {
	l, err := p.listing(c)
	if err != nil {
		return err
	}
	pl := l.Planner()
	fmt.Fprintf(p.stdout, "%d fiche(s), %d par lot\n", pl.Count(), pl.Size())
	for _, r := range pl.Ranges() {
		fmt.Fprintln(p.stdout, r.Label)
	}
	return nil
}

// export writes the archive of lot number (1-based) into dir and returns
// its path.
func (p *pipeline[T]) export(ctx context.Context, c filter.Criteria, number int, dir string) (string, error) {
	l, err := p.listing(c)
	if err != nil {
		return "", err
	}
	pl := l.Planner()
	if pl.Count() > 0 {
		if err := pl.Select(number - 1); err != nil {
			return "", fmt.Errorf("batch must be between 1 and %d", pl.PageCount())
		}
	}
	_, page, err := l.Export()
	if err != nil {
		return "", err
	}

	builder := archive.NewBuilder(p.renderer, p.photos)
	res, err := builder.Build(ctx, sheets.Job(p.profile, number, page), func(done, total int) {
		fmt.Fprintf(p.stdout, "Lot %d: %d/%d\n", number, done, total)
	})
	if errors.Is(err, archive.ErrEmptyArchive) {
		return "", errors.New("Aucune fiche n'a pu être générée pour ce lot.")
	}
	if err != nil {
		return "", err
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(p.stdout, "%d fiche(s) ignorée(s): %v\n", len(res.Skipped), res.Skipped)
	}
	return writeFile(dir, res.Name, res.Data)
}

// document renders the sheet of record id into dir.
func (p *pipeline[T]) document(ctx context.Context, id int64, dir string) (string, error) {
	idx := slices.IndexFunc(p.records, func(r T) bool { return r.RecordID() == id })
	if idx < 0 {
		return "", fmt.Errorf("%s %d not found", p.profile.Kind, id)
	}
	src := sheets.Source(p.records[idx])
	pdf, err := p.renderer.Render(ctx, src, p.profile.Layout)
	if err != nil {
		return "", fmt.Errorf("render %d: %w", id, err)
	}
	return writeFile(dir, document.FileName(src, p.profile.Layout), pdf)
}

func writeFile(dir, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || name == ".." {
		return "", fmt.Errorf("refusing file name %q outside %s", name, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
