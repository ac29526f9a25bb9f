package docxmerge

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

const tempDirName = "temp_documents"

// ProgressEvent reports generation progress: 0-80% while rows render,
// 80-100% while the archive is packaged.
type ProgressEvent struct {
	Percent float64
	Message string
}

// Result summarizes a completed run.
type Result struct {
	ArchivePath string
	Generated   int
	Failed      int

	// RowErrors holds the per-row failures, one *RowError each. They were
	// already skipped; they are returned for reporting only.
	RowErrors []error
}

// Generator fans render jobs out over a bounded worker pool and packages
// the outputs into one archive.
type Generator struct {
	ctx      *RenderContext
	progress chan<- ProgressEvent
}

// NewGenerator creates a generator for a prepared render context.
func NewGenerator(rc *RenderContext) *Generator {
	return &Generator{ctx: rc}
}

// WithProgress subscribes a progress sink. Events are sent from a single
// goroutine; a slow receiver slows reporting, not rendering workers.
func (g *Generator) WithProgress(ch chan<- ProgressEvent) *Generator {
	g.progress = ch
	return g
}

func (g *Generator) report(percent float64, format string, args ...interface{}) {
	if g.progress == nil {
		return
	}
	g.progress <- ProgressEvent{Percent: percent, Message: fmt.Sprintf(format, args...)}
}

// Run renders every data row and writes the archive into destDir. Per-row
// failures are collected, never propagated to sibling jobs; the packaging
// step waits for every scheduled job to finish. The context is checked
// between jobs only: a job already running completes before cancellation
// takes effect.
func (g *Generator) Run(ctx context.Context, destDir string) (*Result, error) {
	dataRows := g.ctx.Dataset.DataRows()
	if len(dataRows) == 0 {
		return nil, ErrNoDataRows
	}

	tempDir := filepath.Join(destDir, tempDirName)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	jobs := make(chan RenderJob)
	type jobResult struct {
		path string
		err  error
	}
	results := make(chan jobResult)

	workers := g.ctx.Options.Workers
	if workers <= 0 {
		workers = min(4, runtime.NumCPU())
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				path, err := g.ctx.RenderRow(job)
				if err != nil {
					key := g.ctx.Dataset.Cell(job.Row, g.ctx.Dataset.KeyColumn)
					err = NewRowError(job.Index, key, err)
				}
				results <- jobResult{path: path, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, row := range dataRows {
			select {
			case <-ctx.Done():
				return
			case jobs <- RenderJob{Index: i + 1, Row: row, OutputDir: tempDir}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &Result{}
	var generated []string
	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed++
			result.RowErrors = append(result.RowErrors, res.err)
			log().Error("failed to render document", zap.Error(res.err))
		} else {
			generated = append(generated, res.path)
		}
		g.report(float64(completed)/float64(len(dataRows))*80,
			"Processing document %d of %d", completed, len(dataRows))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.report(85, "Creating archive...")
	archivePath := filepath.Join(destDir, g.ctx.Options.ArchiveName)
	if err := writeArchive(archivePath, generated); err != nil {
		return nil, err
	}

	for _, path := range generated {
		if err := os.Remove(path); err != nil {
			log().Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}

	result.ArchivePath = archivePath
	result.Generated = len(generated)
	g.report(100, "Generated %d documents", result.Generated)
	log().Info("generation complete",
		zap.Int("generated", result.Generated),
		zap.Int("failed", result.Failed),
		zap.String("archive", archivePath))
	return result, nil
}

// writeArchive packages the generated documents into one compressed zip,
// flat, by base filename.
func writeArchive(path string, files []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, file := range files {
		src, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		fw, err := w.Create(filepath.Base(file))
		if err == nil {
			_, err = io.Copy(fw, src)
		}
		src.Close()
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", file, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Generate is the whole pipeline in one call: load the template and
// datasets, build the run artifacts, render all rows, and package the
// archive into destDir.
func Generate(ctx context.Context, templatePath, datasetPath string, auxPaths []string, destDir string, opts Options) (*Result, error) {
	tpl, err := LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	ds, err := LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	aux, err := BuildAuxiliaryIndex(auxPaths)
	if err != nil {
		return nil, err
	}
	rc, err := NewRenderContext(tpl, ds, aux, opts)
	if err != nil {
		return nil, err
	}
	return NewGenerator(rc).Run(ctx, destDir)
}
