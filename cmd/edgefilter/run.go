package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wbrown/edgefilter"
	"github.com/wbrown/edgefilter/imageutil"
)

var errCancelled = errors.New("filter pass cancelled")

type options struct {
	config        edgefilter.Config
	outDir        string
	output        string
	compare       bool
	compareHeight int
	keepAlpha     bool
	progress      bool
}

// processBatch filters every input with at most jobs files in flight. The
// first failure or a cancelled context stops the remaining files.
func processBatch(ctx context.Context, logger *logrus.Logger, inputs []string, jobs int, opts options) error {
	if jobs < 1 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, input := range inputs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return errCancelled
			}
			return processFile(gctx, logger, input, opts)
		})
	}
	return g.Wait()
}

// processFile runs one filter pass on its own Controller and writes the
// result, plus the comparison sheet if requested.
func processFile(ctx context.Context, logger *logrus.Logger, input string, opts options) error {
	log := logger.WithField("input", input)

	src, err := imageutil.LoadImage(input)
	if err != nil {
		return err
	}
	if src.Channels < opts.config.Channels {
		return fmt.Errorf("%s: %w: decoded %d channels, config needs %d",
			input, imageutil.ErrInvalidGeometry, src.Channels, opts.config.Channels)
	}

	filter, err := opts.config.NewFilter()
	if err != nil {
		return err
	}

	var sink edgefilter.ProgressSink
	var bar *progressBar
	if opts.progress {
		bar = newProgressBar(logger.Out, src.Width*src.Height)
		sink = bar
	}

	start := time.Now()
	res, err := edgefilter.NewController(filter).Run(ctx, src, sink)
	if bar != nil {
		bar.finish()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if res.Cancelled {
		log.WithField("processed", res.Processed).Warn("Pass cancelled")
		return errCancelled
	}
	log.WithFields(logrus.Fields{
		"width":   src.Width,
		"height":  src.Height,
		"elapsed": time.Since(start),
	}).Info("Filter pass complete")

	out := outputPath(input, opts.output, opts.outDir, "_edges")
	result := res.Buffer.OpaqueImage()
	if opts.keepAlpha {
		result = res.Buffer.Image()
	}
	if err := imageutil.SaveImage(result, out); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	log.WithField("output", out).Info("Saved filtered image")

	if opts.compare {
		sheet, err := imageutil.ComparisonSheet([]imageutil.Panel{
			{Label: "Source", Image: src.OpaqueImage()},
			{Label: fmt.Sprintf("Laplacian (%s)", opts.config.Variant), Image: result},
		}, opts.compareHeight)
		if err != nil {
			return err
		}
		sheetPath := outputPath(input, "", opts.outDir, "_compare")
		if err := imageutil.SavePNG(sheet, sheetPath); err != nil {
			return fmt.Errorf("%s: %w", sheetPath, err)
		}
		log.WithField("output", sheetPath).Info("Saved comparison sheet")
	}
	return nil
}

// outputPath returns explicit when set, otherwise <input base><suffix>.png
// in outDir or beside the input.
func outputPath(input, explicit, outDir, suffix string) string {
	if explicit != "" {
		return explicit
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+suffix+".png")
}

const barWidth = 40

// progressBar draws a single-line bar. Progress is called from the pass's
// relay goroutine.
type progressBar struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	last  int
}

func newProgressBar(w io.Writer, total int) *progressBar {
	return &progressBar{w: w, total: total, last: -1}
}

func (b *progressBar) Progress(processed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pct := 100
	if b.total > 0 {
		pct = processed * 100 / b.total
	}
	if pct == b.last {
		return
	}
	b.last = pct
	fmt.Fprintf(b.w, "\r%s %3d%%", renderBar(pct), pct)
}

func (b *progressBar) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last >= 0 {
		fmt.Fprintln(b.w)
	}
}

func renderBar(pct int) string {
	pct = max(0, min(pct, 100))
	filled := pct * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
