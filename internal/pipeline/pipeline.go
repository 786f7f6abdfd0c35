// Package pipeline sequences the whole build: clean the output tree, run
// classification, transcoding and shuffle-renumbering per category, fold the
// publish counts into the manifest, and emit the published artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/gallery"
	"github.com/picsmith/picsmith/internal/manifest"
	"github.com/picsmith/picsmith/internal/script"
	"github.com/picsmith/picsmith/internal/shuffle"
	"github.com/picsmith/picsmith/internal/transcode"
)

// NoJekyllFilename marks the output tree so static hosts publish it verbatim.
const NoJekyllFilename = ".nojekyll"

// Options carries everything one build needs.
type Options struct {
	SourceDir string
	OutputDir string
	Domain    string
	Quality   float32
	MaxWidth  int
	Workers   int
	// Seed fixes the shuffle randomness when non-zero. Zero seeds from the
	// clock, which is the normal build behavior.
	Seed int64
}

// Result summarizes one build for the caller.
type Result struct {
	Manifest   manifest.Manifest
	Discovered map[classify.Category]int
	Failed     map[classify.Category]int
	Elapsed    time.Duration
}

// Run executes the build end to end. Categories run concurrently; they share
// no mutable state besides independent output subdirectories. A per-image
// transcode failure is logged and skipped without consuming an index, so the
// published index range stays dense against the manifest. Failures that
// break the artifact set as a whole (output tree, manifest, client script)
// propagate and abort the build.
func Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	res := Result{
		Discovered: make(map[classify.Category]int),
		Failed:     make(map[classify.Category]int),
	}

	if err := clean(opts.OutputDir); err != nil {
		return res, err
	}

	stage := &transcode.Stage{
		Encoder:  transcode.WebP{Quality: opts.Quality},
		MaxWidth: opts.MaxWidth,
		Workers:  opts.Workers,
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	counts := make(map[classify.Category]int)
	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	for i, cat := range classify.Categories() {
		// rand.Rand is not safe for concurrent use; each category gets its
		// own, derived from the build seed.
		rng := rand.New(rand.NewSource(seed + int64(i)))
		group.Go(func() error {
			published, discovered, err := buildCategory(gctx, opts, stage, cat, rng)
			mu.Lock()
			defer mu.Unlock()
			counts[cat] = published
			res.Discovered[cat] = discovered
			res.Failed[cat] = discovered - published
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return res, err
	}

	res.Manifest = manifest.New(counts, time.Now())
	if err := emitArtifacts(opts, res.Manifest, stage.Encoder.Ext()); err != nil {
		return res, err
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// clean removes and recreates the output root. Idempotent and safe to rerun.
func clean(outputDir string) error {
	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// buildCategory runs one category through the pipeline: classify, transcode
// the batch, then shuffle-renumber only the successes and publish them under
// their dense index names. Classification and renumbering fully settle
// before any rename happens, so each destination path is written exactly
// once. Returns the published and discovered counts.
func buildCategory(ctx context.Context, opts Options, stage *transcode.Stage, cat classify.Category, rng *rand.Rand) (published, discovered int, err error) {
	files := classify.ListImages(opts.SourceDir, cat)
	discovered = len(files)
	slog.Info("Classified category", "category", cat, "images", discovered)

	temps, err := stage.Batch(ctx, files, filepath.Join(opts.OutputDir, string(cat)))
	if err != nil {
		return 0, discovered, fmt.Errorf("category %s: %w", cat, err)
	}
	if len(temps) < discovered {
		slog.Warn("Some images failed to transcode", "category", cat, "failed", discovered-len(temps))
	}

	assets := shuffle.Renumber(temps, rng)
	if err := stage.Publish(assets); err != nil {
		return 0, discovered, fmt.Errorf("category %s: %w", cat, err)
	}

	slog.Info("Published category", "category", cat, "count", len(assets))
	return len(assets), discovered, nil
}

// emitArtifacts writes everything downstream consumers see. The manifest
// and the client script are the artifact set's integrity: their failures
// are fatal. The presentation pages, vendor extras and the deployment
// marker are independent side effects; each failure is logged and the rest
// still get written. Nothing is rolled back.
func emitArtifacts(opts Options, m manifest.Manifest, ext string) error {
	out := opts.OutputDir

	if err := manifest.Write(filepath.Join(out, manifest.Filename), m); err != nil {
		return err
	}
	if err := script.WriteFile(filepath.Join(out, script.Filename), script.NewConfig(opts.Domain, m, ext)); err != nil {
		return err
	}

	if err := gallery.WriteGallery(filepath.Join(out, gallery.GalleryFilename), m, ext); err != nil {
		slog.Error("Failed to write gallery page", "error", err)
	}
	if err := gallery.WriteDemo(filepath.Join(out, gallery.DemoFilename)); err != nil {
		slog.Error("Failed to write demo page", "error", err)
	}
	if err := gallery.CopyVendor(filepath.Join(opts.SourceDir, gallery.VendorDir), filepath.Join(out, gallery.VendorDir)); err != nil {
		slog.Error("Failed to copy vendor assets", "error", err)
	}
	if err := os.WriteFile(filepath.Join(out, NoJekyllFilename), nil, 0644); err != nil {
		slog.Error("Failed to write deployment marker", "error", err)
	}
	return nil
}
