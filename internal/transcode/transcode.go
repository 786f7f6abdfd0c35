// Package transcode re-encodes source images into the published output
// format. Per-image failures are logged and skipped; they never abort a
// batch. Temp artifacts are renamed to their final index names only after
// the whole batch has settled, so the published index range is always dense.
package transcode

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/tiff"

	"github.com/picsmith/picsmith/internal/shuffle"
)

// DefaultQuality is the fixed lossy quality used for published assets.
const DefaultQuality = 80

// DefaultMaxWidth bounds published asset width; wider sources are downscaled.
const DefaultMaxWidth = 2560

// Encoder is the opaque image-encoding capability the stage drives. Encode
// writes img to w in the implementation's target format.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	Ext() string
}

// WebP encodes lossy WebP at a fixed quality.
type WebP struct {
	Quality float32
}

func (e WebP) Encode(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Quality: e.Quality})
}

func (e WebP) Ext() string { return "webp" }

// Stage transcodes batches of source images into destination directories.
type Stage struct {
	Encoder  Encoder
	MaxWidth int // downscale bound in pixels; <= 0 disables
	Workers  int // concurrent transcodes per batch; <= 0 means NumCPU
}

// Batch transcodes every file into destDir as a temp artifact, running up to
// Workers encodes concurrently. Each image is independent: a single failure
// is logged and skipped without aborting the batch. The returned temp paths
// cover only the successes, in discovery order. destDir is created if needed;
// an already existing directory is fine.
func (s *Stage) Batch(ctx context.Context, files []string, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", destDir, err)
	}

	workers := s.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	// One slot per source, filled by ordinal so results stay in discovery
	// order regardless of completion order. No two goroutines share a slot.
	temps := make([]string, len(files))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, src := range files {
		wg.Add(1)
		go func(ordinal int, src string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			if ctx.Err() != nil {
				return
			}

			tmp := filepath.Join(destDir, fmt.Sprintf("%d.%s.tmp", ordinal, s.Encoder.Ext()))
			if err := s.transcodeOne(src, tmp); err != nil {
				slog.Error("Failed to transcode image", "source", src, "error", err)
				return
			}
			slog.Debug("Transcoded image", "source", filepath.Base(src), "temp", filepath.Base(tmp))
			temps[ordinal] = tmp
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make([]string, 0, len(files))
	for _, tmp := range temps {
		if tmp != "" {
			done = append(done, tmp)
		}
	}
	return done, nil
}

// Publish renames shuffled temp artifacts to their assigned dense index
// names, e.g. 0.webp, 1.webp. Index uniqueness guarantees each destination
// path is written exactly once. A rename failure breaks the dense-index
// invariant and is therefore fatal for the category.
func (s *Stage) Publish(assets []shuffle.Asset) error {
	for _, a := range assets {
		final := filepath.Join(filepath.Dir(a.Source), fmt.Sprintf("%d.%s", a.Index, s.Encoder.Ext()))
		if err := os.Rename(a.Source, final); err != nil {
			return fmt.Errorf("failed to publish index %d: %w", a.Index, err)
		}
	}
	return nil
}

// transcodeOne decodes src, clamps its width, and encodes it to dst. The
// partially written dst is removed on encode failure.
func (s *Stage) transcodeOne(src, dst string) error {
	img, err := decodeImage(src)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(src), err)
	}
	img = s.clampWidth(img)

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := s.Encoder.Encode(out, img); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("encode: %w", err)
	}
	return out.Close()
}

// clampWidth downscales img to MaxWidth preserving aspect ratio, using
// Lanczos resampling. Images at or under the bound pass through untouched.
func (s *Stage) clampWidth(img image.Image) image.Image {
	if s.MaxWidth <= 0 || img.Bounds().Dx() <= s.MaxWidth {
		return img
	}
	return resize.Resize(uint(s.MaxWidth), 0, img, resize.Lanczos3)
}

// decodeImage opens and decodes one source image. WebP sources are decoded
// explicitly; everything else goes through the registered decoders (JPEG,
// PNG, GIF from the standard library, TIFF from x/image). Formats without a
// decoder, AVIF included, fail here and surface as a per-image skip.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return webp.Decode(f)
	}
	img, _, err := image.Decode(f)
	return img, err
}
