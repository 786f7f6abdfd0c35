package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/gallery"
	"github.com/picsmith/picsmith/internal/manifest"
	"github.com/picsmith/picsmith/internal/script"
	"github.com/picsmith/picsmith/internal/transcode"
)

// writeSourceTree lays out a source directory with n valid PNGs per category.
func writeSourceTree(t *testing.T, counts map[classify.Category]int) string {
	t.Helper()
	root := t.TempDir()
	for cat, n := range counts {
		dir := filepath.Join(root, string(cat))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create source dir: %v", err)
		}
		for i := 0; i < n; i++ {
			writePNG(t, filepath.Join(dir, fmt.Sprintf("source-%c.png", 'a'+i)))
		}
	}
	return root
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 6, 4))); err != nil {
		t.Fatalf("failed to encode fixture %s: %v", path, err)
	}
}

func testOptions(source, output string) Options {
	return Options{
		SourceDir: source,
		OutputDir: output,
		Quality:   transcode.DefaultQuality,
		Workers:   2,
		Seed:      7,
	}
}

func TestRunEndToEnd(t *testing.T) {
	source := writeSourceTree(t, map[classify.Category]int{classify.Horizontal: 5})
	output := filepath.Join(t.TempDir(), "dist")

	res, err := Run(context.Background(), testOptions(source, output))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := res.Manifest.Count(classify.Horizontal); got != 5 {
		t.Errorf("Manifest h count = %d, want 5", got)
	}
	if got := res.Manifest.Count(classify.Vertical); got != 0 {
		t.Errorf("Manifest v count = %d, want 0", got)
	}
	if res.Manifest.GeneratedAt.IsZero() {
		t.Errorf("Manifest timestamp not set")
	}

	// Published indices are dense: exactly 0.webp..4.webp, nothing else.
	for i := 0; i < 5; i++ {
		p := filepath.Join(output, "h", fmt.Sprintf("%d.webp", i))
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Published asset %d.webp missing: %v", i, err)
		}
	}
	if _, err := os.Stat(filepath.Join(output, "h", "5.webp")); err == nil {
		t.Errorf("Found 5.webp past the dense range")
	}

	// The manifest on disk matches the returned one.
	m, err := manifest.Read(filepath.Join(output, manifest.Filename))
	if err != nil {
		t.Fatalf("failed to read published manifest: %v", err)
	}
	if m.Count(classify.Horizontal) != 5 || m.Count(classify.Vertical) != 0 {
		t.Errorf("Published manifest counts = h:%d v:%d, want h:5 v:0",
			m.Count(classify.Horizontal), m.Count(classify.Vertical))
	}

	for _, name := range []string{
		script.Filename,
		gallery.GalleryFilename,
		gallery.DemoFilename,
		NoJekyllFilename,
	} {
		if _, err := os.Stat(filepath.Join(output, name)); err != nil {
			t.Errorf("Artifact %s missing: %v", name, err)
		}
	}
}

func TestRunCountsExcludeFailedTranscodes(t *testing.T) {
	source := writeSourceTree(t, map[classify.Category]int{classify.Horizontal: 3})
	if err := os.WriteFile(filepath.Join(source, "h", "broken.jpg"), []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write corrupt fixture: %v", err)
	}
	output := filepath.Join(t.TempDir(), "dist")

	res, err := Run(context.Background(), testOptions(source, output))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A failed transcode never consumes an index: the count reflects the
	// published set, and that set is still dense.
	if got := res.Manifest.Count(classify.Horizontal); got != 3 {
		t.Errorf("Manifest h count = %d, want 3 (corrupt source excluded)", got)
	}
	if res.Discovered[classify.Horizontal] != 4 {
		t.Errorf("Discovered h = %d, want 4", res.Discovered[classify.Horizontal])
	}
	if res.Failed[classify.Horizontal] != 1 {
		t.Errorf("Failed h = %d, want 1", res.Failed[classify.Horizontal])
	}

	entries, err := os.ReadDir(filepath.Join(output, "h"))
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 published files, got %d", len(entries))
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(filepath.Join(output, "h", fmt.Sprintf("%d.webp", i))); err != nil {
			t.Errorf("Index %d missing; published range has a gap: %v", i, err)
		}
	}
}

func TestRunMissingCategoryDirIsEmpty(t *testing.T) {
	// Only v exists; h is missing entirely and must come out as zero.
	source := writeSourceTree(t, map[classify.Category]int{classify.Vertical: 2})
	output := filepath.Join(t.TempDir(), "dist")

	res, err := Run(context.Background(), testOptions(source, output))
	if err != nil {
		t.Fatalf("Run failed with a missing category dir: %v", err)
	}
	if got := res.Manifest.Count(classify.Horizontal); got != 0 {
		t.Errorf("Manifest h count = %d, want 0", got)
	}
	if got := res.Manifest.Count(classify.Vertical); got != 2 {
		t.Errorf("Manifest v count = %d, want 2", got)
	}
}

func TestRunRebuildIsIdempotent(t *testing.T) {
	source := writeSourceTree(t, map[classify.Category]int{
		classify.Horizontal: 4,
		classify.Vertical:   2,
	})
	output := filepath.Join(t.TempDir(), "dist")

	opts := testOptions(source, output)
	opts.Seed = 0 // let each run seed itself, as a real rebuild would

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	for _, cat := range classify.Categories() {
		if first.Manifest.Count(cat) != second.Manifest.Count(cat) {
			t.Errorf("Rebuild changed %s count: %d then %d",
				cat, first.Manifest.Count(cat), second.Manifest.Count(cat))
		}
	}

	// The rebuild starts from a clean output tree: no stale files survive.
	entries, err := os.ReadDir(filepath.Join(output, "h"))
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 files in h after rebuild, got %d", len(entries))
	}
}

func TestRunCopiesVendorAssets(t *testing.T) {
	source := writeSourceTree(t, map[classify.Category]int{classify.Horizontal: 1})
	vendorDir := filepath.Join(source, gallery.VendorDir)
	if err := os.MkdirAll(vendorDir, 0755); err != nil {
		t.Fatalf("failed to create vendor dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(vendorDir, "masonry.min.js"), []byte("// vendor"), 0644); err != nil {
		t.Fatalf("failed to write vendor fixture: %v", err)
	}
	output := filepath.Join(t.TempDir(), "dist")

	if _, err := Run(context.Background(), testOptions(source, output)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, gallery.VendorDir, "masonry.min.js")); err != nil {
		t.Errorf("Vendor asset not copied: %v", err)
	}
}
