package gallery

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/manifest"
)

func TestRenderListsEveryIndex(t *testing.T) {
	m := manifest.New(
		map[classify.Category]int{classify.Horizontal: 3, classify.Vertical: 1},
		time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	)
	var buf bytes.Buffer
	if err := Render(&buf, m, "webp"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<img loading="lazy" src="h/0.webp"`,
		`<img loading="lazy" src="h/1.webp"`,
		`<img loading="lazy" src="h/2.webp"`,
		`<img loading="lazy" src="v/0.webp"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Gallery missing %q", want)
		}
	}
	if strings.Contains(out, `src="h/3.webp"`) {
		t.Errorf("Gallery lists an index beyond the manifest count:\n%s", out)
	}
	if !strings.Contains(out, "2025-03-14T09:26:53Z") {
		t.Errorf("Gallery missing build timestamp:\n%s", out)
	}
}

func TestRenderEmptyManifest(t *testing.T) {
	m := manifest.New(map[classify.Category]int{}, time.Now())
	var buf bytes.Buffer
	if err := Render(&buf, m, "webp"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<img") {
		t.Errorf("Empty manifest must render no images:\n%s", out)
	}
	if !strings.Contains(out, "No images.") {
		t.Errorf("Empty category placeholder missing:\n%s", out)
	}
}

func TestWriteDemoCarriesMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), DemoFilename)
	if err := WriteDemo(path); err != nil {
		t.Fatalf("WriteDemo failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read demo page: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`id="random-bg"`,
		`alt="pic-h"`,
		`alt="pic-v"`,
		`data-random-bg="h"`,
		`data-random-bg="v"`,
		`<script src="pics.js"></script>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Demo page missing %q", want)
		}
	}
}

func TestCopyVendor(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), VendorDir)
	if err := os.MkdirAll(filepath.Join(src, "masonry"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "masonry", "masonry.min.js"), []byte("js"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "extra.css"), []byte("css"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyVendor(src, dst); err != nil {
		t.Fatalf("CopyVendor failed: %v", err)
	}

	for _, rel := range []string{filepath.Join("masonry", "masonry.min.js"), "extra.css"} {
		if _, err := os.Stat(filepath.Join(dst, rel)); err != nil {
			t.Errorf("vendor file %s not copied: %v", rel, err)
		}
	}
}

func TestCopyVendorMissingSourceIsNoop(t *testing.T) {
	dst := filepath.Join(t.TempDir(), VendorDir)
	if err := CopyVendor(filepath.Join(t.TempDir(), "absent"), dst); err != nil {
		t.Fatalf("missing vendor dir must not be an error: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("no vendor dir should be created when the source is absent")
	}
}
