// Package gallery renders the browsable pages published next to the assets:
// a full gallery built from the manifest and a demo page wired to the client
// script's markers. Everything here is presentation; callers log failures
// and keep going.
package gallery

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/manifest"
)

const (
	// GalleryFilename is the published name of the gallery page.
	GalleryFilename = "gallery.html"
	// DemoFilename is the published name of the demo page.
	DemoFilename = "index.html"
	// VendorDir is the optional front-end extras directory, mirrored from
	// the source tree into the output when present.
	VendorDir = "vendor"
)

//go:embed templates/gallery.html.tmpl
var galleryTemplate string

//go:embed templates/index.html
var demoPage []byte

var galleryTmpl = template.Must(template.New(GalleryFilename).Parse(galleryTemplate))

type section struct {
	Title    string
	Category classify.Category
	Indices  []int
}

type galleryData struct {
	Ext       string
	Sections  []section
	Generated string
}

var sectionTitles = map[classify.Category]string{
	classify.Horizontal: "Horizontal",
	classify.Vertical:   "Vertical",
}

// Render writes the gallery page for m to w. Every published index appears
// exactly once, lazily loaded, grouped by category in canonical order.
func Render(w io.Writer, m manifest.Manifest, ext string) error {
	data := galleryData{
		Ext:       ext,
		Generated: m.GeneratedAt.Format(time.RFC3339),
	}
	for _, cat := range classify.Categories() {
		sec := section{
			Title:    sectionTitles[cat],
			Category: cat,
			Indices:  make([]int, m.Count(cat)),
		}
		for i := range sec.Indices {
			sec.Indices[i] = i
		}
		data.Sections = append(data.Sections, sec)
	}
	if err := galleryTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render gallery: %w", err)
	}
	return nil
}

// WriteGallery renders the gallery page for m to path.
func WriteGallery(path string, m manifest.Manifest, ext string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gallery page: %w", err)
	}
	if err := Render(f, m, ext); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDemo writes the static demo page to path. The page carries one of
// every marker the client script scans for and loads the script itself.
func WriteDemo(path string) error {
	if err := os.WriteFile(path, demoPage, 0644); err != nil {
		return fmt.Errorf("failed to write demo page: %w", err)
	}
	return nil
}

// CopyVendor mirrors srcDir into dstDir, creating parent directories as
// needed. A missing srcDir is not an error; vendor extras are optional.
func CopyVendor(srcDir, dstDir string) error {
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dstDir, rel))
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
