package classify

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Category identifies one partition of the image set. The set is closed and
// known at build time; each category maps to a same-named subdirectory in
// both the source and output trees.
type Category string

const (
	// Horizontal holds landscape-oriented images.
	Horizontal Category = "h"
	// Vertical holds portrait-oriented images.
	Vertical Category = "v"
)

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{Horizontal, Vertical}
}

// imageExts contains the recognized source image extensions.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".avif": true,
	".tiff": true,
}

// IsImage reports whether name carries a recognized image extension,
// case-insensitively.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the full paths of cat's source images under root, in
// directory order. A missing or unreadable category directory is a
// warning-level condition, not a failure: the category is reported as empty
// and the build proceeds. Read-only, no side effects.
func ListImages(root string, cat Category) []string {
	dir := filepath.Join(root, string(cat))
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Category directory unreadable, treating as empty", "category", cat, "dir", dir, "error", err)
		return nil
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, entry.Name()))
	}
	return images
}
