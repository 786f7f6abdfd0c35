// Package script generates the published client-side selection script. The
// script is self-contained and dependency-free; its session-cache behavior
// (one random draw per category per page load) is a designed contract, and
// the template below is the authoritative statement of it.
package script

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/manifest"
)

// Filename is the published name of the client script.
const Filename = "pics.js"

//go:embed pics.js.tmpl
var scriptTemplate string

var tmpl = template.Must(template.New(Filename).Parse(scriptTemplate))

// Config freezes everything the generated script embeds: the manifest counts,
// the normalized domain prefix, and the published asset extension. It is a
// snapshot taken at generation time; the script never re-fetches it.
type Config struct {
	Domain string
	CountH int
	CountV int
	Ext    string
}

// NewConfig captures m's counts and normalizes the domain prefix.
func NewConfig(domain string, m manifest.Manifest, ext string) Config {
	return Config{
		Domain: NormalizeDomain(domain),
		CountH: m.Count(classify.Horizontal),
		CountV: m.Count(classify.Vertical),
		Ext:    ext,
	}
}

// NormalizeDomain strips a single trailing separator so URL composition
// inserts exactly one. An empty domain yields origin-relative URLs.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(domain, "/")
}

// Generate renders the client script for cfg to w.
func Generate(w io.Writer, cfg Config) error {
	if err := tmpl.Execute(w, cfg); err != nil {
		return fmt.Errorf("failed to render client script: %w", err)
	}
	return nil
}

// WriteFile renders the client script to path. A failure is fatal to the
// build: the script is the published API surface itself.
func WriteFile(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create client script: %w", err)
	}
	if err := Generate(f, cfg); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write client script: %w", err)
	}
	return nil
}
