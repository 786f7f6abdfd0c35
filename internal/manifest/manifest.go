// Package manifest builds and serializes the per-build asset descriptor: the
// single authoritative record of how many published assets exist per category.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/picsmith/picsmith/internal/classify"
)

// Filename is the published name of the manifest.
const Filename = "manifest.json"

// Manifest records the count of successfully published assets per category
// and the build timestamp. Consumers must treat it as read-only and must not
// assume any particular index corresponds to any particular image.
type Manifest struct {
	Counts      map[classify.Category]int
	GeneratedAt time.Time
}

// New aggregates per-category publish counts and a build timestamp. Pure
// aggregation: no I/O, no retries.
func New(counts map[classify.Category]int, now time.Time) Manifest {
	m := Manifest{
		Counts:      make(map[classify.Category]int, len(counts)),
		GeneratedAt: now.UTC(),
	}
	for cat, n := range counts {
		m.Counts[cat] = n
	}
	return m
}

// Count returns the published asset count for cat, zero when absent.
func (m Manifest) Count(cat classify.Category) int {
	return m.Counts[cat]
}

// MarshalJSON emits the flat wire form: one key per category in canonical
// order, then generated_at as RFC 3339.
func (m Manifest) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for _, cat := range classify.Categories() {
		fmt.Fprintf(&b, "%q:%d,", string(cat), m.Counts[cat])
	}
	fmt.Fprintf(&b, `"generated_at":%q`, m.GeneratedAt.Format(time.RFC3339))
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON parses the flat wire form written by MarshalJSON. Unknown
// keys are ignored; absent categories stay at zero.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Counts = make(map[classify.Category]int)
	for _, cat := range classify.Categories() {
		v, ok := raw[string(cat)]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("manifest count for %q: %w", cat, err)
		}
		if n < 0 {
			return fmt.Errorf("manifest count for %q is negative: %d", cat, n)
		}
		m.Counts[cat] = n
	}

	if v, ok := raw["generated_at"]; ok {
		var ts string
		if err := json.Unmarshal(v, &ts); err != nil {
			return fmt.Errorf("manifest generated_at: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return fmt.Errorf("manifest generated_at: %w", err)
		}
		m.GeneratedAt = parsed
	}
	return nil
}

// Write serializes m to path, pretty-printed with a trailing newline. A
// failure here is fatal to the build: the manifest is the source of truth
// for every downstream consumer.
func Write(path string, m Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("failed to format manifest: %w", err)
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads a manifest previously written by Write.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}
